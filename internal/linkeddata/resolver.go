// Package linkeddata turns fetched documents into queryable triple
// sources and routes reads and writes between this server and remote pods.
package linkeddata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/randomtoy/linked-chess/internal/obslog"
	"github.com/randomtoy/linked-chess/internal/ports"
	"github.com/randomtoy/linked-chess/internal/rdf"
)

// Resolver dereferences IRIs into triple sources. Every call fetches;
// nothing is cached.
type Resolver struct {
	fetcher ports.Fetcher
}

// NewResolver returns a Resolver reading through f.
func NewResolver(f ports.Fetcher) *Resolver {
	return &Resolver{fetcher: f}
}

// Resolve fetches the document holding iri and parses it into a store
// whose graph is the document's final URL.
func (r *Resolver) Resolve(ctx context.Context, iri string) (rdf.Source, error) {
	url := DocumentURL(iri)
	doc, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) || errors.Is(err, ports.ErrUpstream) {
			return nil, fmt.Errorf("fetch %s: %w", url, err)
		}
		return nil, fmt.Errorf("%w: fetch %s: %w", ports.ErrUpstream, url, err)
	}

	switch {
	case doc.Status == http.StatusNotFound || doc.Status == http.StatusGone:
		return nil, fmt.Errorf("%s: %w", url, ports.ErrNotFound)
	case doc.Status < 200 || doc.Status > 299:
		return nil, fmt.Errorf("%w: %s returned %d", ports.ErrUpstream, url, doc.Status)
	}

	base := doc.FinalURL
	if base == "" {
		base = url
	}
	triples, err := rdf.Parse(bytes.NewReader(doc.Body), base, doc.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ports.ErrParse, url, err)
	}

	obslog.L().Debug("document_resolved",
		zap.String("url", url),
		zap.String("final_url", base),
		zap.Int("triples", len(triples)),
	)
	return rdf.NewGraph(rdf.IRI(base), triples), nil
}

// FindInbox reads ldp:inbox from the agent's profile document. It returns
// an empty string when the profile names no inbox.
func (r *Resolver) FindInbox(ctx context.Context, webID string) (string, error) {
	src, err := r.Resolve(ctx, webID)
	if err != nil {
		return "", err
	}
	for _, o := range rdf.Objects(src, rdf.IRI(webID), rdf.Inbox) {
		if o.IsIRI() {
			return o.Value, nil
		}
	}
	return "", nil
}

// DocumentURL strips the fragment from an IRI.
func DocumentURL(iri string) string {
	if i := strings.IndexByte(iri, '#'); i >= 0 {
		return iri[:i]
	}
	return iri
}
