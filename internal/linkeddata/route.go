package linkeddata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/randomtoy/linked-chess/internal/ports"
	"github.com/randomtoy/linked-chess/internal/rdf"
)

// StoreFetcher serves documents from a local DocumentStore.
type StoreFetcher struct {
	store ports.DocumentStore
}

func NewStoreFetcher(store ports.DocumentStore) *StoreFetcher {
	return &StoreFetcher{store: store}
}

func (f *StoreFetcher) Fetch(ctx context.Context, url string) (ports.Document, error) {
	doc, err := f.store.Get(ctx, DocumentURL(url))
	if errors.Is(err, ports.ErrNotFound) {
		return ports.Document{Status: http.StatusNotFound, FinalURL: url}, nil
	}
	if err != nil {
		return ports.Document{}, err
	}
	return ports.Document{
		Status:      http.StatusOK,
		FinalURL:    doc.URL,
		ContentType: doc.ContentType,
		Body:        doc.Body,
	}, nil
}

// StorePublisher applies INSERT DATA updates to a local DocumentStore.
type StorePublisher struct {
	store ports.DocumentStore
}

func NewStorePublisher(store ports.DocumentStore) *StorePublisher {
	return &StorePublisher{store: store}
}

func (p *StorePublisher) Publish(ctx context.Context, documentURL, update string) error {
	url := DocumentURL(documentURL)
	triples, err := rdf.ParseInsertData(update, url)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrParse, err)
	}
	return p.store.Append(ctx, url, triples)
}

// Router sends URLs under LocalBase to the local side and everything else
// to the remote side.
type Router struct {
	LocalBase string

	LocalFetcher    ports.Fetcher
	RemoteFetcher   ports.Fetcher
	LocalPublisher  ports.UpdatePublisher
	RemotePublisher ports.UpdatePublisher
}

// IsLocal reports whether url is served by this process.
func (r *Router) IsLocal(url string) bool {
	return r.LocalBase != "" && strings.HasPrefix(url, r.LocalBase)
}

func (r *Router) Fetch(ctx context.Context, url string) (ports.Document, error) {
	if r.IsLocal(url) || r.RemoteFetcher == nil {
		return r.LocalFetcher.Fetch(ctx, url)
	}
	return r.RemoteFetcher.Fetch(ctx, url)
}

func (r *Router) Publish(ctx context.Context, documentURL, update string) error {
	if r.IsLocal(documentURL) || r.RemotePublisher == nil {
		return r.LocalPublisher.Publish(ctx, documentURL, update)
	}
	return r.RemotePublisher.Publish(ctx, documentURL, update)
}
