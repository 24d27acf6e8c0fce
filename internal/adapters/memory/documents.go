package memory

import (
	"context"
	"sync"
	"time"

	"github.com/randomtoy/linked-chess/internal/ports"
	"github.com/randomtoy/linked-chess/internal/rdf"
)

// Documents is a thread-safe in-memory DocumentStore.
type Documents struct {
	mu   sync.Mutex
	docs map[string]ports.StoredDocument
	now  func() time.Time
}

// NewDocuments returns an empty store.
func NewDocuments() *Documents {
	return &Documents{
		docs: make(map[string]ports.StoredDocument),
		now:  time.Now,
	}
}

func (s *Documents) Get(_ context.Context, url string) (ports.StoredDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[url]
	if !ok {
		return ports.StoredDocument{}, ports.ErrNotFound
	}
	doc.Body = append([]byte(nil), doc.Body...)
	return doc, nil
}

func (s *Documents) Put(_ context.Context, doc ports.StoredDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ContentType == "" {
		doc.ContentType = rdf.MediaTurtle
	}
	doc.Body = append([]byte(nil), doc.Body...)
	doc.UpdatedAt = s.now()
	s.docs[doc.URL] = doc
	return nil
}

// Append writes the statements as N-Triples after the existing body.
func (s *Documents) Append(_ context.Context, url string, triples []rdf.Triple) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[url]
	if !ok {
		doc = ports.StoredDocument{URL: url, ContentType: rdf.MediaTurtle}
	}
	body := append([]byte(nil), doc.Body...)
	if len(body) > 0 && body[len(body)-1] != '\n' {
		body = append(body, '\n')
	}
	doc.Body = append(body, rdf.EncodeNTriples(triples)...)
	doc.UpdatedAt = s.now()
	s.docs[url] = doc
	return nil
}
