package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/randomtoy/linked-chess/internal/ports"
	"github.com/randomtoy/linked-chess/internal/rdf"
)

const queryGet = `
SELECT url, content_type, body, updated_at
FROM documents
WHERE url = $1`

const queryPut = `
INSERT INTO documents (url, content_type, body, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (url) DO UPDATE SET
    content_type = EXCLUDED.content_type,
    body         = EXCLUDED.body,
    updated_at   = EXCLUDED.updated_at`

const queryLockBody = `
SELECT body FROM documents
WHERE url = $1
FOR UPDATE`

const queryEnsure = `
INSERT INTO documents (url, content_type, body, created_at, updated_at)
VALUES ($1, $2, '', $3, $3)
ON CONFLICT (url) DO NOTHING`

const queryUpdateBody = `
UPDATE documents SET body = $2, updated_at = $3
WHERE url = $1`

// Store is a PostgreSQL-backed DocumentStore.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

func (s *Store) Get(ctx context.Context, url string) (ports.StoredDocument, error) {
	var doc ports.StoredDocument
	err := s.pool.QueryRow(ctx, queryGet, url).Scan(&doc.URL, &doc.ContentType, &doc.Body, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ports.StoredDocument{}, ports.ErrNotFound
	}
	if err != nil {
		return ports.StoredDocument{}, err
	}
	return doc, nil
}

func (s *Store) Put(ctx context.Context, doc ports.StoredDocument) error {
	if doc.ContentType == "" {
		doc.ContentType = rdf.MediaTurtle
	}
	body := doc.Body
	if body == nil {
		body = []byte{}
	}
	_, err := s.pool.Exec(ctx, queryPut, doc.URL, doc.ContentType, body, s.now().UTC())
	return err
}

// Append writes the statements as N-Triples after the existing body,
// creating the document when missing. The row is locked so concurrent
// appends to one document serialize.
func (s *Store) Append(ctx context.Context, url string, triples []rdf.Triple) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := s.now().UTC()
	if _, err := tx.Exec(ctx, queryEnsure, url, rdf.MediaTurtle, now); err != nil {
		return err
	}

	var body []byte
	if err := tx.QueryRow(ctx, queryLockBody, url).Scan(&body); err != nil {
		return err
	}
	if len(body) > 0 && body[len(body)-1] != '\n' {
		body = append(body, '\n')
	}
	body = append(body, rdf.EncodeNTriples(triples)...)
	if _, err := tx.Exec(ctx, queryUpdateBody, url, body, now); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
