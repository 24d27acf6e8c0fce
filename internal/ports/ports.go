package ports

import (
	"context"
	"errors"
	"time"

	"github.com/randomtoy/linked-chess/internal/rdf"
)

// Sentinel errors.
var (
	ErrNotFound = errors.New("not found")
	ErrParse    = errors.New("document could not be parsed")
	ErrUpstream = errors.New("unexpected upstream response")
)

// Document is a fetched linked-data document. FinalURL is the identity
// after redirects; relative IRIs in Body resolve against it.
type Document struct {
	Status      int
	FinalURL    string
	ContentType string
	Body        []byte
}

// Fetcher dereferences document URLs. Non-2xx responses are reported
// through Status, not as errors; errors are transport failures.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Document, error)
}

// StoredDocument is a document held by this server.
type StoredDocument struct {
	URL         string
	ContentType string
	Body        []byte
	UpdatedAt   time.Time
}

// DocumentStore is the persistence interface for hosted documents.
type DocumentStore interface {
	// Get returns ErrNotFound for unknown URLs.
	Get(ctx context.Context, url string) (StoredDocument, error)
	// Put creates or replaces a document.
	Put(ctx context.Context, doc StoredDocument) error
	// Append adds statements to a document, creating it when missing.
	// Existing content is never rewritten.
	Append(ctx context.Context, url string, triples []rdf.Triple) error
}

// UpdatePublisher applies a SPARQL INSERT DATA update to a document.
type UpdatePublisher interface {
	Publish(ctx context.Context, documentURL, update string) error
}

// Notification announces new statements to another player.
type Notification struct {
	ID        string    `json:"id"`
	Game      string    `json:"game"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Inbox     string    `json:"inbox,omitempty"`
	Body      string    `json:"body"`
	RealTime  bool      `json:"real_time"`
	CreatedAt time.Time `json:"created_at"`
}

// Mailbox is the key a notification is filed under: the inbox when
// known, otherwise the recipient.
func (n Notification) Mailbox() string {
	if n.Inbox != "" {
		return n.Inbox
	}
	return n.Recipient
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// InboxReader lists delivered notifications, newest first.
type InboxReader interface {
	List(ctx context.Context, mailbox string, limit int) ([]Notification, error)
}

// RateLimiter gates requests by IP and optional client token.
type RateLimiter interface {
	Allow(ip, token string) bool
}
