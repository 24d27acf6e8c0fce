// Package redis stores player inboxes in Redis lists.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/randomtoy/linked-chess/internal/ports"
)

const (
	defaultTTL     = 7 * 24 * time.Hour
	defaultMaxSize = 500
)

// Inbox keeps each mailbox as a capped list, newest first.
type Inbox struct {
	rdb     *goredis.Client
	ttl     time.Duration
	maxSize int64
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithTTL sets how long an idle mailbox is kept.
func WithTTL(d time.Duration) Option {
	return func(b *Inbox) {
		if d > 0 {
			b.ttl = d
		}
	}
}

// WithMaxSize caps the notifications kept per mailbox.
func WithMaxSize(n int) Option {
	return func(b *Inbox) {
		if n > 0 {
			b.maxSize = int64(n)
		}
	}
}

func NewInbox(rdb *goredis.Client, opts ...Option) *Inbox {
	b := &Inbox{rdb: rdb, ttl: defaultTTL, maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := goredis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (b *Inbox) key(mailbox string) string { return "inbox:" + strings.TrimSpace(mailbox) }

func (b *Inbox) Notify(ctx context.Context, n ports.Notification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	key := b.key(n.Mailbox())
	_, err = b.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.LPush(ctx, key, raw)
		p.LTrim(ctx, key, 0, b.maxSize-1)
		p.Expire(ctx, key, b.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}

// List returns up to limit notifications, newest first. limit <= 0 means all.
func (b *Inbox) List(ctx context.Context, mailbox string, limit int) ([]ports.Notification, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raws, err := b.rdb.LRange(ctx, b.key(mailbox), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]ports.Notification, 0, len(raws))
	for _, raw := range raws {
		var n ports.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}
