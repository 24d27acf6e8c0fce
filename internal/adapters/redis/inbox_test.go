package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/randomtoy/linked-chess/internal/ports"
)

func newInbox(t *testing.T, opts ...Option) (*Inbox, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return NewInbox(rdb, opts...), mr
}

func TestInbox_NotifyAndList(t *testing.T) {
	b, _ := newInbox(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for _, id := range []string{"n1", "n2", "n3"} {
		n := ports.Notification{ID: id, Game: "https://pod.example/g#game", Recipient: "bob", Body: "<a> <b> <c> .\n", CreatedAt: created}
		if err := b.Notify(ctx, n); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}

	got, err := b.List(ctx, "bob", 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "n3" || got[1].ID != "n2" {
		t.Fatalf("List = %+v", got)
	}
	if !got[0].CreatedAt.Equal(created) || got[0].Body != "<a> <b> <c> .\n" {
		t.Fatalf("notification not preserved: %+v", got[0])
	}

	all, err := b.List(ctx, "bob", 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("List all = %d, %v", len(all), err)
	}
}

func TestInbox_UsesInboxOverRecipient(t *testing.T) {
	b, mr := newInbox(t)
	ctx := context.Background()

	n := ports.Notification{ID: "n1", Recipient: "bob", Inbox: "https://bob.example/inbox/"}
	if err := b.Notify(ctx, n); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !mr.Exists("inbox:https://bob.example/inbox/") {
		t.Fatalf("mailbox key missing; keys = %v", mr.Keys())
	}
	if got, _ := b.List(ctx, "bob", 0); len(got) != 0 {
		t.Fatalf("recipient mailbox should be empty, got %+v", got)
	}
}

func TestInbox_CapAndTTL(t *testing.T) {
	b, mr := newInbox(t, WithMaxSize(2), WithTTL(time.Hour))
	ctx := context.Background()

	for _, id := range []string{"n1", "n2", "n3"} {
		if err := b.Notify(ctx, ports.Notification{ID: id, Recipient: "bob"}); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
	got, _ := b.List(ctx, "bob", 0)
	if len(got) != 2 || got[1].ID != "n2" {
		t.Fatalf("cap not applied: %+v", got)
	}

	if ttl := mr.TTL("inbox:bob"); ttl != time.Hour {
		t.Fatalf("ttl = %v", ttl)
	}
	mr.FastForward(2 * time.Hour)
	if got, _ := b.List(ctx, "bob", 0); len(got) != 0 {
		t.Fatalf("expired mailbox still listed: %+v", got)
	}
}

func TestConnect_BadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "not-a-url"); err == nil {
		t.Fatalf("expected error")
	}
}
