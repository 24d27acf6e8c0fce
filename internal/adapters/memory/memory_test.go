package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/randomtoy/linked-chess/internal/ports"
	"github.com/randomtoy/linked-chess/internal/rdf"
)

func TestDocuments_GetMissing(t *testing.T) {
	s := NewDocuments()
	_, err := s.Get(context.Background(), "https://pod.example/none.ttl")
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDocuments_AppendKeepsExistingContent(t *testing.T) {
	ctx := context.Background()
	s := NewDocuments()
	url := "https://pod.example/game.ttl"

	if err := s.Put(ctx, ports.StoredDocument{URL: url, Body: []byte("<#a> <#b> <#c> .")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	tr := rdf.T(rdf.IRI(url+"#g"), rdf.Type, rdf.ChessGame)
	if err := s.Append(ctx, url, []rdf.Triple{tr}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	doc, err := s.Get(ctx, url)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body := string(doc.Body)
	if !strings.HasPrefix(body, "<#a> <#b> <#c> .\n") {
		t.Fatalf("existing content rewritten: %q", body)
	}
	if !strings.Contains(body, tr.String()) {
		t.Fatalf("appended triple missing: %q", body)
	}
	if doc.ContentType != rdf.MediaTurtle {
		t.Fatalf("content type = %q", doc.ContentType)
	}
}

func TestDocuments_AppendCreates(t *testing.T) {
	ctx := context.Background()
	s := NewDocuments()
	url := "https://pod.example/moves.ttl"
	if err := s.Append(ctx, url, []rdf.Triple{rdf.T(rdf.IRI(url+"#m"), rdf.Type, rdf.HalfMove)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := s.Get(ctx, url); err != nil {
		t.Fatalf("Get after Append: %v", err)
	}
}

func TestInbox_NewestFirst(t *testing.T) {
	ctx := context.Background()
	b := NewInbox()
	for _, id := range []string{"1", "2", "3"} {
		if err := b.Notify(ctx, ports.Notification{ID: id, Recipient: "bob"}); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
	got, err := b.List(ctx, "bob", 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "3" || got[1].ID != "2" {
		t.Fatalf("List = %+v", got)
	}
	if empty, _ := b.List(ctx, "alice", 0); len(empty) != 0 {
		t.Fatalf("alice inbox = %+v", empty)
	}
}

func TestTokenBucket(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := NewTokenBucket(1, 2)
	b.now = func() time.Time { return now }

	if !b.Allow("10.0.0.1", "") || !b.Allow("10.0.0.1", "") {
		t.Fatalf("burst should allow two requests")
	}
	if b.Allow("10.0.0.1", "") {
		t.Fatalf("third request should be limited")
	}
	for _, token := range []string{"token-a", "token-b"} {
		if b.Allow("10.0.0.1", token) {
			t.Fatalf("rotating the client token bypassed the limit with %q", token)
		}
	}
	if !b.Allow("10.0.0.2", "") {
		t.Fatalf("other IPs have their own bucket")
	}

	now = now.Add(time.Second)
	if !b.Allow("10.0.0.1", "") {
		t.Fatalf("bucket should refill after one second")
	}
}

func TestTokenBucket_EvictsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := NewTokenBucket(1, 1)
	b.now = func() time.Time { return now }

	b.Allow("a", "")
	now = now.Add(time.Hour)
	b.Allow("b", "")
	if _, ok := b.clients["a"]; ok {
		t.Fatalf("idle client not evicted")
	}
}
