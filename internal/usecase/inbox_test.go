package usecase_test

import (
	"context"
	"testing"

	"github.com/randomtoy/linked-chess/internal/domain/rules"
	"github.com/randomtoy/linked-chess/internal/ports"
	"github.com/randomtoy/linked-chess/internal/rdf"
)

const malloryDoc = "https://pod.example/mallory/moves.ttl"

func deliverLink(t *testing.T, e *env, id, gameURL string, link rdf.Triple) {
	t.Helper()
	err := e.inboxes.Deliver(context.Background(), ports.Notification{
		ID:        id,
		Game:      gameURL,
		Recipient: alice,
		Body:      rdf.EncodeNTriples([]rdf.Triple{link}),
	})
	if err != nil {
		t.Fatalf("Deliver(%s): %v", id, err)
	}
}

func TestDeliver_RejectsForgedLinks(t *testing.T) {
	e := newEnv(t, nil)
	url := createGame(t, e)
	first := play(t, e, url, alice, aliceDoc, "e4").Delta.Resource
	second := play(t, e, url, bob, bobDoc, "e5").Delta.Resource

	// A half-move that claims a SAN but was never played in this game.
	e.put(t, malloryDoc, `<#y> <`+rdf.HasSANRecord.Value+`> "Qh5" .`)

	cases := []struct {
		name string
		link rdf.Triple
	}{
		{"unresolvable object", rdf.T(rdf.IRI(second), rdf.NextHalfMove, rdf.IRI("https://evil.example/x#y"))},
		{"move outside the game", rdf.T(rdf.IRI(second), rdf.NextHalfMove, rdf.IRI(malloryDoc+"#y"))},
		{"second successor", rdf.T(rdf.IRI(first), rdf.NextHalfMove, rdf.IRI(second))},
		{"second first move", rdf.T(rdf.IRI(url), rdf.HasFirstHalfMove, rdf.IRI(second))},
		{"literal object", rdf.T(rdf.IRI(second), rdf.NextHalfMove, rdf.String("Qh5"))},
		{"unknown subject", rdf.T(rdf.IRI(bobDoc+"#nope"), rdf.NextHalfMove, rdf.IRI(first))},
	}
	for i, tc := range cases {
		deliverLink(t, e, "forged-"+string(rune('a'+i)), url, tc.link)
	}

	st, err := e.loader.Resolve(context.Background(), url, alice, aliceDoc)
	if err != nil {
		t.Fatalf("Resolve after forged links: %v", err)
	}
	if lm := st.LastMove(); lm == nil || lm.SAN != "e5" || lm.Resource != second {
		t.Fatalf("last move = %+v", lm)
	}
	if st.Turn() != rules.White {
		t.Fatalf("turn = %v", st.Turn())
	}

	// The game still accepts its next real move.
	res := play(t, e, url, alice, aliceDoc, "Nf3")
	if res.State.LastMove().SAN != "Nf3" {
		t.Fatalf("last move = %+v", res.State.LastMove())
	}
}

func TestDeliver_RejectsLinkForAnotherGame(t *testing.T) {
	e := newEnv(t, nil)
	url := createGame(t, e)
	play(t, e, url, alice, aliceDoc, "e4")
	second := play(t, e, url, bob, bobDoc, "e5").Delta.Resource

	other := createGame(t, e)
	otherMove := play(t, e, other, alice, aliceDoc, "d4").Delta.Resource

	deliverLink(t, e, "cross-game", other, rdf.T(rdf.IRI(second), rdf.NextHalfMove, rdf.IRI(otherMove)))

	st, err := e.loader.Resolve(context.Background(), url, alice, aliceDoc)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if st.LastMove().Resource != second {
		t.Fatalf("last move = %+v", st.LastMove())
	}
}
