package rdf_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/randomtoy/linked-chess/internal/rdf"
)

const gameDoc = `
@prefix chess: <http://purl.org/NET/rdfchess/ontology/> .
@prefix schema: <http://schema.org/> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

<#game> a chess:ChessGame ;
    schema:name "Friday game" ;
    chess:providesAgentRole <#white>, <#black> ;
    chess:hasFirstHalfMove <#m1> .

<#white> a chess:WhitePlayerRole ; chess:performedBy <https://alice.example/profile#me> .
<#black> a chess:BlackPlayerRole ; chess:performedBy <https://bob.example/profile#me> .

<#m1> chess:hasSANRecord "e4"^^xsd:string ; chess:nextHalfMove <#m2> .
<#m2> chess:hasSANRecord "e5"^^xsd:string .
`

const base = "https://alice.example/games/1.ttl"

func loadGame(t *testing.T) *rdf.Store {
	t.Helper()
	triples, err := rdf.Parse(strings.NewReader(gameDoc), base, rdf.MediaTurtle)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return rdf.NewGraph(rdf.IRI(base), triples)
}

func TestParse_ResolvesRelativeIRIs(t *testing.T) {
	store := loadGame(t)
	game := rdf.IRI(base + "#game")

	names := rdf.Objects(store, game, rdf.Name)
	if len(names) != 1 || names[0] != rdf.String("Friday game") {
		t.Fatalf("name = %v", names)
	}
	heads := rdf.Objects(store, game, rdf.HasFirstHalfMove)
	if len(heads) != 1 || heads[0] != rdf.IRI(base+"#m1") {
		t.Fatalf("head = %v", heads)
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := rdf.Parse(strings.NewReader("<#a> <#b> ."), base, rdf.MediaTurtle)
	if !errors.Is(err, rdf.ErrSyntax) {
		t.Fatalf("want ErrSyntax, got %v", err)
	}
}

func TestStore_DeduplicatesAndMatches(t *testing.T) {
	s := rdf.NewStore()
	g := rdf.IRI("urn:g")
	q := rdf.Quad{S: rdf.IRI("urn:a"), P: rdf.Type, O: rdf.HalfMove, G: g}
	s.Add(q)
	s.Add(q)
	s.Add(rdf.Quad{S: rdf.IRI("urn:b"), P: rdf.Type, O: rdf.HalfMove, G: g})

	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}

	var n int
	for range s.Match(rdf.Term{}, rdf.Type, rdf.HalfMove, rdf.Term{}) {
		n++
	}
	if n != 2 {
		t.Fatalf("matched %d, want 2", n)
	}

	n = 0
	for range s.Match(rdf.IRI("urn:a"), rdf.Term{}, rdf.Term{}, rdf.IRI("urn:other")) {
		n++
	}
	if n != 0 {
		t.Fatalf("graph filter ignored: %d", n)
	}
}

func TestSelect_RoleLookup(t *testing.T) {
	store := loadGame(t)

	rows := rdf.Select(store, rdf.Query{
		Where: []rdf.Pattern{
			rdf.P(rdf.V("role"), rdf.N(rdf.Type), rdf.V("kind")),
			rdf.P(rdf.V("role"), rdf.N(rdf.PerformedBy), rdf.N(rdf.IRI("https://bob.example/profile#me"))),
		},
	})
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0]["kind"] != rdf.BlackPlayerRole {
		t.Fatalf("kind = %v", rows[0]["kind"])
	}
}

func TestSelect_OptionalKeepsUnmatchedRows(t *testing.T) {
	store := loadGame(t)

	rows := rdf.Select(store, rdf.Query{
		Optional: [][]rdf.Pattern{
			{rdf.P(rdf.N(rdf.IRI(base+"#m2")), rdf.N(rdf.HasSANRecord), rdf.V("san"))},
			{rdf.P(rdf.N(rdf.IRI(base+"#m2")), rdf.N(rdf.NextHalfMove), rdf.V("next"))},
		},
	})
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0]["san"] != rdf.String("e5") {
		t.Fatalf("san = %v", rows[0]["san"])
	}
	if _, ok := rows[0]["next"]; ok {
		t.Fatalf("next should be unbound, got %v", rows[0]["next"])
	}
}

func TestSelect_LimitAndFilter(t *testing.T) {
	store := loadGame(t)

	all := rdf.Select(store, rdf.Query{
		Where: []rdf.Pattern{rdf.P(rdf.V("s"), rdf.N(rdf.HasSANRecord), rdf.V("san"))},
	})
	if len(all) != 2 {
		t.Fatalf("rows = %d, want 2", len(all))
	}

	limited := rdf.Select(store, rdf.Query{
		Where: []rdf.Pattern{rdf.P(rdf.V("s"), rdf.N(rdf.HasSANRecord), rdf.V("san"))},
		Limit: 1,
	})
	if len(limited) != 1 {
		t.Fatalf("limited rows = %d, want 1", len(limited))
	}

	filtered := rdf.Select(store, rdf.Query{
		Where:  []rdf.Pattern{rdf.P(rdf.V("s"), rdf.N(rdf.HasSANRecord), rdf.V("san"))},
		Filter: func(b rdf.Binding) bool { return b["san"].Value == "e5" },
	})
	if len(filtered) != 1 || filtered[0]["s"] != rdf.IRI(base+"#m2") {
		t.Fatalf("filtered = %v", filtered)
	}
}

func TestInsertData_RoundTrip(t *testing.T) {
	in := []rdf.Triple{
		rdf.T(rdf.IRI("https://a.example/g#x"), rdf.HasSANRecord, rdf.String(`quote " and \ backslash`)),
		rdf.T(rdf.IRI("https://a.example/g#x"), rdf.Type, rdf.HalfMove),
	}
	update := rdf.InsertData(in)
	if !strings.HasPrefix(update, "INSERT DATA {") {
		t.Fatalf("update = %q", update)
	}

	out, err := rdf.ParseInsertData(update, "")
	if err != nil {
		t.Fatalf("ParseInsertData: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d triples, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("triple %d = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestParseInsertData_RejectsOtherUpdates(t *testing.T) {
	_, err := rdf.ParseInsertData("DELETE DATA { <urn:a> <urn:b> <urn:c> . }", "")
	if !errors.Is(err, rdf.ErrSyntax) {
		t.Fatalf("want ErrSyntax, got %v", err)
	}
}

func TestTermString(t *testing.T) {
	cases := []struct {
		term rdf.Term
		want string
	}{
		{rdf.IRI("urn:x"), "<urn:x>"},
		{rdf.Blank("_:b0"), "_:b0"},
		{rdf.String("e4"), `"e4"^^<http://www.w3.org/2001/XMLSchema#string>`},
		{rdf.LangLiteral("partie", "FR"), `"partie"@fr`},
		{rdf.String("a\nb"), `"a\nb"^^<http://www.w3.org/2001/XMLSchema#string>`},
	}
	for _, c := range cases {
		if got := c.term.String(); got != c.want {
			t.Fatalf("%#v.String() = %s, want %s", c.term, got, c.want)
		}
	}
}

func TestParse_ResolvesPathReferences(t *testing.T) {
	doc := "<#me> <http://www.w3.org/ns/ldp#inbox> <../inbox/> .\n<#me> <#knows> </people/bob#me> ."
	triples, err := rdf.Parse(strings.NewReader(doc), "https://pod.example/alice/profile/card", rdf.MediaTurtle)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(triples) != 2 {
		t.Fatalf("triples = %v", triples)
	}
	me := rdf.IRI("https://pod.example/alice/profile/card#me")
	if triples[0].S != me || triples[0].O != rdf.IRI("https://pod.example/alice/inbox/") {
		t.Fatalf("first = %s", triples[0])
	}
	if triples[1].O != rdf.IRI("https://pod.example/people/bob#me") {
		t.Fatalf("second = %s", triples[1])
	}

	if _, err := rdf.Parse(strings.NewReader(doc), "card", rdf.MediaTurtle); !errors.Is(err, rdf.ErrSyntax) {
		t.Fatalf("relative base: want ErrSyntax, got %v", err)
	}
}
