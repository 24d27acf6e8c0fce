// Package rdf holds the small linked-data toolkit the game engine runs on:
// terms, an indexed quad store, basic graph pattern selection and
// Turtle/N-Triples decoding.
package rdf

import (
	"strings"
)

// TermKind discriminates the three RDF term forms.
type TermKind uint8

const (
	KindNone TermKind = iota
	KindIRI
	KindBlank
	KindLiteral
)

// Term is a comparable RDF term. The zero Term is the wildcard in Match.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Lang     string
}

// IRI returns a named node.
func IRI(v string) Term { return Term{Kind: KindIRI, Value: v} }

// Blank returns a blank node with the given label (without "_:").
func Blank(label string) Term { return Term{Kind: KindBlank, Value: strings.TrimPrefix(label, "_:")} }

// Literal returns a typed literal. An empty datatype means xsd:string.
func Literal(v, datatype string) Term {
	if datatype == "" {
		datatype = XSDString
	}
	return Term{Kind: KindLiteral, Value: v, Datatype: datatype}
}

// String returns an xsd:string literal.
func String(v string) Term { return Literal(v, XSDString) }

// LangLiteral returns a language-tagged string.
func LangLiteral(v, lang string) Term {
	return Term{Kind: KindLiteral, Value: v, Datatype: RDFLangString, Lang: strings.ToLower(lang)}
}

// IsZero reports whether t is the wildcard term.
func (t Term) IsZero() bool { return t.Kind == KindNone }

func (t Term) IsIRI() bool     { return t.Kind == KindIRI }
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// String renders t in N-Triples syntax.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + escapeIRI(t.Value) + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		lit := `"` + escapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return lit + "@" + t.Lang
		}
		return lit + "^^<" + escapeIRI(t.Datatype) + ">"
	default:
		return ""
	}
}

// Triple is a statement without graph.
type Triple struct {
	S, P, O Term
}

// T is shorthand for building a Triple.
func T(s, p, o Term) Triple { return Triple{S: s, P: p, O: o} }

// String renders the triple as one N-Triples line without the newline.
func (t Triple) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}

// Quad is a triple scoped to a graph.
type Quad struct {
	S, P, O, G Term
}

// Triple drops the graph.
func (q Quad) Triple() Triple { return Triple{S: q.S, P: q.P, O: q.O} }

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string { return literalEscaper.Replace(s) }

var iriEscaper = strings.NewReplacer(
	">", `\u003E`,
	"<", `\u003C`,
	" ", `\u0020`,
	`"`, `\u0022`,
)

func escapeIRI(s string) string { return iriEscaper.Replace(s) }
