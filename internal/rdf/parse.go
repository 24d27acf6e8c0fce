package rdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"

	krdf "github.com/knakk/rdf"
)

// ErrSyntax is returned for documents or updates that cannot be decoded.
var ErrSyntax = errors.New("rdf syntax error")

// Media types understood by Parse.
const (
	MediaTurtle         = "text/turtle"
	MediaNTriples       = "application/n-triples"
	MediaSPARQLUpdate   = "application/sparql-update"
	defaultDocumentType = MediaTurtle
)

// Parse decodes a Turtle or N-Triples document. Relative IRIs resolve
// against base. Unknown or empty content types are read as Turtle.
func Parse(r io.Reader, base, contentType string) ([]Triple, error) {
	format := krdf.Turtle
	if mediaType(contentType) == MediaNTriples {
		format = krdf.NTriples
	}

	var baseURL *url.URL
	if base != "" {
		u, err := url.Parse(base)
		if err != nil || !u.IsAbs() {
			return nil, fmt.Errorf("%w: base %q is not an absolute IRI", ErrSyntax, base)
		}
		baseURL = u
	}

	// Relative IRIs come out of the decoder as written; see resolve.
	dec := krdf.NewTripleDecoder(r, format)

	var out []Triple
	for {
		kt, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		t, err := fromKnakk(kt, baseURL)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ParseInsertData extracts the triples of a SPARQL "INSERT DATA { ... }"
// update. Only ground triples are accepted.
func ParseInsertData(update, base string) ([]Triple, error) {
	trimmed := strings.TrimSpace(update)
	head, _, found := strings.Cut(trimmed, "{")
	if !found || !strings.EqualFold(strings.Join(strings.Fields(head), " "), "INSERT DATA") {
		return nil, fmt.Errorf("%w: expected INSERT DATA block", ErrSyntax)
	}
	open := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if end < open {
		return nil, fmt.Errorf("%w: unterminated INSERT DATA block", ErrSyntax)
	}
	body := strings.TrimSpace(trimmed[open+1 : end])
	if body == "" {
		return nil, nil
	}
	return Parse(strings.NewReader(body), base, MediaTurtle)
}

// EncodeNTriples renders triples one per line.
func EncodeNTriples(triples []Triple) string {
	var b strings.Builder
	for _, t := range triples {
		b.WriteString(t.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// InsertData renders triples as a SPARQL INSERT DATA update.
func InsertData(triples []Triple) string {
	var b bytes.Buffer
	b.WriteString("INSERT DATA {\n")
	for _, t := range triples {
		b.WriteString("  ")
		b.WriteString(t.String())
		b.WriteByte('\n')
	}
	b.WriteString("}")
	return b.String()
}

func mediaType(contentType string) string {
	if contentType == "" {
		return defaultDocumentType
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return defaultDocumentType
	}
	return mt
}

func fromKnakk(kt krdf.Triple, base *url.URL) (Triple, error) {
	s, err := fromKnakkTerm(kt.Subj, base)
	if err != nil {
		return Triple{}, err
	}
	p, err := fromKnakkTerm(kt.Pred, base)
	if err != nil {
		return Triple{}, err
	}
	o, err := fromKnakkTerm(kt.Obj, base)
	if err != nil {
		return Triple{}, err
	}
	return Triple{S: s, P: p, O: o}, nil
}

func fromKnakkTerm(t krdf.Term, base *url.URL) (Term, error) {
	switch v := t.(type) {
	case krdf.IRI:
		return IRI(resolve(base, v.String())), nil
	case krdf.Blank:
		return Blank(v.String()), nil
	case krdf.Literal:
		if v.Lang() != "" {
			return LangLiteral(v.String(), v.Lang()), nil
		}
		return Literal(v.String(), v.DataType.String()), nil
	default:
		return Term{}, fmt.Errorf("%w: unsupported term %T", ErrSyntax, t)
	}
}

// resolve makes ref absolute against base. Absolute IRIs are returned
// untouched so their spelling is preserved.
func resolve(base *url.URL, ref string) string {
	if base == nil || hasScheme(ref) {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func hasScheme(ref string) bool {
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c == ':':
			return i > 0
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return false
}
