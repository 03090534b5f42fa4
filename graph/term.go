// Package graph holds the in-memory triple model: terms, triples, and the
// immutable indexed Store built once per loaded source.
package graph

import (
	"fmt"
	"strings"
)

// Kind distinguishes the three RDF term kinds.
type Kind uint8

const (
	// KindIRI is an absolute identifier.
	KindIRI Kind = iota + 1
	// KindBlank is a document-scoped anonymous node.
	KindBlank
	// KindLiteral is a lexical value with optional language or datatype.
	KindLiteral
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Term is a node of the graph. Terms are comparable and may be used as map
// keys; two terms are the same node iff all fields are equal.
type Term struct {
	Kind Kind
	// Value is the IRI, the blank node label (without "_:"), or the lexical
	// form of a literal.
	Value string
	// Lang is the language tag of a literal, empty otherwise.
	Lang string
	// Datatype is the datatype IRI of a typed literal, empty otherwise.
	Datatype string
}

// IRI returns an IRI term.
func IRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// Blank returns a blank node term.
func Blank(label string) Term {
	return Term{Kind: KindBlank, Value: label}
}

// Literal returns a plain literal.
func Literal(lexical string) Term {
	return Term{Kind: KindLiteral, Value: lexical}
}

// LangLiteral returns a language-tagged literal.
func LangLiteral(lexical, lang string) Term {
	return Term{Kind: KindLiteral, Value: lexical, Lang: lang}
}

// TypedLiteral returns a literal annotated with a datatype IRI.
func TypedLiteral(lexical, datatype string) Term {
	return Term{Kind: KindLiteral, Value: lexical, Datatype: datatype}
}

// IsIRI reports whether t is an IRI.
func (t Term) IsIRI() bool { return t.Kind == KindIRI }

// IsBlank reports whether t is a blank node.
func (t Term) IsBlank() bool { return t.Kind == KindBlank }

// IsLiteral reports whether t is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// String returns the N-Triples form of the term.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + EscapeIRI(t.Value) + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := `"` + EscapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return ""
	}
}

// Triple is a single statement. Subject is an IRI or blank node, Predicate is
// an IRI.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// NewTriple builds a triple.
func NewTriple(s, p, o Term) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}

// String returns the N-Triples line for t, without the trailing newline.
func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}

// EscapeIRI escapes the characters that may not appear inside <...> as
// \uXXXX sequences.
func EscapeIRI(iri string) string {
	if !strings.ContainsFunc(iri, needsIRIEscape) {
		return iri
	}
	var sb strings.Builder
	for _, r := range iri {
		if needsIRIEscape(r) {
			fmt.Fprintf(&sb, `\u%04X`, r)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func needsIRIEscape(r rune) bool {
	return r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r)
}

// EscapeLiteral escapes a lexical form for a double-quoted Turtle or
// N-Triples string.
func EscapeLiteral(s string) string {
	if !strings.ContainsAny(s, "\\\"\n\r\t\b\f") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
