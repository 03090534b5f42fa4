package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semview/graph"
	"github.com/c360studio/semview/vocabulary/rdf"
)

const ax = "http://example.org/axiology#"

const policyDoc = `@prefix : <http://example.org/axiology#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .

# policies
:Policy a owl:Class ;
    rdfs:label "Политика"@ru .

:A a :Policy ;
    rdfs:label "Пример А"@ru ;
    :relatesTo :B .

:B a :Policy .
`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseTurtle(src, "")
	require.NoError(t, err)
	return doc
}

func TestParseTurtle_ExampleScenario(t *testing.T) {
	doc := mustParse(t, policyDoc)

	want := []graph.Triple{
		graph.NewTriple(graph.IRI(ax+"Policy"), graph.IRI(rdf.Type), graph.IRI(rdf.OWLClass)),
		graph.NewTriple(graph.IRI(ax+"Policy"), graph.IRI(rdf.Label), graph.LangLiteral("Политика", "ru")),
		graph.NewTriple(graph.IRI(ax+"A"), graph.IRI(rdf.Type), graph.IRI(ax+"Policy")),
		graph.NewTriple(graph.IRI(ax+"A"), graph.IRI(rdf.Label), graph.LangLiteral("Пример А", "ru")),
		graph.NewTriple(graph.IRI(ax+"A"), graph.IRI(ax+"relatesTo"), graph.IRI(ax+"B")),
		graph.NewTriple(graph.IRI(ax+"B"), graph.IRI(rdf.Type), graph.IRI(ax+"Policy")),
	}
	assert.Equal(t, want, doc.Triples)

	ns, ok := doc.Prefixes.Namespace("")
	require.True(t, ok)
	assert.Equal(t, ax, ns)
	assert.Equal(t, []string{"", "owl", "rdfs"}, doc.Prefixes.Names())
}

func TestParseTurtle_ObjectLists(t *testing.T) {
	doc := mustParse(t, `@prefix ex: <http://example.org/> .
ex:s ex:p ex:o1 , ex:o2 ;
     ex:q ex:o3 ;
     .`)
	require.Len(t, doc.Triples, 3)
	assert.Equal(t, "http://example.org/o2", doc.Triples[1].Object.Value)
	assert.Equal(t, "http://example.org/q", doc.Triples[2].Predicate.Value)
}

func TestParseTurtle_Literals(t *testing.T) {
	doc := mustParse(t, `@prefix ex: <http://example.org/> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
ex:s ex:plain "a \"quoted\"\ttab" ;
  ex:empty "" ;
  ex:long """line one
line "two"""" ;
  ex:longSingle '''x'y''' ;
  ex:lang "hello"@en-GB ;
  ex:typed "2024-01-01"^^xsd:date ;
  ex:typedIRI "v"^^<http://example.org/dt> ;
  ex:int -42 ;
  ex:dec 3.14 ;
  ex:dbl 1.5e3 ;
  ex:dbl2 4E-2 ;
  ex:yes true ;
  ex:no false ;
  ex:uni "é\U0001F600" .`)

	byPred := make(map[string]graph.Term)
	for _, tr := range doc.Triples {
		byPred[tr.Predicate.Value[len("http://example.org/"):]] = tr.Object
	}

	tests := []struct {
		pred string
		want graph.Term
	}{
		{"plain", graph.Literal("a \"quoted\"\ttab")},
		{"empty", graph.Literal("")},
		{"long", graph.Literal("line one\nline \"two\"")},
		{"longSingle", graph.Literal("x'y")},
		{"lang", graph.LangLiteral("hello", "en-GB")},
		{"typed", graph.TypedLiteral("2024-01-01", "http://www.w3.org/2001/XMLSchema#date")},
		{"typedIRI", graph.TypedLiteral("v", "http://example.org/dt")},
		{"int", graph.TypedLiteral("-42", rdf.XSDInteger)},
		{"dec", graph.TypedLiteral("3.14", rdf.XSDDecimal)},
		{"dbl", graph.TypedLiteral("1.5e3", rdf.XSDDouble)},
		{"dbl2", graph.TypedLiteral("4E-2", rdf.XSDDouble)},
		{"yes", graph.TypedLiteral("true", rdf.XSDBoolean)},
		{"no", graph.TypedLiteral("false", rdf.XSDBoolean)},
		{"uni", graph.Literal("é😀")},
	}
	for _, tt := range tests {
		t.Run(tt.pred, func(t *testing.T) {
			assert.Equal(t, tt.want, byPred[tt.pred])
		})
	}
}

func TestParseTurtle_SingleQuoteAdjacent(t *testing.T) {
	// 'it''s' is two adjacent literals, which is a syntax error
	_, err := ParseTurtle(`<urn:s> <urn:p> 'it''s' .`, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntax))
}

func TestParseTurtle_IntegerBeforeDot(t *testing.T) {
	doc := mustParse(t, `<urn:s> <urn:p> 5.`)
	require.Len(t, doc.Triples, 1)
	assert.Equal(t, graph.TypedLiteral("5", rdf.XSDInteger), doc.Triples[0].Object)
}

func TestParseTurtle_BlankNodes(t *testing.T) {
	doc := mustParse(t, `@prefix ex: <http://example.org/> .
ex:s ex:p [ ex:q "inner" ] .
_:x ex:r ex:s .
[ ex:t ex:u ] .
[] ex:v _:x .`)
	require.Len(t, doc.Triples, 5)

	inner := doc.Triples[0]
	assert.True(t, inner.Subject.IsBlank())
	assert.Equal(t, "http://example.org/q", inner.Predicate.Value)
	assert.Equal(t, inner.Subject, doc.Triples[1].Object, "property list node links to its subject")

	assert.Equal(t, graph.Blank("x"), doc.Triples[2].Subject)
	assert.True(t, doc.Triples[3].Subject.IsBlank())
	assert.Equal(t, graph.Blank("x"), doc.Triples[4].Object, "labels are document scoped")
}

func TestParseTurtle_BlankLabelsNeverCollide(t *testing.T) {
	doc := mustParse(t, `<urn:s> <urn:p> [] .
<urn:s> <urn:q> _:genid1 .`)
	require.Len(t, doc.Triples, 2)
	assert.NotEqual(t, doc.Triples[0].Object, doc.Triples[1].Object)
}

func TestParseTurtle_Collection(t *testing.T) {
	doc := mustParse(t, `@prefix ex: <http://example.org/> .
ex:s ex:list ( ex:a "b" ) ;
     ex:none () .`)

	// head rdf:first a, head rdf:rest n2, n2 first b, n2 rest nil, s list head, s none nil
	require.Len(t, doc.Triples, 6)
	store := graph.NewStore(doc.Triples, doc.Prefixes)

	heads := store.Objects(graph.IRI("http://example.org/s"), "http://example.org/list")
	require.Len(t, heads, 1)
	head := heads[0]
	assert.True(t, head.IsBlank())
	assert.Equal(t, []graph.Term{graph.IRI("http://example.org/a")}, store.Objects(head, rdf.First))

	rest := store.Objects(head, rdf.Rest)
	require.Len(t, rest, 1)
	assert.Equal(t, []graph.Term{graph.Literal("b")}, store.Objects(rest[0], rdf.First))
	assert.Equal(t, []graph.Term{graph.IRI(rdf.Nil)}, store.Objects(rest[0], rdf.Rest))

	assert.Equal(t, []graph.Term{graph.IRI(rdf.Nil)},
		store.Objects(graph.IRI("http://example.org/s"), "http://example.org/none"))
}

func TestParseTurtle_BaseAndSparqlDirectives(t *testing.T) {
	doc := mustParse(t, `BASE <http://example.org/base/>
PREFIX ex: <vocab#>
<thing> ex:p <#frag> .
@base <http://other.org/> .
<x> ex:p <http://abs.org/y> .`)

	require.Len(t, doc.Triples, 2)
	assert.Equal(t, "http://example.org/base/thing", doc.Triples[0].Subject.Value)
	assert.Equal(t, "http://example.org/base/vocab#p", doc.Triples[0].Predicate.Value)
	assert.Equal(t, "http://example.org/base/#frag", doc.Triples[0].Object.Value)
	assert.Equal(t, "http://other.org/x", doc.Triples[1].Subject.Value)
	assert.Equal(t, "http://abs.org/y", doc.Triples[1].Object.Value)
}

func TestParseTurtle_DefaultBase(t *testing.T) {
	doc, err := ParseTurtle(`<a> <b> <c> .`, "http://example.org/")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/a", doc.Triples[0].Subject.Value)
	assert.Equal(t, "http://example.org/", doc.Base)
}

func TestParseTurtle_LocalNames(t *testing.T) {
	doc := mustParse(t, `@prefix ex: <http://example.org/> .
ex:a.b ex:with\/slash ex:pct%20x .
ex:123 ex:p ex: .`)

	require.Len(t, doc.Triples, 2)
	assert.Equal(t, "http://example.org/a.b", doc.Triples[0].Subject.Value)
	assert.Equal(t, "http://example.org/with/slash", doc.Triples[0].Predicate.Value)
	assert.Equal(t, "http://example.org/pct%20x", doc.Triples[0].Object.Value)
	assert.Equal(t, "http://example.org/123", doc.Triples[1].Subject.Value)
	assert.Equal(t, "http://example.org/", doc.Triples[1].Object.Value)
}

func TestParseTurtle_NTriples(t *testing.T) {
	doc := mustParse(t, `<http://example.org/s> <http://example.org/p> "v"@ru .
<http://example.org/s> <http://example.org/p> _:b0 .
_:b0 <http://example.org/p> "1"^^<http://www.w3.org/2001/XMLSchema#integer> .
`)
	require.Len(t, doc.Triples, 3)
	assert.Equal(t, graph.LangLiteral("v", "ru"), doc.Triples[0].Object)
	assert.Equal(t, graph.Blank("b0"), doc.Triples[2].Subject)
	assert.Equal(t, 0, doc.Prefixes.Len())
}

func TestParseTurtle_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"missing dot", `<urn:s> <urn:p> <urn:o>`, "expected '.'"},
		{"undefined prefix", `ex:s ex:p ex:o .`, `undefined prefix "ex"`},
		{"unterminated string", `<urn:s> <urn:p> "abc .`, "unterminated string literal"},
		{"unterminated IRI", `<urn:s> <urn:p> <urn:o`, "unterminated IRI"},
		{"literal subject", `"x" <urn:p> <urn:o> .`, "cannot be a subject"},
		{"literal predicate", `<urn:s> "p" <urn:o> .`, "unexpected"},
		{"unknown directive", `@foo <urn:x> .`, "unknown directive @foo"},
		{"newline in short string", "<urn:s> <urn:p> \"a\nb\" .", "newline in string literal"},
		{"bad escape", `<urn:s> <urn:p> "a\qb" .`, "invalid escape"},
		{"space in IRI", `<urn:s x> <urn:p> <urn:o> .`, "invalid character"},
		{"unclosed list", `<urn:s> <urn:p> [ <urn:q> <urn:o> .`, "expected ']'"},
		{"keyword object", `<urn:s> <urn:p> maybe .`, `expected object, found "maybe"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseTurtle(tt.src, "")
			require.Error(t, err)
			assert.Nil(t, doc, "no partial document")
			assert.True(t, errors.Is(err, ErrSyntax))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseTurtle_ErrorPosition(t *testing.T) {
	_, err := ParseTurtle("<urn:s> <urn:p> <urn:o> .\nex:a <urn:p> <urn:o> .", "")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Line)
	assert.Equal(t, 1, se.Column)
}

func TestTurtleParser_Parse(t *testing.T) {
	p := NewTurtleParser()

	store, err := p.Parse("policy.ttl", []byte(policyDoc))
	require.NoError(t, err)
	assert.Equal(t, 6, store.Len())
	assert.True(t, store.HasType(ax+"A", ax+"Policy"))

	_, err = p.Parse("broken.ttl", []byte("<urn:s> ."))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse broken.ttl")
	assert.True(t, errors.Is(err, ErrSyntax))
}

func TestTurtleParser_Latin1Fallback(t *testing.T) {
	// "café" encoded as ISO-8859-1 is not valid UTF-8
	src := append([]byte(`<urn:s> <urn:p> "caf`), 0xE9)
	src = append(src, []byte(`" .`)...)

	store, err := NewTurtleParser().Parse("latin1.nt", src)
	require.NoError(t, err)
	objs := store.Objects(graph.IRI("urn:s"), "urn:p")
	require.Len(t, objs, 1)
	assert.Equal(t, "café", objs[0].Value)
}

func TestDecodeText_UTF8Unchanged(t *testing.T) {
	assert.Equal(t, "Политика", DecodeText([]byte("Политика")))
}

func TestParseTurtle_ByteOrderMark(t *testing.T) {
	doc := mustParse(t, "\ufeff<urn:s> <urn:p> <urn:o> .")
	assert.Len(t, doc.Triples, 1)
}
