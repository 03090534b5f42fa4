package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/c360studio/semview/graph"
	"github.com/c360studio/semview/vocabulary/rdf"
)

// Document is the result of parsing one Turtle or N-Triples source.
type Document struct {
	Triples  []graph.Triple
	Prefixes *graph.Prefixes
	Base     string
}

// TurtleParser parses Turtle documents. N-Triples documents are a subset of
// Turtle and are handled by the same parser.
type TurtleParser struct {
	// Base resolves relative IRIs until the document declares its own base.
	Base string
}

// NewTurtleParser creates a Turtle parser without a default base IRI.
func NewTurtleParser() *TurtleParser {
	return &TurtleParser{}
}

// Parse decodes content and builds an immutable Store. Any syntax error
// rejects the whole document.
func (p *TurtleParser) Parse(filename string, content []byte) (*graph.Store, error) {
	doc, err := ParseTurtle(DecodeText(content), p.Base)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return graph.NewStore(doc.Triples, doc.Prefixes), nil
}

// CanParse returns true for Turtle and N-Triples MIME types.
func (p *TurtleParser) CanParse(mimeType string) bool {
	switch mimeType {
	case "text/turtle", "application/x-turtle", "application/n-triples", "text/plain":
		return true
	}
	return false
}

// MimeType returns the primary MIME type.
func (p *TurtleParser) MimeType() string {
	return "text/turtle"
}

// ParseTurtle parses src. base may be empty.
func ParseTurtle(src, base string) (*Document, error) {
	d := &turtleDecoder{
		src:       strings.TrimPrefix(src, "\ufeff"),
		line:      1,
		col:       1,
		prefixes:  graph.NewPrefixes(nil),
		blankMap:  make(map[string]string),
		generated: make(map[string]bool),
	}
	if base != "" {
		if err := d.setBase(base); err != nil {
			return nil, err
		}
	}
	if err := d.parse(); err != nil {
		return nil, err
	}
	doc := &Document{Triples: d.out, Prefixes: d.prefixes}
	if d.base != nil {
		doc.Base = d.base.String()
	}
	return doc, nil
}

const eof rune = -1

// localEscapes are the characters allowed after a backslash in a local name.
const localEscapes = "_~.-!$&'()*+,;=/?#@%"

var absoluteIRI = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*:`)

type turtleDecoder struct {
	src       string
	pos       int
	line, col int

	base     *url.URL
	prefixes *graph.Prefixes
	out      []graph.Triple

	// blankMap maps document labels to stored labels; generated holds the
	// labels minted for [] and collections so document labels never collide
	// with them.
	blankMap  map[string]string
	generated map[string]bool
	blankSeq  int
}

type mark struct{ pos, line, col int }

func (d *turtleDecoder) mark() mark   { return mark{d.pos, d.line, d.col} }
func (d *turtleDecoder) reset(m mark) { d.pos, d.line, d.col = m.pos, m.line, m.col }
func (d *turtleDecoder) atEOF() bool  { return d.pos >= len(d.src) }
func (d *turtleDecoder) peek() rune   { return d.peekAt(0) }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
func isHex(r rune) bool   { return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') }
func isAlpha(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }

func (d *turtleDecoder) emit(s, p, o graph.Term) {
	d.out = append(d.out, graph.NewTriple(s, p, o))
}

func (d *turtleDecoder) peekAt(n int) rune {
	pos := d.pos
	for {
		if pos >= len(d.src) {
			return eof
		}
		r, size := utf8.DecodeRuneInString(d.src[pos:])
		if n == 0 {
			return r
		}
		pos += size
		n--
	}
}

func (d *turtleDecoder) next() rune {
	if d.atEOF() {
		return eof
	}
	r, size := utf8.DecodeRuneInString(d.src[d.pos:])
	d.pos += size
	if r == '\n' {
		d.line++
		d.col = 1
	} else {
		d.col++
	}
	return r
}

func (d *turtleDecoder) errorf(format string, args ...any) error {
	return &SyntaxError{Line: d.line, Column: d.col, Msg: fmt.Sprintf(format, args...)}
}

func (d *turtleDecoder) errorAt(m mark, format string, args ...any) error {
	return &SyntaxError{Line: m.line, Column: m.col, Msg: fmt.Sprintf(format, args...)}
}

func describe(r rune) string {
	if r == eof {
		return "end of input"
	}
	return strconv.QuoteRune(r)
}

func (d *turtleDecoder) skipWS() {
	for {
		r := d.peek()
		switch {
		case isSpace(r):
			d.next()
		case r == '#':
			for r := d.peek(); r != eof && r != '\n'; r = d.peek() {
				d.next()
			}
		default:
			return
		}
	}
}

func (d *turtleDecoder) expect(want rune) error {
	d.skipWS()
	if r := d.peek(); r != want {
		return d.errorf("expected %q, found %s", want, describe(r))
	}
	d.next()
	return nil
}

func (d *turtleDecoder) parse() error {
	for {
		d.skipWS()
		if d.atEOF() {
			return nil
		}
		if err := d.statement(); err != nil {
			return err
		}
	}
}

func (d *turtleDecoder) statement() error {
	if d.peek() == '@' {
		m := d.mark()
		d.next()
		switch word := d.readWord(); word {
		case "prefix":
			if err := d.prefixDirective(); err != nil {
				return err
			}
		case "base":
			if err := d.baseDirective(); err != nil {
				return err
			}
		default:
			return d.errorAt(m, "unknown directive @%s", word)
		}
		return d.expect('.')
	}

	// SPARQL-style PREFIX and BASE take no trailing dot.
	m := d.mark()
	word := strings.ToUpper(d.readWord())
	if (word == "PREFIX" || word == "BASE") && isSpace(d.peek()) {
		if word == "PREFIX" {
			return d.prefixDirective()
		}
		return d.baseDirective()
	}
	d.reset(m)

	return d.triples()
}

func (d *turtleDecoder) readWord() string {
	start := d.pos
	for isAlpha(d.peek()) {
		d.next()
	}
	return d.src[start:d.pos]
}

func (d *turtleDecoder) prefixDirective() error {
	d.skipWS()
	name := ""
	if d.peek() != ':' {
		name = d.readPNPrefix()
		if name == "" {
			return d.errorf("expected prefix name, found %s", describe(d.peek()))
		}
	}
	if err := d.expect(':'); err != nil {
		return err
	}
	d.skipWS()
	iri, err := d.readIRIRef()
	if err != nil {
		return err
	}
	d.prefixes.Set(name, iri)
	return nil
}

func (d *turtleDecoder) baseDirective() error {
	d.skipWS()
	m := d.mark()
	iri, err := d.readIRIRef()
	if err != nil {
		return err
	}
	if err := d.setBase(iri); err != nil {
		return d.errorAt(m, "invalid base IRI %q", iri)
	}
	return nil
}

func (d *turtleDecoder) setBase(iri string) error {
	u, err := url.Parse(iri)
	if err != nil {
		return &SyntaxError{Line: d.line, Column: d.col, Msg: fmt.Sprintf("invalid base IRI %q", iri)}
	}
	d.base = u
	return nil
}

func (d *turtleDecoder) resolve(iri string) string {
	if d.base == nil || absoluteIRI.MatchString(iri) {
		return iri
	}
	// net/url drops an empty fragment, which matters for namespace IRIs
	suffix := ""
	if strings.HasSuffix(iri, "#") {
		iri, suffix = strings.TrimSuffix(iri, "#"), "#"
	}
	ref, err := url.Parse(iri)
	if err != nil {
		return iri + suffix
	}
	resolved := *d.base.ResolveReference(ref)
	if suffix != "" {
		resolved.Fragment, resolved.RawFragment = "", ""
	}
	return resolved.String() + suffix
}

func (d *turtleDecoder) triples() error {
	d.skipWS()
	if d.peek() == '[' {
		subj, anon, err := d.blankNodePropertyList()
		if err != nil {
			return err
		}
		d.skipWS()
		if d.peek() == '.' && !anon {
			d.next()
			return nil
		}
		if err := d.predicateObjectList(subj); err != nil {
			return err
		}
		return d.expect('.')
	}

	subj, err := d.subject()
	if err != nil {
		return err
	}
	if err := d.predicateObjectList(subj); err != nil {
		return err
	}
	return d.expect('.')
}

func (d *turtleDecoder) subject() (graph.Term, error) {
	switch r := d.peek(); {
	case r == '<':
		iri, err := d.readIRIRef()
		return graph.IRI(iri), err
	case r == '_' && d.peekAt(1) == ':':
		return d.readBlankLabel()
	case r == '(':
		return d.collection()
	case r == '"' || r == '\'' || isDigit(r) || r == '+' || r == '-':
		return graph.Term{}, d.errorf("literal %s cannot be a subject", describe(r))
	default:
		m := d.mark()
		t, keyword, err := d.readPNameOrKeyword()
		if err != nil {
			return graph.Term{}, err
		}
		if keyword != "" {
			return graph.Term{}, d.errorAt(m, "unexpected %q", keyword)
		}
		return t, nil
	}
}

func (d *turtleDecoder) predicateObjectList(subj graph.Term) error {
	for {
		d.skipWS()
		pred, err := d.verb()
		if err != nil {
			return err
		}
		for {
			d.skipWS()
			obj, err := d.object()
			if err != nil {
				return err
			}
			d.emit(subj, pred, obj)
			d.skipWS()
			if d.peek() != ',' {
				break
			}
			d.next()
		}

		if d.peek() != ';' {
			return nil
		}
		for d.peek() == ';' {
			d.next()
			d.skipWS()
		}
		if r := d.peek(); r == '.' || r == ']' || r == eof {
			return nil
		}
	}
}

func (d *turtleDecoder) verb() (graph.Term, error) {
	if d.peek() == '<' {
		iri, err := d.readIRIRef()
		return graph.IRI(iri), err
	}
	m := d.mark()
	t, keyword, err := d.readPNameOrKeyword()
	if err != nil {
		return graph.Term{}, err
	}
	switch keyword {
	case "":
		return t, nil
	case "a":
		return graph.IRI(rdf.Type), nil
	default:
		return graph.Term{}, d.errorAt(m, "expected predicate, found %q", keyword)
	}
}

func (d *turtleDecoder) object() (graph.Term, error) {
	switch r := d.peek(); {
	case r == '<':
		iri, err := d.readIRIRef()
		return graph.IRI(iri), err
	case r == '_' && d.peekAt(1) == ':':
		return d.readBlankLabel()
	case r == '[':
		t, _, err := d.blankNodePropertyList()
		return t, err
	case r == '(':
		return d.collection()
	case r == '"' || r == '\'':
		return d.literal()
	case isDigit(r) || r == '+' || r == '-' || (r == '.' && isDigit(d.peekAt(1))):
		return d.numeric()
	case r == eof:
		return graph.Term{}, d.errorf("expected object, found end of input")
	default:
		m := d.mark()
		t, keyword, err := d.readPNameOrKeyword()
		if err != nil {
			return graph.Term{}, err
		}
		switch keyword {
		case "":
			return t, nil
		case "true", "false":
			return graph.TypedLiteral(keyword, rdf.XSDBoolean), nil
		default:
			return graph.Term{}, d.errorAt(m, "expected object, found %q", keyword)
		}
	}
}

func (d *turtleDecoder) blankNodePropertyList() (graph.Term, bool, error) {
	d.next() // '['
	d.skipWS()
	b := graph.Blank(d.freshBlank())
	if d.peek() == ']' {
		d.next()
		return b, true, nil
	}
	if err := d.predicateObjectList(b); err != nil {
		return graph.Term{}, false, err
	}
	if err := d.expect(']'); err != nil {
		return graph.Term{}, false, err
	}
	return b, false, nil
}

func (d *turtleDecoder) collection() (graph.Term, error) {
	d.next() // '('
	var items []graph.Term
	for {
		d.skipWS()
		if d.peek() == ')' {
			d.next()
			break
		}
		item, err := d.object()
		if err != nil {
			return graph.Term{}, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return graph.IRI(rdf.Nil), nil
	}

	first, rest := graph.IRI(rdf.First), graph.IRI(rdf.Rest)
	head := graph.Blank(d.freshBlank())
	cell := head
	for i, item := range items {
		d.emit(cell, first, item)
		if i == len(items)-1 {
			d.emit(cell, rest, graph.IRI(rdf.Nil))
			break
		}
		nextCell := graph.Blank(d.freshBlank())
		d.emit(cell, rest, nextCell)
		cell = nextCell
	}
	return head, nil
}

func (d *turtleDecoder) freshBlank() string {
	for {
		d.blankSeq++
		label := "genid" + strconv.Itoa(d.blankSeq)
		if _, used := d.blankMap[label]; used {
			continue
		}
		d.generated[label] = true
		return label
	}
}

func (d *turtleDecoder) readBlankLabel() (graph.Term, error) {
	d.next() // '_'
	d.next() // ':'
	start := d.pos
	r := d.peek()
	if !graph.IsNameStartChar(r) && !isDigit(r) {
		return graph.Term{}, d.errorf("invalid blank node label start %s", describe(r))
	}
	d.next()
	d.consumeNameChars()
	label := d.src[start:d.pos]

	stored, ok := d.blankMap[label]
	if !ok {
		stored = label
		if d.generated[label] {
			stored = d.freshBlank()
		}
		d.blankMap[label] = stored
	}
	return graph.Blank(stored), nil
}

// consumeNameChars reads (PN_CHARS | '.')* without a trailing dot.
func (d *turtleDecoder) consumeNameChars() {
	for {
		r := d.peek()
		if graph.IsNameChar(r) {
			d.next()
			continue
		}
		if r == '.' {
			n := 1
			for d.peekAt(n) == '.' {
				n++
			}
			if graph.IsNameChar(d.peekAt(n)) {
				for ; n > 0; n-- {
					d.next()
				}
				continue
			}
		}
		return
	}
}

func (d *turtleDecoder) readPNPrefix() string {
	if !graph.IsNameBaseChar(d.peek()) {
		return ""
	}
	start := d.pos
	d.next()
	d.consumeNameChars()
	return d.src[start:d.pos]
}

// readPNameOrKeyword reads a prefixed name and resolves it, or returns the
// bare word when no colon follows it.
func (d *turtleDecoder) readPNameOrKeyword() (graph.Term, string, error) {
	m := d.mark()
	prefix := ""
	if d.peek() != ':' {
		prefix = d.readPNPrefix()
		if prefix == "" {
			return graph.Term{}, "", d.errorf("unexpected %s", describe(d.peek()))
		}
	}
	if d.peek() != ':' {
		return graph.Term{}, prefix, nil
	}
	d.next()

	local, err := d.readPNLocal()
	if err != nil {
		return graph.Term{}, "", err
	}
	ns, ok := d.prefixes.Namespace(prefix)
	if !ok {
		return graph.Term{}, "", d.errorAt(m, "undefined prefix %q", prefix)
	}
	return graph.IRI(ns + local), "", nil
}

func (d *turtleDecoder) readPNLocal() (string, error) {
	var sb strings.Builder
	first := true
	for {
		r := d.peek()
		switch {
		case r == '%':
			d.next()
			h1, h2 := d.next(), d.next()
			if !isHex(h1) || !isHex(h2) {
				return "", d.errorf("invalid percent encoding in local name")
			}
			sb.WriteRune('%')
			sb.WriteRune(h1)
			sb.WriteRune(h2)
		case r == '\\':
			d.next()
			c := d.next()
			if !strings.ContainsRune(localEscapes, c) {
				return "", d.errorf("invalid escape \\%s in local name", string(c))
			}
			sb.WriteRune(c)
		case r == ':' || graph.IsNameStartChar(r) || isDigit(r) || (!first && graph.IsNameChar(r)):
			sb.WriteRune(d.next())
		case r == '.' && !first:
			n := 1
			for d.peekAt(n) == '.' {
				n++
			}
			after := d.peekAt(n)
			if after != ':' && after != '%' && after != '\\' && !graph.IsNameChar(after) {
				return sb.String(), nil
			}
			for ; n > 0; n-- {
				sb.WriteRune(d.next())
			}
		default:
			return sb.String(), nil
		}
		first = false
	}
}

func (d *turtleDecoder) readIRIRef() (string, error) {
	if d.peek() != '<' {
		return "", d.errorf("expected IRI, found %s", describe(d.peek()))
	}
	d.next()
	var sb strings.Builder
	for {
		r := d.next()
		switch {
		case r == '>':
			return d.resolve(sb.String()), nil
		case r == eof:
			return "", d.errorf("unterminated IRI")
		case r == '\\':
			u, err := d.readUCHAR()
			if err != nil {
				return "", err
			}
			sb.WriteRune(u)
		case r <= 0x20 || strings.ContainsRune("<\"{}|^`", r):
			return "", d.errorf("invalid character %s in IRI", describe(r))
		default:
			sb.WriteRune(r)
		}
	}
}

// readUCHAR reads the remainder of a \u or \U escape after the backslash.
func (d *turtleDecoder) readUCHAR() (rune, error) {
	n := 0
	switch d.next() {
	case 'u':
		n = 4
	case 'U':
		n = 8
	default:
		return 0, d.errorf("invalid escape sequence")
	}
	var hex strings.Builder
	for i := 0; i < n; i++ {
		r := d.next()
		if !isHex(r) {
			return 0, d.errorf("invalid unicode escape")
		}
		hex.WriteRune(r)
	}
	v, err := strconv.ParseUint(hex.String(), 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, d.errorf("invalid unicode code point \\%s", hex.String())
	}
	return rune(v), nil
}

func (d *turtleDecoder) literal() (graph.Term, error) {
	lex, err := d.readString()
	if err != nil {
		return graph.Term{}, err
	}
	switch {
	case d.peek() == '@':
		d.next()
		lang, err := d.readLangTag()
		if err != nil {
			return graph.Term{}, err
		}
		return graph.LangLiteral(lex, lang), nil
	case d.peek() == '^' && d.peekAt(1) == '^':
		d.next()
		d.next()
		if d.peek() == '<' {
			dt, err := d.readIRIRef()
			if err != nil {
				return graph.Term{}, err
			}
			return graph.TypedLiteral(lex, dt), nil
		}
		m := d.mark()
		dt, keyword, err := d.readPNameOrKeyword()
		if err != nil {
			return graph.Term{}, err
		}
		if keyword != "" {
			return graph.Term{}, d.errorAt(m, "expected datatype IRI, found %q", keyword)
		}
		return graph.TypedLiteral(lex, dt.Value), nil
	default:
		return graph.Literal(lex), nil
	}
}

func (d *turtleDecoder) readLangTag() (string, error) {
	start := d.pos
	if !isAlpha(d.peek()) {
		return "", d.errorf("invalid language tag")
	}
	for isAlpha(d.peek()) {
		d.next()
	}
	for d.peek() == '-' {
		d.next()
		if r := d.peek(); !isAlpha(r) && !isDigit(r) {
			return "", d.errorf("invalid language tag")
		}
		for r := d.peek(); isAlpha(r) || isDigit(r); r = d.peek() {
			d.next()
		}
	}
	return d.src[start:d.pos], nil
}

func (d *turtleDecoder) readString() (string, error) {
	q := d.next()
	long := false
	if d.peek() == q {
		if d.peekAt(1) != q {
			d.next()
			return "", nil
		}
		d.next()
		d.next()
		long = true
	}

	var sb strings.Builder
	for {
		r := d.peek()
		switch {
		case r == eof:
			return "", d.errorf("unterminated string literal")
		case r == q && !long:
			d.next()
			return sb.String(), nil
		case r == q:
			// a run of three or more quotes closes the literal; any extra
			// leading quotes belong to the content
			run := 0
			for d.peekAt(run) == q {
				run++
			}
			if run < 3 {
				for ; run > 0; run-- {
					sb.WriteRune(d.next())
				}
				continue
			}
			for ; run > 3; run-- {
				sb.WriteRune(d.next())
			}
			d.next()
			d.next()
			d.next()
			return sb.String(), nil
		case (r == '\n' || r == '\r') && !long:
			return "", d.errorf("newline in string literal")
		case r == '\\':
			d.next()
			c, err := d.readECHAR()
			if err != nil {
				return "", err
			}
			sb.WriteRune(c)
		default:
			sb.WriteRune(d.next())
		}
	}
}

func (d *turtleDecoder) readECHAR() (rune, error) {
	switch r := d.peek(); r {
	case 't':
		d.next()
		return '\t', nil
	case 'b':
		d.next()
		return '\b', nil
	case 'n':
		d.next()
		return '\n', nil
	case 'r':
		d.next()
		return '\r', nil
	case 'f':
		d.next()
		return '\f', nil
	case '"', '\'', '\\':
		d.next()
		return r, nil
	case 'u', 'U':
		return d.readUCHAR()
	default:
		return 0, d.errorf("invalid escape \\%s", describe(r))
	}
}

func (d *turtleDecoder) numeric() (graph.Term, error) {
	start := d.pos
	if r := d.peek(); r == '+' || r == '-' {
		d.next()
	}
	digits := 0
	for isDigit(d.peek()) {
		d.next()
		digits++
	}

	datatype := rdf.XSDInteger
	if d.peek() == '.' && (isDigit(d.peekAt(1)) || (digits > 0 && isExponent(d.peekAt(1)))) {
		d.next()
		for isDigit(d.peek()) {
			d.next()
			digits++
		}
		datatype = rdf.XSDDecimal
	}
	if digits == 0 {
		return graph.Term{}, d.errorf("invalid numeric literal")
	}
	if isExponent(d.peek()) {
		d.next()
		if r := d.peek(); r == '+' || r == '-' {
			d.next()
		}
		if !isDigit(d.peek()) {
			return graph.Term{}, d.errorf("invalid exponent in numeric literal")
		}
		for isDigit(d.peek()) {
			d.next()
		}
		datatype = rdf.XSDDouble
	}
	return graph.TypedLiteral(d.src[start:d.pos], datatype), nil
}

func isExponent(r rune) bool { return r == 'e' || r == 'E' }
