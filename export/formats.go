package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/semview/graph"
	"github.com/c360studio/semview/vocabulary/rdf"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format `json:"name"`

	// MIMEType is the standard MIME type.
	MIMEType string `json:"mime_type"`

	// Extension is the file extension (with dot).
	Extension string `json:"extension"`

	// Description describes the format.
	Description string `json:"description"`
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle - Terse RDF Triple Language",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
	FormatJSONLD: {
		Name:        FormatJSONLD,
		MIMEType:    "application/ld+json",
		Extension:   ".jsonld",
		Description: "JSON-LD - JSON for Linked Data (expanded form)",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// TurtleWriter accumulates triples and writes them grouped by subject, then
// by predicate.
type TurtleWriter struct {
	prefixes *graph.Prefixes
	used     map[string]bool

	subjects []graph.Term
	bySubj   map[graph.Term]*subjectBlock
}

type subjectBlock struct {
	predicates []graph.Term
	objects    map[graph.Term][]graph.Term
}

// NewTurtleWriter creates a Turtle writer that abbreviates with prefixes.
// A nil table writes full IRIs only.
func NewTurtleWriter(prefixes *graph.Prefixes) *TurtleWriter {
	if prefixes == nil {
		prefixes = graph.NewPrefixes(nil)
	}
	return &TurtleWriter{
		prefixes: prefixes,
		used:     make(map[string]bool),
		bySubj:   make(map[graph.Term]*subjectBlock),
	}
}

// Add queues a triple. Duplicates are written once.
func (w *TurtleWriter) Add(t graph.Triple) {
	block, ok := w.bySubj[t.Subject]
	if !ok {
		block = &subjectBlock{objects: make(map[graph.Term][]graph.Term)}
		w.bySubj[t.Subject] = block
		w.subjects = append(w.subjects, t.Subject)
	}
	objs, seen := block.objects[t.Predicate]
	if !seen {
		block.predicates = append(block.predicates, t.Predicate)
	}
	for _, o := range objs {
		if o == t.Object {
			return
		}
	}
	block.objects[t.Predicate] = append(objs, t.Object)
}

// String renders the prefix header and the statements.
func (w *TurtleWriter) String() string {
	var body strings.Builder
	for _, s := range w.subjects {
		block := w.bySubj[s]
		body.WriteString(w.term(s))
		body.WriteString("\n")
		for i, p := range block.predicates {
			pred := "a"
			if p.Value != rdf.Type {
				pred = w.term(p)
			}
			objs := make([]string, 0, len(block.objects[p]))
			for _, o := range block.objects[p] {
				objs = append(objs, w.term(o))
			}
			terminator := " ;"
			if i == len(block.predicates)-1 {
				terminator = " ."
			}
			body.WriteString(fmt.Sprintf("    %s %s%s\n", pred, strings.Join(objs, " , "), terminator))
		}
		body.WriteString("\n")
	}

	var sb strings.Builder
	w.writePrefixes(&sb)
	sb.WriteString(body.String())
	return sb.String()
}

// writePrefixes writes declarations for the prefixes used in the body.
func (w *TurtleWriter) writePrefixes(sb *strings.Builder) {
	keys := make([]string, 0, len(w.used))
	for k := range w.used {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, prefix := range keys {
		ns, _ := w.prefixes.Namespace(prefix)
		sb.WriteString(fmt.Sprintf("@prefix %s: <%s> .\n", prefix, graph.EscapeIRI(ns)))
	}
	if len(keys) > 0 {
		sb.WriteString("\n")
	}
}

func (w *TurtleWriter) term(t graph.Term) string {
	switch t.Kind {
	case graph.KindIRI:
		return w.iri(t.Value)
	case graph.KindLiteral:
		s := `"` + graph.EscapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^" + w.iri(t.Datatype)
		}
		return s
	default:
		return t.String()
	}
}

func (w *TurtleWriter) iri(iri string) string {
	if q, ok := w.prefixes.QName(iri); ok {
		w.used[q[:strings.IndexByte(q, ':')]] = true
		return q
	}
	return "<" + graph.EscapeIRI(iri) + ">"
}

// NTriplesWriter writes RDF in N-Triples format.
type NTriplesWriter struct {
	sb strings.Builder
}

// NewNTriplesWriter creates a new N-Triples writer.
func NewNTriplesWriter() *NTriplesWriter {
	return &NTriplesWriter{}
}

// WriteTriple writes a single triple.
func (w *NTriplesWriter) WriteTriple(t graph.Triple) {
	w.sb.WriteString(t.String())
	w.sb.WriteString("\n")
}

// String returns the accumulated N-Triples output.
func (w *NTriplesWriter) String() string {
	return w.sb.String()
}

// JSONLDNode is one subject of an expanded JSON-LD document.
type JSONLDNode struct {
	ID         string
	Properties map[string][]any
}

// MarshalJSON writes "@id" followed by the properties. encoding/json sorts
// map keys, so the output is stable.
func (n JSONLDNode) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Properties)+1)
	m["@id"] = n.ID
	for k, v := range n.Properties {
		m[k] = v
	}
	return json.Marshal(m)
}

// JSONLDWriter writes RDF as expanded JSON-LD. rdf:type statements become
// "@type" entries.
type JSONLDWriter struct {
	nodes []*JSONLDNode
	index map[string]*JSONLDNode
}

// NewJSONLDWriter creates a new JSON-LD writer.
func NewJSONLDWriter() *JSONLDWriter {
	return &JSONLDWriter{index: make(map[string]*JSONLDNode)}
}

// Add appends a triple to its subject's node.
func (w *JSONLDWriter) Add(t graph.Triple) {
	id := jsonldID(t.Subject)
	node, ok := w.index[id]
	if !ok {
		node = &JSONLDNode{ID: id, Properties: make(map[string][]any)}
		w.index[id] = node
		w.nodes = append(w.nodes, node)
	}

	key := t.Predicate.Value
	var value any
	if key == rdf.Type && !t.Object.IsLiteral() {
		key = "@type"
		value = jsonldID(t.Object)
	} else {
		value = jsonldValue(t.Object)
	}
	node.Properties[key] = append(node.Properties[key], value)
}

// String returns the JSON-LD output.
func (w *JSONLDWriter) String() (string, error) {
	nodes := make([]JSONLDNode, 0, len(w.nodes))
	for _, n := range w.nodes {
		nodes = append(nodes, *n)
	}
	data, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json-ld: %w", err)
	}
	return string(data) + "\n", nil
}

func jsonldID(t graph.Term) string {
	if t.IsBlank() {
		return "_:" + t.Value
	}
	return t.Value
}

func jsonldValue(t graph.Term) any {
	if !t.IsLiteral() {
		return map[string]string{"@id": jsonldID(t)}
	}
	v := map[string]string{"@value": t.Value}
	if t.Lang != "" {
		v["@language"] = t.Lang
	} else if t.Datatype != "" {
		v["@type"] = t.Datatype
	}
	return v
}
