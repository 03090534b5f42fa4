// Package export extracts the induced subgraph of a node selection and
// re-serializes it.
//
// The subgraph holds every statement whose subject or object is selected,
// whatever its predicate. Statements therefore reach nodes that were never
// selected: a selected individual exports the labels of its neighbours'
// links and the classes it is typed with. Callers surface OverInclusionNote
// alongside exported documents.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/c360studio/semview/graph"
)

// OverInclusionNote describes what an export may contain beyond the
// selection.
const OverInclusionNote = "includes every statement touching a selected node, so unselected neighbours and predicates appear"

// ErrUnsupportedFormat is returned for unknown format names.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"

	// FormatJSONLD produces expanded JSON-LD (.jsonld) output.
	FormatJSONLD Format = "jsonld"
)

// ParseFormat maps a user-supplied name or extension to a Format. The empty
// string selects Turtle.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "turtle", "ttl":
		return FormatTurtle, nil
	case "ntriples", "n-triples", "nt":
		return FormatNTriples, nil
	case "jsonld", "json-ld":
		return FormatJSONLD, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Subgraph returns, in store order, every triple whose subject or object is
// one of selected.
func Subgraph(store *graph.Store, selected []string) []graph.Triple {
	return store.Touching(selected)
}

// Result is one exported document.
type Result struct {
	Body    string
	Format  FormatInfo
	Triples int
}

// Filename returns base with the format's extension.
func (r Result) Filename(base string) string {
	return base + r.Format.Extension
}

// Exporter serializes subgraphs of one store.
type Exporter struct {
	store *graph.Store
}

// NewExporter creates an Exporter over store.
func NewExporter(store *graph.Store) *Exporter {
	return &Exporter{store: store}
}

// Export extracts the subgraph of selected and serializes it with the
// store's prefixes.
func (e *Exporter) Export(selected []string, format Format) (Result, error) {
	info, ok := GetFormatInfo(format)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	triples := Subgraph(e.store, selected)
	body, err := Serialize(triples, e.store.Prefixes(), format)
	if err != nil {
		return Result{}, err
	}
	return Result{Body: body, Format: info, Triples: len(triples)}, nil
}

// Serialize writes triples in format. Turtle output declares only the
// prefixes it uses.
func Serialize(triples []graph.Triple, prefixes *graph.Prefixes, format Format) (string, error) {
	switch format {
	case FormatTurtle:
		w := NewTurtleWriter(prefixes)
		for _, t := range triples {
			w.Add(t)
		}
		return w.String(), nil
	case FormatNTriples:
		w := NewNTriplesWriter()
		for _, t := range triples {
			w.WriteTriple(t)
		}
		return w.String(), nil
	case FormatJSONLD:
		w := NewJSONLDWriter()
		for _, t := range triples {
			w.Add(t)
		}
		return w.String()
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
