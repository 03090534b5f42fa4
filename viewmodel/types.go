// Package viewmodel turns a classified graph into a filtered, capped,
// deduplicated node/edge model and renders it for a network visualizer.
package viewmodel

import (
	"slices"

	"github.com/c360studio/semview/classifier"
)

// DefaultMaxNodes caps the node set when Options.MaxNodes is not positive.
const DefaultMaxNodes = 1200

// Filters restrict the view per category. Each field is a set of IRIs.
//
// With every filter empty all classes, properties and individuals are shown.
// Once any filter is set only the categories with a non-empty filter
// contribute nodes, each restricted to its own set.
type Filters struct {
	Classes     []string `json:"classes,omitempty"`
	Properties  []string `json:"properties,omitempty"`
	Individuals []string `json:"individuals,omitempty"`
}

// IsEmpty reports whether no filter restricts the view.
func (f Filters) IsEmpty() bool {
	return len(f.Classes) == 0 && len(f.Properties) == 0 && len(f.Individuals) == 0
}

// Options tune a build.
type Options struct {
	// MaxNodes caps the node set; <= 0 means DefaultMaxNodes.
	MaxNodes int

	// Selected is rendered enlarged. It does not affect the node set.
	Selected string

	// Query keeps only nodes whose label, comment, URI or qname contains it,
	// case-insensitively. Applied before the cap.
	Query string

	// Types, when non-empty, keeps only nodes whose tag is listed. Listing
	// Other implies IncludeOther.
	Types []classifier.TypeTag

	// IncludeOther adds Other-tagged nodes when no filter is set.
	IncludeOther bool

	// IncludeTypeEdges draws rdf:type statements as edges.
	IncludeTypeEdges bool
}

func (o Options) maxNodes() int {
	if o.MaxNodes <= 0 {
		return DefaultMaxNodes
	}
	return o.MaxNodes
}

func (o Options) includesOther() bool {
	return o.IncludeOther || slices.Contains(o.Types, classifier.Other)
}

func (o Options) allowsType(tag classifier.TypeTag) bool {
	return len(o.Types) == 0 || slices.Contains(o.Types, tag)
}

// NodeRecord is one URI node with its resolved display data.
type NodeRecord struct {
	URI     string             `json:"uri"`
	QName   string             `json:"qname"`
	Label   string             `json:"label"`
	Comment string             `json:"comment"`
	Type    classifier.TypeTag `json:"type"`
}

// EdgeRecord is one statement between two nodes of the view.
type EdgeRecord struct {
	Source         string `json:"source"`
	Predicate      string `json:"predicate"`
	Target         string `json:"target"`
	PredicateLabel string `json:"predicate_label"`
}

// ViewModel is the result of a build. Nodes are unique by URI and listed in
// truncation order.
type ViewModel struct {
	Nodes              []NodeRecord `json:"nodes"`
	Edges              []EdgeRecord `json:"edges"`
	NodeCountBeforeCap int          `json:"node_count_before_cap"`
	NodeCountAfterCap  int          `json:"node_count_after_cap"`
	Selected           string       `json:"selected,omitempty"`
}

// Truncated reports whether the cap dropped nodes.
func (vm ViewModel) Truncated() bool {
	return vm.NodeCountBeforeCap > vm.NodeCountAfterCap
}
