package viewmodel

import (
	"html"

	"github.com/c360studio/semview/classifier"
)

// Node sizes.
const (
	SizeDefault  = 12
	SizeSelected = 18
)

// Style is the visual encoding of a TypeTag.
type Style struct {
	Color string `json:"color"`
	Shape string `json:"shape"`
}

var styles = map[classifier.TypeTag]Style{
	classifier.Class:            {Color: "#2b8cbe", Shape: "ellipse"},
	classifier.NamedIndividual:  {Color: "#7b3294", Shape: "dot"},
	classifier.ObjectProperty:   {Color: "#d95f02", Shape: "diamond"},
	classifier.DatatypeProperty: {Color: "#1b9e77", Shape: "triangle"},
	classifier.GenericProperty:  {Color: "#e7298a", Shape: "square"},
	classifier.Other:            {Color: "#999999", Shape: "dot"},
}

// StyleOf returns the color and shape for tag.
func StyleOf(tag classifier.TypeTag) Style {
	if s, ok := styles[tag]; ok {
		return s
	}
	return styles[classifier.Other]
}

// RenderNode is a node in the shape network visualizers consume.
type RenderNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
	Color string `json:"color"`
	Shape string `json:"shape"`
	Size  int    `json:"size"`
	Group string `json:"group"`
}

// RenderEdge is a directed edge for the visualizer.
type RenderEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Label  string `json:"label"`
	Title  string `json:"title"`
	Arrows string `json:"arrows"`
}

// Render is the renderer payload for one view.
type Render struct {
	Nodes              []RenderNode `json:"nodes"`
	Edges              []RenderEdge `json:"edges"`
	NodeCountBeforeCap int          `json:"node_count_before_cap"`
	NodeCountAfterCap  int          `json:"node_count_after_cap"`
}

// Render converts the view model into renderer nodes and edges. Visual
// attributes depend only on each node's TypeTag and the selected IRI.
func (vm ViewModel) Render() Render {
	out := Render{
		Nodes:              make([]RenderNode, 0, len(vm.Nodes)),
		Edges:              make([]RenderEdge, 0, len(vm.Edges)),
		NodeCountBeforeCap: vm.NodeCountBeforeCap,
		NodeCountAfterCap:  vm.NodeCountAfterCap,
	}
	for _, n := range vm.Nodes {
		style := StyleOf(n.Type)
		size := SizeDefault
		if vm.Selected != "" && n.URI == vm.Selected {
			size = SizeSelected
		}
		out.Nodes = append(out.Nodes, RenderNode{
			ID:    n.URI,
			Label: n.Label,
			Title: Tooltip(n),
			Color: style.Color,
			Shape: style.Shape,
			Size:  size,
			Group: n.Type.String(),
		})
	}
	for _, e := range vm.Edges {
		out.Edges = append(out.Edges, RenderEdge{
			From:   e.Source,
			To:     e.Target,
			Label:  e.PredicateLabel,
			Title:  e.PredicateLabel,
			Arrows: "to",
		})
	}
	return out
}

// Tooltip renders "label (Type)<br>comment" with the text parts escaped.
func Tooltip(n NodeRecord) string {
	return html.EscapeString(n.Label) + " (" + n.Type.String() + ")<br>" + html.EscapeString(n.Comment)
}
