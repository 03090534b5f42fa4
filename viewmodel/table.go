package viewmodel

import (
	"strings"

	"github.com/c360studio/semview/classifier"
	"github.com/c360studio/semview/graph"
)

// Table lists node records for inspection.
type Table struct {
	Rows  []NodeRecord `json:"rows"`
	Found int          `json:"found"`
	Total int          `json:"total"`
}

// Table returns every URI node matching query and types (either may be
// empty), sorted like a view. Total counts all URI nodes.
func (b *Builder) Table(query string, types []classifier.TypeTag) Table {
	q := strings.ToLower(strings.TrimSpace(query))
	opts := Options{Types: types}

	nodes := b.tags.Nodes()
	rows := []NodeRecord{}
	for _, iri := range nodes {
		if !opts.allowsType(b.tags.Tag(iri)) {
			continue
		}
		rec := b.Record(iri)
		if q != "" && !rec.matches(q) {
			continue
		}
		rows = append(rows, rec)
	}
	sortRecords(rows, b.labels.Language())

	return Table{Rows: rows, Found: len(rows), Total: len(nodes)}
}

// Search returns the nodes whose label, comment, URI or qname contains
// query, case-insensitively.
func (b *Builder) Search(query string) []NodeRecord {
	return b.Table(query, nil).Rows
}

// Detail describes one node and the statements around it.
type Detail struct {
	Node     NodeRecord  `json:"node"`
	Types    []string    `json:"types"`
	Outgoing []graph.Row `json:"outgoing"`
	Incoming []graph.Row `json:"incoming"`
}

// Describe returns the Detail of iri. The boolean is false when the store
// never mentions iri.
func (b *Builder) Describe(iri string) (Detail, bool) {
	term := graph.IRI(iri)
	out := b.store.BySubject(term)
	in := b.store.ByObject(term)
	if len(out) == 0 && len(in) == 0 {
		return Detail{}, false
	}

	d := Detail{
		Node:     b.Record(iri),
		Types:    b.store.Types(iri),
		Outgoing: make([]graph.Row, 0, len(out)),
		Incoming: make([]graph.Row, 0, len(in)),
	}
	p := b.store.Prefixes()
	for _, t := range out {
		d.Outgoing = append(d.Outgoing, graph.NewRow(p, t))
	}
	for _, t := range in {
		d.Incoming = append(d.Incoming, graph.NewRow(p, t))
	}
	return d, true
}
