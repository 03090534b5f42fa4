package viewmodel

import (
	"strings"

	"github.com/c360studio/semview/classifier"
	"github.com/c360studio/semview/graph"
	"github.com/c360studio/semview/labels"
	"github.com/c360studio/semview/vocabulary/rdf"
)

// Builder composes classification and label resolution over one store.
// It holds no mutable state and is safe for concurrent use.
type Builder struct {
	store  *graph.Store
	tags   *classifier.Classification
	labels *labels.Resolver
}

// NewBuilder creates a Builder. tags must come from classifying store.
func NewBuilder(store *graph.Store, tags *classifier.Classification, resolver *labels.Resolver) *Builder {
	return &Builder{store: store, tags: tags, labels: resolver}
}

// Record returns the NodeRecord of iri.
func (b *Builder) Record(iri string) NodeRecord {
	qname, ok := b.store.Prefixes().QName(iri)
	if !ok {
		qname = iri
	}
	return NodeRecord{
		URI:     iri,
		QName:   qname,
		Label:   b.labels.LabelIRI(iri),
		Comment: b.labels.CommentIRI(iri),
		Type:    b.tags.Tag(iri),
	}
}

// Build applies filters and options and returns the view. It never fails;
// no matches yield an empty ViewModel with zero counts.
func (b *Builder) Build(f Filters, opts Options) ViewModel {
	pick := newCategoryFilter(f, opts.includesOther())
	query := strings.ToLower(strings.TrimSpace(opts.Query))

	var records []NodeRecord
	for _, iri := range b.tags.Nodes() {
		tag := b.tags.Tag(iri)
		if !pick.includes(iri, tag) || !opts.allowsType(tag) {
			continue
		}
		rec := b.Record(iri)
		if query != "" && !rec.matches(query) {
			continue
		}
		records = append(records, rec)
	}

	sortRecords(records, b.labels.Language())

	vm := ViewModel{
		NodeCountBeforeCap: len(records),
		Selected:           opts.Selected,
	}
	if limit := opts.maxNodes(); len(records) > limit {
		records = records[:limit]
	}
	vm.Nodes = records
	vm.NodeCountAfterCap = len(records)
	vm.Edges = b.edges(records, f.Properties, opts.IncludeTypeEdges)

	if vm.Nodes == nil {
		vm.Nodes = []NodeRecord{}
	}
	return vm
}

// edges returns, in store order, every IRI-to-IRI statement between kept
// nodes whose predicate passes the property filter.
func (b *Builder) edges(nodes []NodeRecord, properties []string, typeEdges bool) []EdgeRecord {
	kept := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		kept[n.URI] = true
	}
	allowed := toSet(properties)

	edges := []EdgeRecord{}
	predLabels := make(map[string]string)
	for t := range b.store.All() {
		if !t.Subject.IsIRI() || !t.Object.IsIRI() {
			continue
		}
		if !kept[t.Subject.Value] || !kept[t.Object.Value] {
			continue
		}
		p := t.Predicate.Value
		if len(allowed) > 0 && !allowed[p] {
			continue
		}
		if p == rdf.Type && !typeEdges {
			continue
		}
		label, ok := predLabels[p]
		if !ok {
			label = b.labels.LabelIRI(p)
			predLabels[p] = label
		}
		edges = append(edges, EdgeRecord{
			Source:         t.Subject.Value,
			Predicate:      p,
			Target:         t.Object.Value,
			PredicateLabel: label,
		})
	}
	return edges
}

// categoryFilter decides which tagged nodes a Filters value admits.
type categoryFilter struct {
	all          bool
	includeOther bool

	classes     map[string]bool
	properties  map[string]bool
	individuals map[string]bool
}

func newCategoryFilter(f Filters, includeOther bool) categoryFilter {
	return categoryFilter{
		all:          f.IsEmpty(),
		includeOther: includeOther,
		classes:      toSet(f.Classes),
		properties:   toSet(f.Properties),
		individuals:  toSet(f.Individuals),
	}
}

func (c categoryFilter) includes(iri string, tag classifier.TypeTag) bool {
	switch {
	case tag == classifier.Class:
		return c.all || c.classes[iri]
	case tag.IsProperty():
		return c.all || c.properties[iri]
	case tag == classifier.NamedIndividual:
		return c.all || c.individuals[iri]
	default:
		return c.all && c.includeOther
	}
}

func (r NodeRecord) matches(lowerQuery string) bool {
	for _, field := range []string{r.Label, r.Comment, r.URI, r.QName} {
		if strings.Contains(strings.ToLower(field), lowerQuery) {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
