package classifier

import (
	"github.com/c360studio/semview/graph"
	"github.com/c360studio/semview/vocabulary/rdf"
)

// Options configures a Classifier.
type Options struct {
	IndividualRule IndividualRule

	// ExtraClassMarkers are additional IRIs treated like owl:Class.
	ExtraClassMarkers []string
}

// Classifier derives TypeTags from a store's rdf:type index.
type Classifier struct {
	store *graph.Store
	rule  IndividualRule

	classMarkers      map[string]bool
	individualMarkers map[string]bool
}

// New creates a Classifier over store.
func New(store *graph.Store, opts Options) *Classifier {
	rule := opts.IndividualRule
	if rule == "" {
		rule = RuleBroad
	}
	return &Classifier{
		store:             store,
		rule:              rule,
		classMarkers:      toSet(rdf.ClassMarkers, opts.ExtraClassMarkers),
		individualMarkers: toSet(rdf.IndividualMarkers),
	}
}

// Classify returns the TypeTag of iri. It never fails: a node the store
// knows nothing about is Other.
func (c *Classifier) Classify(iri string) TypeTag {
	types := c.store.Types(iri)
	if len(types) == 0 {
		return Other
	}

	for _, t := range types {
		if c.classMarkers[t] {
			return Class
		}
	}
	for _, t := range types {
		if c.isInstanceMarker(t) {
			return NamedIndividual
		}
	}

	// object beats datatype beats generic when several markers are asserted
	tag := Other
	for _, t := range types {
		switch {
		case t == rdf.OWLObjectProperty:
			return ObjectProperty
		case t == rdf.OWLDatatypeProperty:
			tag = DatatypeProperty
		case propertyMarkers[t] && tag == Other:
			tag = GenericProperty
		}
	}
	return tag
}

func (c *Classifier) isInstanceMarker(t string) bool {
	if c.rule == RuleStrict {
		return c.individualMarkers[t]
	}
	return !c.classMarkers[t] && !rdf.IsVocabularyMarker(t)
}

// ClassifyAll classifies every IRI node of the store in one pass.
func (c *Classifier) ClassifyAll() *Classification {
	nodes := c.store.Nodes()
	cl := &Classification{
		tags:  make(map[string]TypeTag, len(nodes)),
		byTag: make(map[TypeTag][]string),
		nodes: nodes,
	}
	for _, iri := range nodes {
		tag := c.Classify(iri)
		cl.tags[iri] = tag
		cl.byTag[tag] = append(cl.byTag[tag], iri)
	}
	return cl
}

var propertyMarkers = toSet(rdf.PropertyMarkers)

func toSet(lists ...[]string) map[string]bool {
	m := make(map[string]bool)
	for _, l := range lists {
		for _, v := range l {
			m[v] = true
		}
	}
	return m
}
