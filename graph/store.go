package graph

import (
	"iter"
	"sort"

	"github.com/c360studio/semview/vocabulary/rdf"
)

// Store is an immutable snapshot of a parsed triple set. Duplicate statements
// collapse on construction; scan order is first-seen document order. All
// lookups are served from indices built once in NewStore, so a Store is safe
// for concurrent readers.
type Store struct {
	triples  []Triple
	prefixes *Prefixes

	bySubject   map[Term][]int
	byPredicate map[string][]int
	byObject    map[Term][]int

	// types maps a subject IRI to the IRI objects of its rdf:type triples.
	types map[string][]string

	// nodes lists IRIs seen in subject or object position, first-seen order.
	nodes []string
}

// NewStore builds a Store from triples and the document's prefix bindings.
// The slice is copied; later changes to it do not affect the Store.
func NewStore(triples []Triple, prefixes *Prefixes) *Store {
	s := &Store{
		triples:     make([]Triple, 0, len(triples)),
		prefixes:    prefixes.WithWellKnown(),
		bySubject:   make(map[Term][]int),
		byPredicate: make(map[string][]int),
		byObject:    make(map[Term][]int),
		types:       make(map[string][]string),
	}

	seen := make(map[Triple]struct{}, len(triples))
	seenNode := make(map[string]struct{})
	addNode := func(t Term) {
		if !t.IsIRI() {
			return
		}
		if _, ok := seenNode[t.Value]; ok {
			return
		}
		seenNode[t.Value] = struct{}{}
		s.nodes = append(s.nodes, t.Value)
	}

	for _, t := range triples {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}

		i := len(s.triples)
		s.triples = append(s.triples, t)
		s.bySubject[t.Subject] = append(s.bySubject[t.Subject], i)
		s.byPredicate[t.Predicate.Value] = append(s.byPredicate[t.Predicate.Value], i)
		s.byObject[t.Object] = append(s.byObject[t.Object], i)

		if t.Predicate.Value == rdf.Type && t.Subject.IsIRI() && t.Object.IsIRI() {
			s.types[t.Subject.Value] = append(s.types[t.Subject.Value], t.Object.Value)
		}

		addNode(t.Subject)
		addNode(t.Object)
	}

	return s
}

// Len returns the number of distinct triples.
func (s *Store) Len() int {
	return len(s.triples)
}

// Prefixes returns the document's prefix bindings plus the well-known ones.
func (s *Store) Prefixes() *Prefixes {
	return s.prefixes
}

// All iterates over every triple in scan order.
func (s *Store) All() iter.Seq[Triple] {
	return func(yield func(Triple) bool) {
		for _, t := range s.triples {
			if !yield(t) {
				return
			}
		}
	}
}

// Triples returns a copy of all triples in scan order.
func (s *Store) Triples() []Triple {
	out := make([]Triple, len(s.triples))
	copy(out, s.triples)
	return out
}

// BySubject returns the triples whose subject is subject.
func (s *Store) BySubject(subject Term) []Triple {
	return s.collect(s.bySubject[subject])
}

// ByPredicate returns the triples whose predicate is the given IRI.
func (s *Store) ByPredicate(predicate string) []Triple {
	return s.collect(s.byPredicate[predicate])
}

// ByObject returns the triples whose object is object.
func (s *Store) ByObject(object Term) []Triple {
	return s.collect(s.byObject[object])
}

// Objects returns the objects of (subject, predicate, *) in scan order.
func (s *Store) Objects(subject Term, predicate string) []Term {
	var out []Term
	for _, i := range s.bySubject[subject] {
		if s.triples[i].Predicate.Value == predicate {
			out = append(out, s.triples[i].Object)
		}
	}
	return out
}

// Types returns the IRI objects of rdf:type triples about subject.
func (s *Store) Types(subject string) []string {
	types := s.types[subject]
	out := make([]string, len(types))
	copy(out, types)
	return out
}

// HasType reports whether (subject rdf:type typeIRI) is asserted.
func (s *Store) HasType(subject, typeIRI string) bool {
	for _, t := range s.types[subject] {
		if t == typeIRI {
			return true
		}
	}
	return false
}

// Nodes returns every IRI used in subject or object position, in first-seen
// order.
func (s *Store) Nodes() []string {
	out := make([]string, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Predicates returns the distinct predicate IRIs, sorted.
func (s *Store) Predicates() []string {
	out := make([]string, 0, len(s.byPredicate))
	for p := range s.byPredicate {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Touching returns, in scan order, every triple whose subject or object is
// one of the given IRIs.
func (s *Store) Touching(iris []string) []Triple {
	hit := make(map[int]struct{})
	for _, iri := range iris {
		t := IRI(iri)
		for _, i := range s.bySubject[t] {
			hit[i] = struct{}{}
		}
		for _, i := range s.byObject[t] {
			hit[i] = struct{}{}
		}
	}
	idx := make([]int, 0, len(hit))
	for i := range hit {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return s.collect(idx)
}

func (s *Store) collect(idx []int) []Triple {
	if len(idx) == 0 {
		return nil
	}
	out := make([]Triple, len(idx))
	for j, i := range idx {
		out[j] = s.triples[i]
	}
	return out
}
