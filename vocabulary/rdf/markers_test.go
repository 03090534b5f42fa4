package rdf_test

import (
	"testing"

	"github.com/c360studio/semview/vocabulary/rdf"
)

func TestIsVocabularyMarker(t *testing.T) {
	tests := []struct {
		iri  string
		want bool
	}{
		{rdf.OWLClass, true},
		{rdf.Class, true},
		{rdf.Property, true},
		{rdf.OWLObjectProperty, true},
		{rdf.OWLFunctionalProperty, true},
		{rdf.OWLOntology, true},
		{rdf.OWLNamedIndividual, false},
		{"http://example.org/axiology#Policy", false},
	}

	for _, tt := range tests {
		t.Run(tt.iri, func(t *testing.T) {
			if got := rdf.IsVocabularyMarker(tt.iri); got != tt.want {
				t.Errorf("IsVocabularyMarker(%q) = %v, want %v", tt.iri, got, tt.want)
			}
		})
	}
}

func TestMarkerSetsDisjointFromIndividuals(t *testing.T) {
	for _, iri := range rdf.IndividualMarkers {
		if rdf.IsVocabularyMarker(iri) {
			t.Errorf("individual marker %q must not be a vocabulary marker", iri)
		}
	}
}

func TestWellKnownPrefixes(t *testing.T) {
	prefixes := rdf.WellKnownPrefixes()
	for _, name := range []string{"rdf", "rdfs", "owl", "xsd"} {
		if prefixes[name] == "" {
			t.Errorf("missing well-known prefix %q", name)
		}
	}
}
