package rdf

// ClassMarkers are type objects that declare their subject a class.
var ClassMarkers = []string{
	OWLClass,
	Class,
}

// ObjectPropertyMarkers declare their subject an object property.
var ObjectPropertyMarkers = []string{
	OWLObjectProperty,
}

// DatatypePropertyMarkers declare their subject a datatype property.
var DatatypePropertyMarkers = []string{
	OWLDatatypeProperty,
}

// PropertyMarkers declare their subject a property of any kind. The object
// and datatype markers are members.
var PropertyMarkers = []string{
	Property,
	OWLObjectProperty,
	OWLDatatypeProperty,
	OWLAnnotationProperty,
	OWLFunctionalProperty,
	OWLInverseFunctionalProperty,
	OWLTransitiveProperty,
	OWLSymmetricProperty,
	OWLAsymmetricProperty,
	OWLReflexiveProperty,
	OWLIrreflexiveProperty,
}

// HeaderMarkers are structural declarations that make a node neither a class,
// a property, nor an instance of a domain class.
var HeaderMarkers = []string{
	OWLOntology,
	OWLRestriction,
	OWLAllDisjointClasses,
	OWLAllDifferent,
	Datatype,
}

// IndividualMarkers explicitly declare a named individual.
var IndividualMarkers = []string{
	OWLNamedIndividual,
}

// IsVocabularyMarker reports whether iri is a class, property, or header
// marker.
func IsVocabularyMarker(iri string) bool {
	return vocabularyMarkers[iri]
}

var vocabularyMarkers = func() map[string]bool {
	m := make(map[string]bool)
	for _, set := range [][]string{ClassMarkers, PropertyMarkers, HeaderMarkers} {
		for _, iri := range set {
			m[iri] = true
		}
	}
	return m
}()
