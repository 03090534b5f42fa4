// Package rdf provides IRI constants for the W3C vocabularies the viewer
// understands natively: RDF, RDFS, OWL, and XML Schema datatypes.
//
// The classifier and label resolver never hard-code IRIs; they read the marker
// sets and predicates declared here so the same constants drive parsing,
// classification, and serialization.
//
// # Marker Sets
//
// Type assertions are interpreted through three disjoint marker sets:
//
//	ClassMarkers    → owl:Class, rdfs:Class
//	PropertyMarkers → rdf:Property, owl:ObjectProperty, owl:DatatypeProperty,
//	                  owl:AnnotationProperty and the property characteristics
//	HeaderMarkers   → owl:Ontology and other document-level declarations
//
// Anything outside these sets is a domain type and marks its subject as an
// instance.
package rdf
