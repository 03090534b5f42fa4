package rdf

// Namespace IRIs of the standard vocabularies.
const (
	// RDFNamespace is the RDF syntax namespace.
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	// RDFSNamespace is the RDF Schema namespace.
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"

	// OWLNamespace is the OWL 2 namespace.
	OWLNamespace = "http://www.w3.org/2002/07/owl#"

	// XSDNamespace is the XML Schema datatypes namespace.
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
)

// RDF terms.
const (
	// Type links a resource to a class it is an instance of.
	Type = RDFNamespace + "type"

	// Property is the class of RDF properties.
	Property = RDFNamespace + "Property"

	// First is the head of an RDF collection cell.
	First = RDFNamespace + "first"

	// Rest is the tail of an RDF collection cell.
	Rest = RDFNamespace + "rest"

	// Nil terminates an RDF collection.
	Nil = RDFNamespace + "nil"

	// LangString is the datatype of language-tagged literals.
	LangString = RDFNamespace + "langString"
)

// RDFS terms.
const (
	// Class is the RDFS class of classes.
	Class = RDFSNamespace + "Class"

	// Label is the human-readable name of a resource.
	Label = RDFSNamespace + "label"

	// Comment is the human-readable description of a resource.
	Comment = RDFSNamespace + "comment"

	// SubClassOf relates a class to its superclass.
	SubClassOf = RDFSNamespace + "subClassOf"

	// Domain relates a property to the class of its subjects.
	Domain = RDFSNamespace + "domain"

	// Range relates a property to the class of its values.
	Range = RDFSNamespace + "range"

	// Datatype is the class of RDF datatypes.
	Datatype = RDFSNamespace + "Datatype"
)

// OWL terms.
const (
	OWLClass                     = OWLNamespace + "Class"
	OWLObjectProperty            = OWLNamespace + "ObjectProperty"
	OWLDatatypeProperty          = OWLNamespace + "DatatypeProperty"
	OWLAnnotationProperty        = OWLNamespace + "AnnotationProperty"
	OWLFunctionalProperty        = OWLNamespace + "FunctionalProperty"
	OWLInverseFunctionalProperty = OWLNamespace + "InverseFunctionalProperty"
	OWLTransitiveProperty        = OWLNamespace + "TransitiveProperty"
	OWLSymmetricProperty         = OWLNamespace + "SymmetricProperty"
	OWLAsymmetricProperty        = OWLNamespace + "AsymmetricProperty"
	OWLReflexiveProperty         = OWLNamespace + "ReflexiveProperty"
	OWLIrreflexiveProperty       = OWLNamespace + "IrreflexiveProperty"
	OWLNamedIndividual           = OWLNamespace + "NamedIndividual"
	OWLOntology                  = OWLNamespace + "Ontology"
	OWLRestriction               = OWLNamespace + "Restriction"
	OWLAllDisjointClasses        = OWLNamespace + "AllDisjointClasses"
	OWLAllDifferent              = OWLNamespace + "AllDifferent"
)

// XML Schema datatypes produced by Turtle shorthand literals.
const (
	XSDString  = XSDNamespace + "string"
	XSDBoolean = XSDNamespace + "boolean"
	XSDInteger = XSDNamespace + "integer"
	XSDDecimal = XSDNamespace + "decimal"
	XSDDouble  = XSDNamespace + "double"
)
