package rdf

// WellKnownPrefixes maps the standard prefix names to their namespaces. They
// are always available for abbreviation even when a document does not
// declare them.
func WellKnownPrefixes() map[string]string {
	return map[string]string{
		"rdf":  RDFNamespace,
		"rdfs": RDFSNamespace,
		"owl":  OWLNamespace,
		"xsd":  XSDNamespace,
	}
}
