package axiology

// Namespace is the base IRI of the axiology ontology.
const Namespace = "http://example.org/axiology#"

// HasDescription carries an extended description for entities that have no
// rdfs:comment.
const HasDescription = Namespace + "hasDescription"
