// Package axiology provides IRI constants for the axiology ontology, the
// domain vocabulary the viewer was first built around. Only the terms the
// label resolver relies on are declared.
package axiology
