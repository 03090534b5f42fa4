// Package classifier assigns every IRI node of a graph one semantic TypeTag
// from its asserted rdf:type statements.
//
// Classification is syntactic: no subsumption or other reasoning is applied.
// The rules, first match wins:
//
//  1. a class marker (owl:Class, rdfs:Class, configured extras) gives Class
//  2. an instance marker gives NamedIndividual
//  3. a property marker gives ObjectProperty, DatatypeProperty or
//     GenericProperty
//  4. anything else, including nodes without rdf:type, is Other
//
// What counts as an instance marker depends on the IndividualRule. Under
// RuleBroad any type that is not itself a vocabulary marker makes its subject
// an individual; under RuleStrict only owl:NamedIndividual does.
package classifier
