package classifier

import (
	"fmt"
	"strings"
)

// TypeTag is the semantic category of an IRI node.
type TypeTag uint8

// TypeTag values. The zero value is Other.
const (
	Other TypeTag = iota
	Class
	ObjectProperty
	DatatypeProperty
	GenericProperty
	NamedIndividual
)

var tagNames = [...]string{
	Other:            "Other",
	Class:            "Class",
	ObjectProperty:   "ObjectProperty",
	DatatypeProperty: "DatatypeProperty",
	GenericProperty:  "GenericProperty",
	NamedIndividual:  "NamedIndividual",
}

// Tags returns every TypeTag in declaration order.
func Tags() []TypeTag {
	return []TypeTag{Other, Class, ObjectProperty, DatatypeProperty, GenericProperty, NamedIndividual}
}

func (t TypeTag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("TypeTag(%d)", t)
}

// IsProperty reports whether t is one of the property tags.
func (t TypeTag) IsProperty() bool {
	return t == ObjectProperty || t == DatatypeProperty || t == GenericProperty
}

// MarshalText implements encoding.TextMarshaler.
func (t TypeTag) MarshalText() ([]byte, error) {
	if int(t) >= len(tagNames) {
		return nil, fmt.Errorf("invalid type tag %d", t)
	}
	return []byte(tagNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TypeTag) UnmarshalText(b []byte) error {
	tag, err := ParseTypeTag(string(b))
	if err != nil {
		return err
	}
	*t = tag
	return nil
}

// ParseTypeTag parses a tag name case-insensitively. "Property" and
// "Individual" are accepted as aliases.
func ParseTypeTag(s string) (TypeTag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "other":
		return Other, nil
	case "class":
		return Class, nil
	case "objectproperty":
		return ObjectProperty, nil
	case "datatypeproperty":
		return DatatypeProperty, nil
	case "genericproperty", "property":
		return GenericProperty, nil
	case "namedindividual", "individual":
		return NamedIndividual, nil
	}
	return Other, fmt.Errorf("unknown type tag %q", s)
}

// ParseTypeTags parses repeated or comma-separated tag names. Empty names
// are skipped.
func ParseTypeTags(values []string) ([]TypeTag, error) {
	var tags []TypeTag
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name == "" {
				continue
			}
			tag, err := ParseTypeTag(name)
			if err != nil {
				return nil, err
			}
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// IndividualRule selects which rdf:type objects make a node a
// NamedIndividual.
type IndividualRule string

const (
	// RuleBroad treats any type that is not a vocabulary marker as an
	// instance marker.
	RuleBroad IndividualRule = "broad"

	// RuleStrict requires an explicit owl:NamedIndividual type.
	RuleStrict IndividualRule = "strict"
)

// ParseIndividualRule parses "broad" or "strict". The empty string is
// RuleBroad.
func ParseIndividualRule(s string) (IndividualRule, error) {
	switch IndividualRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", RuleBroad:
		return RuleBroad, nil
	case RuleStrict:
		return RuleStrict, nil
	}
	return RuleBroad, fmt.Errorf("unknown individual rule %q (want broad or strict)", s)
}
