package graph

import (
	"sort"
	"strings"

	"github.com/c360studio/semview/vocabulary/rdf"
)

// Prefixes maps prefix names to namespace IRIs. The zero value is empty and
// ready to use. A Prefixes attached to a Store must not be modified.
type Prefixes struct {
	byName map[string]string
}

// NewPrefixes returns a prefix table seeded with m.
func NewPrefixes(m map[string]string) *Prefixes {
	p := &Prefixes{byName: make(map[string]string, len(m))}
	for name, ns := range m {
		p.byName[name] = ns
	}
	return p
}

// Set binds name to namespace, replacing any previous binding.
func (p *Prefixes) Set(name, namespace string) {
	if p.byName == nil {
		p.byName = make(map[string]string)
	}
	p.byName[name] = namespace
}

// Namespace returns the namespace bound to name.
func (p *Prefixes) Namespace(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	ns, ok := p.byName[name]
	return ns, ok
}

// Names returns the bound prefix names in sorted order.
func (p *Prefixes) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.byName))
	for name := range p.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bindings.
func (p *Prefixes) Len() int {
	if p == nil {
		return 0
	}
	return len(p.byName)
}

// WithWellKnown returns a copy of p where the standard rdf, rdfs, owl, and xsd
// prefixes are bound unless p already binds those names.
func (p *Prefixes) WithWellKnown() *Prefixes {
	out := NewPrefixes(rdf.WellKnownPrefixes())
	if p != nil {
		for name, ns := range p.byName {
			out.byName[name] = ns
		}
	}
	return out
}

// QName abbreviates iri as prefix:local using the longest matching namespace.
// It reports false when no namespace matches or the local part could not be
// written back as a prefixed name.
func (p *Prefixes) QName(iri string) (string, bool) {
	if p == nil {
		return "", false
	}
	bestName, bestNS := "", ""
	for name, ns := range p.byName {
		if ns == "" || !strings.HasPrefix(iri, ns) {
			continue
		}
		if len(ns) > len(bestNS) || (len(ns) == len(bestNS) && name < bestName) {
			bestName, bestNS = name, ns
		}
	}
	if bestNS == "" {
		return "", false
	}
	local := iri[len(bestNS):]
	if !IsSafeLocalName(local) {
		return "", false
	}
	return bestName + ":" + local, true
}

// Abbreviate renders a term in its shortest readable form: qname for IRIs
// when possible, the N-Triples form otherwise.
func (p *Prefixes) Abbreviate(t Term) string {
	if t.IsIRI() {
		if q, ok := p.QName(t.Value); ok {
			return q
		}
	}
	if t.IsLiteral() && t.Datatype != "" {
		if q, ok := p.QName(t.Datatype); ok {
			return `"` + EscapeLiteral(t.Value) + `"^^` + q
		}
	}
	return t.String()
}

// IsSafeLocalName reports whether local can follow "prefix:" in Turtle
// without escaping: a PN_LOCAL made only of name characters, with no dots,
// colons, percent encodings, or backslash escapes.
func IsSafeLocalName(local string) bool {
	if local == "" {
		return false
	}
	for i, r := range local {
		if i == 0 {
			if !IsNameStartChar(r) && !(r >= '0' && r <= '9') {
				return false
			}
			continue
		}
		if !IsNameChar(r) {
			return false
		}
	}
	return true
}
