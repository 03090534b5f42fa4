package classifier

// Classification is the result of one classification pass over a store. It
// is immutable and safe for concurrent readers.
type Classification struct {
	tags  map[string]TypeTag
	byTag map[TypeTag][]string
	nodes []string
}

// Tag returns the TypeTag of iri, or Other for IRIs outside the store.
func (cl *Classification) Tag(iri string) TypeTag {
	return cl.tags[iri]
}

// Of returns the nodes carrying tag, in store order.
func (cl *Classification) Of(tag TypeTag) []string {
	nodes := cl.byTag[tag]
	out := make([]string, len(nodes))
	copy(out, nodes)
	return out
}

// Properties returns the nodes carrying any property tag, in store order.
func (cl *Classification) Properties() []string {
	var out []string
	for _, iri := range cl.nodes {
		if cl.tags[iri].IsProperty() {
			out = append(out, iri)
		}
	}
	return out
}

// Nodes returns every classified node in store order.
func (cl *Classification) Nodes() []string {
	out := make([]string, len(cl.nodes))
	copy(out, cl.nodes)
	return out
}

// Counts returns the number of nodes per tag. Tags without nodes are
// omitted.
func (cl *Classification) Counts() map[TypeTag]int {
	out := make(map[TypeTag]int, len(cl.byTag))
	for tag, nodes := range cl.byTag {
		out[tag] = len(nodes)
	}
	return out
}

// Len returns the number of classified nodes.
func (cl *Classification) Len() int {
	return len(cl.nodes)
}
