// Package labels resolves human-readable labels and descriptions for graph
// nodes with a preferred-language fallback chain.
package labels

import (
	"slices"
	"strings"

	"golang.org/x/text/language"

	"github.com/c360studio/semview/graph"
	"github.com/c360studio/semview/vocabulary/axiology"
	"github.com/c360studio/semview/vocabulary/rdf"
)

// DefaultLanguage is the preferred label language when none is configured.
const DefaultLanguage = "ru"

// Options configures a Resolver.
type Options struct {
	// Language is the preferred language tag. Empty disables the preference
	// and resolution goes straight to canonical order.
	Language string

	LabelPredicate   string
	CommentPredicate string

	// DescriptionPredicate is consulted for comments when a node has no
	// CommentPredicate values.
	DescriptionPredicate string
}

// DefaultOptions returns rdfs:label / rdfs:comment with the axiology
// description fallback and Russian as the preferred language.
func DefaultOptions() Options {
	return Options{
		Language:             DefaultLanguage,
		LabelPredicate:       rdf.Label,
		CommentPredicate:     rdf.Comment,
		DescriptionPredicate: axiology.HasDescription,
	}
}

// Resolver derives display strings from a store. Results are a pure function
// of the store and the options.
type Resolver struct {
	store *graph.Store
	opts  Options

	base    language.Base
	hasBase bool
}

// New creates a Resolver over store. Empty predicate options take their
// defaults; an empty Language is kept as "no preference".
func New(store *graph.Store, opts Options) *Resolver {
	def := DefaultOptions()
	if opts.LabelPredicate == "" {
		opts.LabelPredicate = def.LabelPredicate
	}
	if opts.CommentPredicate == "" {
		opts.CommentPredicate = def.CommentPredicate
	}
	if opts.DescriptionPredicate == "" {
		opts.DescriptionPredicate = def.DescriptionPredicate
	}

	r := &Resolver{store: store, opts: opts}
	if opts.Language != "" {
		if tag, err := language.Parse(opts.Language); err == nil {
			r.base, _ = tag.Base()
			r.hasBase = true
		}
	}
	return r
}

// Language returns the preferred language tag.
func (r *Resolver) Language() string {
	return r.opts.Language
}

// Label returns the display label of t. IRIs without a label literal fall
// back to their local name, blank nodes render as "_:label" and literals as
// their lexical value.
func (r *Resolver) Label(t graph.Term) string {
	switch {
	case t.IsLiteral():
		return t.Value
	case t.IsBlank():
		if v, ok := r.pick(r.store.Objects(t, r.opts.LabelPredicate)); ok {
			return v
		}
		return "_:" + t.Value
	}
	if v, ok := r.pick(r.store.Objects(t, r.opts.LabelPredicate)); ok {
		return v
	}
	return LocalName(t.Value)
}

// LabelIRI is Label for an IRI node.
func (r *Resolver) LabelIRI(iri string) string {
	return r.Label(graph.IRI(iri))
}

// Comment returns the description of t, or "" when it has none.
func (r *Resolver) Comment(t graph.Term) string {
	if t.IsLiteral() {
		return ""
	}
	if v, ok := r.pick(r.store.Objects(t, r.opts.CommentPredicate)); ok {
		return v
	}
	v, _ := r.pick(r.store.Objects(t, r.opts.DescriptionPredicate))
	return v
}

// CommentIRI is Comment for an IRI node.
func (r *Resolver) CommentIRI(iri string) string {
	return r.Comment(graph.IRI(iri))
}

// pick applies the language chain to the literal members of objects:
// exact preferred tag, then same base language, then the first literal in
// canonical order.
func (r *Resolver) pick(objects []graph.Term) (string, bool) {
	lits := make([]graph.Term, 0, len(objects))
	for _, o := range objects {
		if o.IsLiteral() {
			lits = append(lits, o)
		}
	}
	if len(lits) == 0 {
		return "", false
	}
	slices.SortFunc(lits, compareLiterals)

	if r.opts.Language != "" {
		for _, l := range lits {
			if strings.EqualFold(l.Lang, r.opts.Language) {
				return l.Value, true
			}
		}
	}
	if r.hasBase {
		for _, l := range lits {
			if r.sameBase(l.Lang) {
				return l.Value, true
			}
		}
	}
	return lits[0].Value, true
}

func (r *Resolver) sameBase(lang string) bool {
	if lang == "" {
		return false
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	b, conf := tag.Base()
	return conf != language.No && b == r.base
}

// compareLiterals orders literals by lexical value, then language, then
// datatype.
func compareLiterals(a, b graph.Term) int {
	if c := strings.Compare(a.Value, b.Value); c != 0 {
		return c
	}
	if c := strings.Compare(a.Lang, b.Lang); c != 0 {
		return c
	}
	return strings.Compare(a.Datatype, b.Datatype)
}

// LocalName returns the part of iri after the last '#', or after the last
// '/' when there is no '#'. An empty local part yields the whole IRI.
func LocalName(iri string) string {
	i := strings.LastIndexByte(iri, '#')
	if i < 0 {
		i = strings.LastIndexByte(iri, '/')
	}
	if i < 0 || i == len(iri)-1 {
		return iri
	}
	return iri[i+1:]
}
