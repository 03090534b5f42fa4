package graph

// Row is one triple rendered for tabular inspection, in fully-qualified and
// prefix-abbreviated form.
type Row struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`

	SubjectQName   string `json:"subject_qname"`
	PredicateQName string `json:"predicate_qname"`
	ObjectQName    string `json:"object_qname"`
}

// Rows lists every triple of s in scan order.
func Rows(s *Store) []Row {
	rows := make([]Row, 0, s.Len())
	for t := range s.All() {
		rows = append(rows, NewRow(s.Prefixes(), t))
	}
	return rows
}

// NewRow renders t with p.
func NewRow(p *Prefixes, t Triple) Row {
	return Row{
		Subject:        plain(t.Subject),
		Predicate:      plain(t.Predicate),
		Object:         plain(t.Object),
		SubjectQName:   p.Abbreviate(t.Subject),
		PredicateQName: p.Abbreviate(t.Predicate),
		ObjectQName:    p.Abbreviate(t.Object),
	}
}

// plain renders IRIs and literals by their bare value and blank nodes as
// "_:label".
func plain(t Term) string {
	if t.IsBlank() {
		return "_:" + t.Value
	}
	return t.Value
}
