package viewmodel

import (
	"bytes"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// sortRecords orders records by label under the collation of lang, ties
// broken by URI byte order. A Collator is not safe for concurrent use, so
// each call builds its own.
func sortRecords(records []NodeRecord, lang string) {
	tag := language.Und
	if lang != "" {
		if t, err := language.Parse(lang); err == nil {
			tag = t
		}
	}
	col := collate.New(tag)

	var buf collate.Buffer
	keys := make([][]byte, len(records))
	for i := range records {
		keys[i] = col.KeyFromString(&buf, records[i].Label)
	}

	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if c := bytes.Compare(keys[ia], keys[ib]); c != 0 {
			return c < 0
		}
		return records[ia].URI < records[ib].URI
	})

	sorted := make([]NodeRecord, len(records))
	for i, j := range idx {
		sorted[i] = records[j]
	}
	copy(records, sorted)
}
