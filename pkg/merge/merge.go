// Package merge implements the merge-fill of a study document from a
// lookup table of curated entries.
package merge

import (
	"github.com/mwhite/vocabfill/pkg/dataset"
	"github.com/mwhite/vocabfill/pkg/vocab"
)

// Result summarizes one merge pass.
type Result struct {
	// Updated is the number of records whose descriptive fields were
	// filled during this pass.
	Updated int
	// Skipped lists the ids of unfilled records that had no entry in the
	// lookup table, in document order.
	Skipped []int
}

// Merge fills every unfilled record of doc from table, copying the five
// descriptive fields as one unit. Records that already carry a
// definition are never touched, so running the merge again over its own
// output updates nothing. Document order and length are preserved; the
// mutation happens in place.
func Merge(doc *vocab.Document, table dataset.Table) Result {
	var res Result
	for i := range doc.Words {
		rec := &doc.Words[i]
		if rec.Filled() {
			continue
		}
		entry, ok := table[rec.ID]
		if !ok {
			res.Skipped = append(res.Skipped, rec.ID)
			continue
		}
		fill(rec, entry)
		res.Updated++
	}
	return res
}

// fill copies the descriptive fields of entry into rec. Slices are
// duplicated so later mutation of the record cannot reach back into the
// shared table.
func fill(rec *vocab.Record, entry vocab.Entry) {
	rec.Definition = entry.Definition
	rec.PartOfSpeech = entry.PartOfSpeech
	rec.Synonyms = append([]string(nil), entry.Synonyms...)
	rec.Examples = append([]string(nil), entry.Examples...)
	rec.Difficulty = string(entry.Difficulty)
}
