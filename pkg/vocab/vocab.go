// Package vocab defines the vocabulary document model shared by every
// command: the study document (vocab.json) and the curated dictionary
// entries used to fill it.
package vocab

// Difficulty is the study tier assigned to a word.
type Difficulty string

const (
	Basic        Difficulty = "basic"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// Valid reports whether d is one of the known tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case Basic, Intermediate, Advanced:
		return true
	}
	return false
}

// Entry is one curated dictionary entry. Entries are read-only for the
// duration of a run; the merge copies their fields into records, it never
// hands out the slices themselves.
type Entry struct {
	ID           int        `json:"id"`
	Word         string     `json:"word"`
	Definition   string     `json:"definition"`
	PartOfSpeech string     `json:"partOfSpeech"`
	Synonyms     []string   `json:"synonyms"`
	Examples     []string   `json:"examples"`
	Difficulty   Difficulty `json:"difficulty"`
}

// Record is one word row of the study document. The five descriptive
// fields (definition, partOfSpeech, synonyms, examples, difficulty) are
// either all empty or all populated; an empty definition marks the whole
// record as unfilled.
type Record struct {
	ID           int      `json:"id"`
	Word         string   `json:"word"`
	Definition   string   `json:"definition,omitempty"`
	PartOfSpeech string   `json:"partOfSpeech,omitempty"`
	Synonyms     []string `json:"synonyms,omitempty"`
	Examples     []string `json:"examples,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
}

// Filled reports whether the record already carries its descriptive data.
func (r *Record) Filled() bool {
	return r.Definition != ""
}
