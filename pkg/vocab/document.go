package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Errors returned by Load. Callers are expected to check them with
// errors.Is and translate them into user-facing diagnostics.
var (
	// ErrNotFound means the document file does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrMalformed means the file exists but cannot be parsed into a
	// sequence of word records with integer ids.
	ErrMalformed = errors.New("malformed document")
)

// Document is the study document: a `words` array plus whatever other
// top-level keys the file carries. Unknown keys are kept as raw JSON and
// written back verbatim.
type Document struct {
	Words []Record

	extra map[string]json.RawMessage
}

// UnmarshalJSON accepts either the usual {"words": [...]} wrapper or a
// bare top-level array of records.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// Not an object; try a bare array.
		var words []Record
		if arrErr := json.Unmarshal(data, &words); arrErr != nil {
			return err
		}
		d.Words = words
		d.extra = nil
		return nil
	}

	wordsRaw, ok := raw["words"]
	if !ok {
		return fmt.Errorf("missing \"words\" key")
	}
	var words []Record
	if err := json.Unmarshal(wordsRaw, &words); err != nil {
		return err
	}
	delete(raw, "words")
	d.Words = words
	d.extra = raw
	return nil
}

// MarshalJSON writes the words array back together with any preserved
// top-level metadata.
func (d *Document) MarshalJSON() ([]byte, error) {
	words, err := json.Marshal(d.Words)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(d.extra)+1)
	for k, v := range d.extra {
		out[k] = v
	}
	out["words"] = words
	return json.Marshal(out)
}

// Meta returns a preserved top-level metadata value, if present.
func (d *Document) Meta(key string) (json.RawMessage, bool) {
	v, ok := d.extra[key]
	return v, ok
}

// CountFilled returns how many records carry descriptive data.
func (d *Document) CountFilled() int {
	n := 0
	for i := range d.Words {
		if d.Words[i].Filled() {
			n++
		}
	}
	return n
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	// Every record needs an identifier to be addressable by the merge.
	for i := range doc.Words {
		if doc.Words[i].ID <= 0 {
			return nil, fmt.Errorf("%w: record %d has no id", ErrMalformed, i)
		}
	}
	return &doc, nil
}

// Save marshals the document and atomically replaces path with it. The
// content is staged in a temporary file in the same directory and renamed
// into place, so a failure at any point leaves the previous file intact.
func Save(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".vocab-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
