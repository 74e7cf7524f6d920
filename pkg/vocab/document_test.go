package vocab

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadWrapperShape(t *testing.T) {
	path := writeDoc(t, `{
		"version": 3,
		"title": "Academic Word List",
		"words": [
			{"id": 21, "word": "aid"},
			{"id": 22, "word": "albeit", "definition": "although", "partOfSpeech": "conjunction",
			 "synonyms": ["although"], "examples": ["a", "b"], "difficulty": "advanced"}
		]
	}`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(doc.Words))
	}
	if doc.Words[0].Filled() {
		t.Errorf("record 21 should be unfilled")
	}
	if !doc.Words[1].Filled() {
		t.Errorf("record 22 should be filled")
	}
	if doc.CountFilled() != 1 {
		t.Errorf("expected 1 filled, got %d", doc.CountFilled())
	}
	if _, ok := doc.Meta("title"); !ok {
		t.Errorf("expected title metadata to be preserved")
	}
}

func TestLoadBareArray(t *testing.T) {
	path := writeDoc(t, `[{"id": 1, "word": "area"}, {"id": 2, "word": "aspect"}]`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(doc.Words))
	}
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	cases := map[string]string{
		"invalid json":  `{"words": [`,
		"wrong element": `{"words": ["aid"]}`,
		"missing words": `{"terms": []}`,
		"missing id":    `{"words": [{"word": "aid"}]}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeDoc(t, content))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestSaveRoundTripPreservesMetadata(t *testing.T) {
	path := writeDoc(t, `{
		"generatedBy": {"tool": "vocab-master", "version": "1.2"},
		"words": [{"id": 21, "word": "aid"}]
	}`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	doc.Words[0].Definition = "help of a practical nature"
	if err := Save(doc, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	meta, ok := reloaded.Meta("generatedBy")
	if !ok {
		t.Fatalf("generatedBy metadata lost on round trip")
	}
	var gen struct {
		Tool string `json:"tool"`
	}
	if err := json.Unmarshal(meta, &gen); err != nil {
		t.Fatalf("unmarshal metadata: %v", err)
	}
	if gen.Tool != "vocab-master" {
		t.Errorf("expected tool vocab-master, got %q", gen.Tool)
	}
	if reloaded.Words[0].Definition != "help of a practical nature" {
		t.Errorf("definition not persisted")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.json")
	doc := &Document{Words: []Record{{ID: 1, Word: "aid"}}}
	if err := Save(doc, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".vocab-") {
			t.Errorf("stale temp file %s left behind", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("expected only vocab.json in dir, got %d entries", len(entries))
	}
}

func TestSaveFailureKeepsOriginal(t *testing.T) {
	path := writeDoc(t, `{"words": [{"id": 1, "word": "aid"}]}`)
	// A document pointing at an unwritable directory must not clobber
	// anything: Save stages in the target directory, so point it at a
	// path whose parent does not exist.
	doc := &Document{Words: []Record{{ID: 2, Word: "area"}}}
	bad := filepath.Join(filepath.Dir(path), "no-such-dir", "vocab.json")
	if err := Save(doc, bad); err == nil {
		t.Fatalf("expected save to fail")
	}

	original, err := Load(path)
	if err != nil {
		t.Fatalf("reload original: %v", err)
	}
	if original.Words[0].ID != 1 {
		t.Errorf("original document was modified")
	}
}
