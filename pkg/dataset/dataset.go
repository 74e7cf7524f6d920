// Package dataset provisions the lookup table of curated vocabulary
// entries: from a local file, from a configured download URL, or from a
// small embedded fallback set.
package dataset

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/mwhite/vocabfill/pkg/vocab"
)

// Table maps a record identifier to its curated entry.
type Table map[int]vocab.Entry

//go:embed fallback.json
var fallbackJSON []byte

var (
	fallbackOnce  sync.Once
	fallbackTable Table
)

// Fallback returns the embedded default entry set (ids 21-40). The table
// is built once and shared; callers must treat it as read-only.
func Fallback() Table {
	fallbackOnce.Do(func() {
		var entries []vocab.Entry
		if err := json.Unmarshal(fallbackJSON, &entries); err != nil {
			// The file is compiled in; failing to parse it is a build
			// defect, not a runtime condition.
			panic(fmt.Sprintf("dataset: embedded fallback is invalid: %v", err))
		}
		fallbackTable = make(Table, len(entries))
		for _, e := range entries {
			fallbackTable[e.ID] = e
		}
	})
	return fallbackTable
}

// LoadFile parses a dataset file into a Table. Two shapes are accepted:
// an array of entries with embedded ids, or an object keyed by id, e.g.
// {"21": {"word": "aid", ...}}.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", vocab.ErrNotFound, path)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse builds a Table from raw dataset JSON.
func Parse(data []byte) (Table, error) {
	var entries []vocab.Entry
	if err := json.Unmarshal(data, &entries); err == nil {
		table := make(Table, len(entries))
		for _, e := range entries {
			if e.ID <= 0 {
				return nil, fmt.Errorf("%w: dataset entry %q has no id", vocab.ErrMalformed, e.Word)
			}
			table[e.ID] = e
		}
		return table, nil
	}

	var keyed map[string]vocab.Entry
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("%w: dataset is neither an entry array nor an id-keyed object: %v", vocab.ErrMalformed, err)
	}
	table := make(Table, len(keyed))
	for key, e := range keyed {
		id, err := strconv.Atoi(key)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: dataset key %q is not an id", vocab.ErrMalformed, key)
		}
		e.ID = id
		table[id] = e
	}
	return table, nil
}

// Resolve yields the best available lookup table: the dataset file at
// path when readable, otherwise a freshly downloaded copy when a URL is
// configured, otherwise the embedded fallback. It never fails; a broken
// external source is logged and degraded past.
func Resolve(ctx context.Context, logger *zap.Logger, path, url string) (Table, string) {
	if path == "" && url != "" {
		path = "vocab-dataset.json"
	}
	if path != "" {
		if url != "" {
			if err := Ensure(ctx, path, url); err != nil {
				logger.Warn("dataset download failed, trying local sources",
					zap.String("url", url), zap.Error(err))
			}
		}
		table, err := LoadFile(path)
		if err == nil {
			return table, path
		}
		logger.Warn("dataset file unusable, falling back to embedded set",
			zap.String("path", path), zap.Error(err))
	}
	return Fallback(), "embedded fallback"
}
