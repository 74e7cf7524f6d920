// Package store mirrors the study document into a SQLite database and
// keeps an audit trail of merge runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mwhite/vocabfill/pkg/vocab"
)

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS words (
	id INTEGER PRIMARY KEY,
	word TEXT NOT NULL,
	definition TEXT NOT NULL DEFAULT '',
	part_of_speech TEXT NOT NULL DEFAULT '',
	synonyms TEXT NOT NULL DEFAULT '[]',
	examples TEXT NOT NULL DEFAULT '[]',
	difficulty TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_words_word ON words(word);

CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ran_at TIMESTAMP NOT NULL,
	loaded INTEGER NOT NULL,
	updated INTEGER NOT NULL,
	filled INTEGER NOT NULL
)`

// Init runs migrations on the given DB connection using the embedded SQL.
func Init(db *sql.DB) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Executor is satisfied by both *sql.DB and *sql.Tx so store functions
// work inside and outside transactions.
type Executor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// RunStats is one populate/export run's summary row.
type RunStats struct {
	RanAt   time.Time
	Loaded  int
	Updated int
	Filled  int
}

// UpsertWord inserts or replaces the row for rec. Synonyms and examples
// are stored as JSON arrays.
func UpsertWord(ex Executor, rec vocab.Record) error {
	if rec.ID <= 0 {
		return fmt.Errorf("record id must be positive, got %d", rec.ID)
	}
	if strings.TrimSpace(rec.Word) == "" {
		return fmt.Errorf("record %d has no word", rec.ID)
	}
	synonyms, err := encodeList(rec.Synonyms)
	if err != nil {
		return fmt.Errorf("encode synonyms for %d: %w", rec.ID, err)
	}
	examples, err := encodeList(rec.Examples)
	if err != nil {
		return fmt.Errorf("encode examples for %d: %w", rec.ID, err)
	}

	_, err = ex.Exec(`INSERT INTO words (id, word, definition, part_of_speech, synonyms, examples, difficulty)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			word = excluded.word,
			definition = excluded.definition,
			part_of_speech = excluded.part_of_speech,
			synonyms = excluded.synonyms,
			examples = excluded.examples,
			difficulty = excluded.difficulty`,
		rec.ID, rec.Word, rec.Definition, rec.PartOfSpeech, synonyms, examples, rec.Difficulty)
	if err != nil {
		return fmt.Errorf("upsert word %d: %w", rec.ID, err)
	}
	return nil
}

// GetWord reads one record back out of the store.
func GetWord(ex Executor, id int) (vocab.Record, error) {
	var rec vocab.Record
	var synonyms, examples string
	err := ex.QueryRow(`SELECT id, word, definition, part_of_speech, synonyms, examples, difficulty
		FROM words WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Word, &rec.Definition, &rec.PartOfSpeech, &synonyms, &examples, &rec.Difficulty)
	if err != nil {
		return vocab.Record{}, err
	}
	if err := json.Unmarshal([]byte(synonyms), &rec.Synonyms); err != nil {
		return vocab.Record{}, fmt.Errorf("decode synonyms for %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(examples), &rec.Examples); err != nil {
		return vocab.Record{}, fmt.Errorf("decode examples for %d: %w", id, err)
	}
	return rec, nil
}

// CountFilled counts stored words that carry a definition.
func CountFilled(ex Executor) (int, error) {
	var n int
	err := ex.QueryRow(`SELECT COUNT(*) FROM words WHERE definition != ''`).Scan(&n)
	return n, err
}

// RecordRun appends a run summary row.
func RecordRun(ex Executor, stats RunStats) error {
	ranAt := stats.RanAt
	if ranAt.IsZero() {
		ranAt = time.Now()
	}
	_, err := ex.Exec(`INSERT INTO runs (ran_at, loaded, updated, filled) VALUES (?, ?, ?, ?)`,
		ranAt, stats.Loaded, stats.Updated, stats.Filled)
	return err
}

// ExportDocument batch-upserts every record of doc and appends a run
// row. It returns the number of words written.
func ExportDocument(ctx context.Context, db *sql.DB, doc *vocab.Document, stats RunStats) (int, error) {
	bw := NewBatchWriter(db, 50)
	written := 0
	for i := range doc.Words {
		rec := doc.Words[i]
		err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			return UpsertWord(tx, rec)
		})
		if err != nil {
			bw.Close()
			return written, err
		}
		written++
	}
	if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
		return RecordRun(tx, stats)
	}); err != nil {
		bw.Close()
		return written, err
	}
	if err := bw.Close(); err != nil {
		return 0, err
	}
	return written, nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	return string(data), err
}
