package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrBatchWriterClosed is returned by Submit after Close.
var ErrBatchWriterClosed = errors.New("batch writer closed")

// WriteFunc is a callback that performs database writes inside a
// transaction.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// BatchWriter buffers write callbacks and flushes them in batches, one
// transaction per batch. The export path has a single producer, so
// flushing happens inline on the submitting goroutine: a flush error
// surfaces directly from Submit or Close.
type BatchWriter struct {
	db     *sql.DB
	buf    []WriteFunc
	cap    int
	closed bool
}

// NewBatchWriter creates a BatchWriter flushing every batchSize
// submissions.
func NewBatchWriter(db *sql.DB, batchSize int) *BatchWriter {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &BatchWriter{
		db:  db,
		buf: make([]WriteFunc, 0, batchSize),
		cap: batchSize,
	}
}

// Submit enqueues a write callback, flushing if the buffer is full.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.buf = append(bw.buf, w)
	if len(bw.buf) >= bw.cap {
		return bw.flush()
	}
	return nil
}

// Close flushes whatever remains. The writer cannot be used afterwards.
func (bw *BatchWriter) Close() error {
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.closed = true
	return bw.flush()
}

func (bw *BatchWriter) flush() error {
	if len(bw.buf) == 0 {
		return nil
	}
	batch := bw.buf
	bw.buf = make([]WriteFunc, 0, bw.cap)

	ctx := context.Background()
	tx, err := bw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch (%d items): %w", len(batch), err)
	}
	return nil
}
