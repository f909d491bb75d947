package mapreduce

import (
	"context"
	"errors"
	"fmt"
	"github.com/litetable/litetable-extract/internal/litetable"
)

var (
	ErrWriterClosed = errors.New("writer is closed")
	errWriterFailed = errors.New("writer discarded after a failed put")
)

// TableWriter buffers puts and commits them per row on Close. A writer that saw a failed Put
// never commits anything.
type TableWriter struct {
	output Output
	ctx    context.Context

	rows   []string
	cells  map[string][]litetable.Cell
	failed error
	closed bool
}

// Put buffers a single cell.
func (w *TableWriter) Put(rowKey, family, qualifier string, value []byte) error {
	if w.closed {
		return ErrWriterClosed
	}

	var err error
	switch {
	case rowKey == "":
		err = errors.New("row key is required")
	case family == "":
		err = fmt.Errorf("family is required for row %s", rowKey)
	case qualifier == "":
		err = fmt.Errorf("qualifier is required for %s in row %s", family, rowKey)
	}
	if err != nil {
		if w.failed == nil {
			w.failed = err
		}
		return err
	}

	if w.cells == nil {
		w.cells = make(map[string][]litetable.Cell)
	}
	if _, exists := w.cells[rowKey]; !exists {
		w.rows = append(w.rows, rowKey)
	}
	w.cells[rowKey] = append(w.cells[rowKey], litetable.Cell{
		Family:    family,
		Qualifier: qualifier,
		Value:     value,
	})
	return nil
}

// Close flushes the buffered cells, one atomic commit per row, and releases the writer.
// Closing twice is a no-op.
func (w *TableWriter) Close() error {
	return w.close()
}

func (w *TableWriter) close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	defer w.reset()

	if w.failed != nil {
		return fmt.Errorf("%w: %v", errWriterFailed, w.failed)
	}

	ctx := w.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	for _, rowKey := range w.rows {
		if err := w.output.Commit(ctx, rowKey, w.cells[rowKey]); err != nil {
			return fmt.Errorf("failed to commit row %s: %w", rowKey, err)
		}
	}
	return nil
}

// Abort releases the writer without committing.
func (w *TableWriter) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	w.reset()
}

func (w *TableWriter) reset() {
	w.rows = nil
	w.cells = nil
}
