package record

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	recordModel "github.com/liuyint/policydesk/internal/model/record"
)

// Writer appends round records to an append-only CSV destination. It
// never reads the destination back and never truncates it.
type Writer struct {
	mu   sync.Mutex
	path string
}

// NewWriter returns a writer bound to the destination path. Call Init
// before the first Append.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the destination the writer appends to.
func (w *Writer) Path() string {
	return w.path
}

// Init creates the destination with the fixed header row when it does
// not exist yet. An existing destination is left untouched, so Init is
// safe to call at every session start.
func (w *Writer) Init() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return fmt.Errorf("create session log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(recordModel.Header); err != nil {
		return fmt.Errorf("write session log header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write session log header: %w", err)
	}
	return nil
}

// Append writes one serialized row. The row is encoded in memory first
// and handed to the O_APPEND file in a single write, so concurrent
// sessions sharing the writer never interleave partial rows.
func (w *Writer) Append(rec recordModel.Record) error {
	row, err := rec.Row()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("encode round record: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("encode round record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append round record: %w", err)
	}
	return nil
}
