// Package storage provides the append-only CSV ledger behind the complaint desk.
//
// File format:
//   - UTF-8, comma-delimited, header row first
//   - One record per line, RFC 4180 quoting for delimiters, quotes and newlines
//
// Write rules:
//   - Rows are only ever appended (O_APPEND); existing bytes are never rewritten
//   - The header is written when the file is missing or empty
//   - Each append is a single Write call carrying one encoded row
//   - Values may not contain '\r': readers fold CRLF inside quoted fields to
//     LF, so such a value would not read back as written
//
// Reads are tolerant (lazy quotes, ragged rows) so a hand-edited file still
// yields its ticket IDs.
package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	cderrors "complaintdesk/internal/errors"
)

// ErrSchemaMismatch is wrapped in a FileIOError when an existing file's
// header differs from the ledger's column set.
var ErrSchemaMismatch = errors.New("header does not match expected columns")

// Ledger is an append-only CSV file with a fixed header.
//
// Thread-safety:
//   - A mutex serialises appends and reads within one process
//   - Nothing coordinates separate processes; one user at a time is assumed
type Ledger struct {
	mu     sync.Mutex
	path   string
	header []string
	log    *slog.Logger
}

// New creates a ledger bound to path. The file is created lazily on the
// first Append.
func New(path string, header []string, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		path:   path,
		header: slices.Clone(header),
		log:    log,
	}
}

// Path returns the file location.
func (l *Ledger) Path() string {
	return l.path
}

// Header returns a copy of the column names.
func (l *Ledger) Header() []string {
	return slices.Clone(l.header)
}

// Append writes one row at the end of the file.
//
// Flow:
//  1. Open in append mode (creating the file if needed)
//  2. Empty file: prepend the header; non-empty file: verify its header
//  3. If the last byte on disk is not a newline, start the row on a new line
//  4. Encode and write everything in one call
//
// Returns:
//   - error: InvalidFieldError for a value containing '\r', FileIOError on
//     any I/O failure or header mismatch
func (l *Ledger) Append(ctx context.Context, row []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(row) != len(l.header) {
		return fmt.Errorf("row has %d fields, ledger has %d columns", len(row), len(l.header))
	}
	for i, v := range row {
		if strings.ContainsRune(v, '\r') {
			return cderrors.NewInvalidFieldError(l.header[i], "carriage returns cannot be stored")
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return cderrors.NewFileIOError("open", l.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return cderrors.NewFileIOError("stat", l.path, err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if info.Size() == 0 {
		if err := writer.Write(l.header); err != nil {
			return err
		}
		l.log.Info("📋 Created ledger with header", "path", l.path, "columns", len(l.header))
	} else {
		existing, err := readHeader(file)
		if err != nil {
			return cderrors.NewFileIOError("read header", l.path, err)
		}
		if !slices.Equal(existing, l.header) {
			return cderrors.NewFileIOError("append", l.path, ErrSchemaMismatch)
		}
		terminated, err := endsWithNewline(file, info.Size())
		if err != nil {
			return cderrors.NewFileIOError("read tail", l.path, err)
		}
		if !terminated {
			buf.WriteByte('\n')
		}
	}

	if err := writer.Write(row); err != nil {
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	if _, err := file.Write(buf.Bytes()); err != nil {
		return cderrors.NewFileIOError("append", l.path, err)
	}
	return nil
}

// ReadAll returns every data row (header excluded).
//
// A missing file is an empty ledger, not an error.
func (l *Ledger) ReadAll(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cderrors.NewFileIOError("open", l.path, err)
	}
	defer file.Close()

	rows, err := newReader(file).ReadAll()
	if err != nil {
		return nil, cderrors.NewFileIOError("read", l.path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

// Column returns the values of the named column for every data row.
//
// When the file's header lacks the column, every cell of every row is
// returned instead so identifiers can still be found in odd layouts.
func (l *Ledger) Column(ctx context.Context, name string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cderrors.NewFileIOError("open", l.path, err)
	}
	defer file.Close()

	rows, err := newReader(file).ReadAll()
	if err != nil {
		return nil, cderrors.NewFileIOError("read", l.path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx := slices.Index(rows[0], name)
	var values []string
	for _, row := range rows[1:] {
		if idx < 0 {
			values = append(values, row...)
			continue
		}
		if idx < len(row) {
			values = append(values, row[idx])
		}
	}
	return values, nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

func readHeader(file *os.File) ([]string, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	header, err := newReader(file).Read()
	if err == io.EOF {
		return nil, nil
	}
	return header, err
}

func endsWithNewline(file *os.File, size int64) (bool, error) {
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, size-1); err != nil {
		return false, err
	}
	return last[0] == '\n', nil
}
