// Package csv reads and writes the intermediate sales file.
//
// The intermediate file is RFC 4180 CSV with a header line. It is the hand-off
// between the transform and load halves of the pipeline, and the same encoder
// produces the buffer streamed to the database bulk-copy command.
package csv

import (
	"bytes"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/salesload/internal/core"
)

// Encode writes t to w, header first unless header is false.
func Encode(w io.Writer, t *core.Table, header bool) error {
	cw := stdcsv.NewWriter(w)
	if header {
		if err := cw.Write(t.Columns); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// Buffer encodes t's rows, without header, into memory.
func Buffer(t *core.Table) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, t, false); err != nil {
		return nil, err
	}
	return &buf, nil
}

// Write serializes t to path. The data goes to a temporary file in the same
// directory which then replaces path, so readers never see a half-written file.
func Write(path string, t *core.Table) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = Encode(tmp, t, true); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Decode reads a CSV stream whose first record is the header.
func Decode(r io.Reader) (*core.Table, error) {
	cr := stdcsv.NewReader(core.NewCleanTextReader(r))

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = core.CleanCell(header[i])
	}

	t, err := core.NewTable(header)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		t.Append(rec)
	}
	return t, nil
}

// ReadTable reads the CSV file at path.
func ReadTable(path string) (*core.Table, error) {
	t, _, err := ReadTableCount(path)
	return t, err
}

// ReadTableCount is ReadTable that also reports how many bytes were read.
func ReadTableCount(path string) (*core.Table, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	cr := core.NewCountingReader(f)
	t, err := Decode(cr)
	if err != nil {
		return nil, cr.BytesRead, fmt.Errorf("%s: %w", path, err)
	}
	return t, cr.BytesRead, nil
}
