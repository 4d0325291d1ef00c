package core

// streaming.go provides reader wrappers for text extracts.
//
// The wrappers avoid loading a whole file to clean it:
//
//   - CleanTextReader: drops a leading UTF-8 BOM and replaces invalid UTF-8
//     bytes with '?' so encoding/csv never sees broken runes
//   - CountingReader: tracks bytes read for the run summary

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CleanTextReader strips a UTF-8 BOM and sanitizes invalid UTF-8.
type CleanTextReader struct {
	src        *bufio.Reader
	bomChecked bool
	pending    []byte // encoded runes not yet returned
}

// NewCleanTextReader wraps r.
func NewCleanTextReader(r io.Reader) *CleanTextReader {
	return &CleanTextReader{src: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (r *CleanTextReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if !r.bomChecked {
		r.bomChecked = true
		if head, _ := r.src.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
			_, _ = r.src.Discard(len(utf8BOM))
		}
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]

	var enc [utf8.UTFMax]byte
	for n < len(p) {
		ru, size, err := r.src.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		if ru == utf8.RuneError && size == 1 {
			ru = '?'
		}
		w := utf8.EncodeRune(enc[:], ru)
		c := copy(p[n:], enc[:w])
		n += c
		if c < w {
			r.pending = append(r.pending, enc[c:w]...)
		}
	}
	return n, nil
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}
