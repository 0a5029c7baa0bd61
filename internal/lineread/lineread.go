// Package lineread produces lines from a file via a memory-mapped fast path
// or a buffered fallback, plus a "whole-contents" view used by the fuzzy
// pre-filter in internal/matcher.
package lineread

import (
	"bufio"
	"bytes"
	"io"
	"iter"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/blevesearch/mmap-go"
)

// Line is one logical line: the terminator already stripped.
type Line struct {
	Number int
	Text   string
}

// Reader is implemented by all reader variants: Mapped, Buffered, Zero, and
// Stdin.
type Reader interface {
	Path() string
	// Map returns the full file contents as a byte slice, and whether this
	// reader variant supports it at all.
	Map() ([]byte, bool)
	Lines() iter.Seq[Line]
	Close() error
}

// Open picks the reader variant for a file of the given size: Zero for
// empty files, Mapped when mmap succeeds, Buffered otherwise.
func Open(path string, size int64, logger *slog.Logger) (Reader, error) {
	if size == 0 {
		return &zeroReader{path: path}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		if logger != nil {
			logger.Debug("mmap failed, falling back to buffered reader", "path", path, "err", err)
		}
		if seekErr := seekStart(f); seekErr != nil {
			_ = f.Close()
			return nil, seekErr
		}
		return &bufferedReader{path: path, f: f, logger: logger}, nil
	}
	return &mappedReader{path: path, f: f, data: m, logger: logger}, nil
}

func seekStart(f *os.File) error {
	_, err := f.Seek(0, io.SeekStart)
	return err
}

type zeroReader struct{ path string }

func (z *zeroReader) Path() string       { return z.path }
func (z *zeroReader) Map() ([]byte, bool) { return []byte{}, true }
func (z *zeroReader) Lines() iter.Seq[Line] {
	return func(yield func(Line) bool) {}
}
func (z *zeroReader) Close() error { return nil }

type mappedReader struct {
	path   string
	f      *os.File
	data   mmap.MMap
	logger *slog.Logger
}

func (m *mappedReader) Path() string        { return m.path }
func (m *mappedReader) Map() ([]byte, bool) { return []byte(m.data), true }

func (m *mappedReader) Lines() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		data := []byte(m.data)
		lineNo := 0
		start := 0
		for start <= len(data) {
			nl := bytes.IndexByte(data[start:], '\n')
			var raw []byte
			if nl < 0 {
				if start == len(data) {
					break
				}
				raw = data[start:]
				start = len(data) + 1
			} else {
				raw = data[start : start+nl]
				start += nl + 1
			}
			raw = bytes.TrimSuffix(raw, []byte("\r"))
			lineNo++
			text := decodeLossy(raw, m.path, lineNo, m.logger)
			if !yield(Line{Number: lineNo, Text: text}) {
				return
			}
		}
	}
}

func (m *mappedReader) Close() error {
	if err := m.data.Unmap(); err != nil {
		_ = m.f.Close()
		return err
	}
	return m.f.Close()
}

// decodeLossy returns s as-is when it is valid UTF-8; otherwise logs the
// byte range and returns a per-byte-as-rune transcription so the scan can
// continue instead of aborting the file.
func decodeLossy(raw []byte, path string, lineNo int, logger *slog.Logger) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	if logger != nil {
		logger.Debug("invalid utf-8 in line, using lossy transcription", "path", path, "line", lineNo)
	}
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}

type bufferedReader struct {
	path   string
	f      *os.File
	logger *slog.Logger
}

func (b *bufferedReader) Path() string        { return b.path }
func (b *bufferedReader) Map() ([]byte, bool) { return nil, false }

func (b *bufferedReader) Lines() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		scanner := bufio.NewScanner(b.f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024*16)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			raw := bytes.TrimSuffix(scanner.Bytes(), []byte("\r"))
			text := decodeLossy(raw, b.path, lineNo, b.logger)
			if !yield(Line{Number: lineNo, Text: text}) {
				return
			}
		}
		if err := scanner.Err(); err != nil && b.logger != nil {
			b.logger.Warn("error reading file, ending scan", "path", b.path, "err", err)
		}
	}
}

func (b *bufferedReader) Close() error { return b.f.Close() }

// NewStdin wraps os.Stdin as a buffered reader with a display path of
// "<stdin>".
func NewStdin(logger *slog.Logger) Reader {
	return &bufferedReader{path: "<stdin>", f: os.Stdin, logger: logger}
}

// IsBinary applies the NUL-byte heuristic over the given prefix (the first
// 1024 bytes, by convention).
func IsBinary(prefix []byte) bool {
	n := len(prefix)
	if n > 1024 {
		n = 1024
	}
	return bytes.IndexByte(prefix[:n], 0) >= 0
}
