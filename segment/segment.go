// Package segment manages the physical append-only segment files.
//
// A segment holds all records of one type for one calendar month, one JSON
// object per newline-terminated line. Line numbers are a logical addressing
// scheme over this sequential format: they are 1-based ("the Nth record
// written") on every path, and positional reads are bounded scans from the
// start of the file. Segments are never rewritten in place except through
// Replace, which goes through a temporary sibling file and an atomic rename.
package segment

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/memlog/model"
)

// Ext is the segment file extension.
const Ext = ".jsonl"

var (
	// ErrNotFound is returned when a segment or a line within it does not exist.
	ErrNotFound = errors.New("segment line not found")

	// ErrStop can be returned from a Scan callback to stop the scan early
	// without reporting an error.
	ErrStop = errors.New("stop scan")
)

// Scanner buffer sizing: lines hold full serialized records, which can carry
// embeddings, so allow generously sized lines.
const (
	scanInitBuf = 64 * 1024
	scanMaxBuf  = 16 * 1024 * 1024
)

// Name returns the deterministic segment name for a record type and
// timestamp: "{type}_{YYYY}_{MM}.jsonl". Boundaries are purely
// calendar-based, never size-based.
func Name(t model.RecordType, ts time.Time) string {
	return fmt.Sprintf("%s_%d_%02d%s", t, ts.Year(), int(ts.Month()), Ext)
}

// ParseName splits a segment file name back into its type and month.
func ParseName(name string) (t model.RecordType, year int, month time.Month, ok bool) {
	base, found := strings.CutSuffix(name, Ext)
	if !found {
		return "", 0, 0, false
	}

	parts := strings.Split(base, "_")
	if len(parts) != 3 {
		return "", 0, 0, false
	}

	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, false
	}
	m, err := strconv.Atoi(parts[2])
	if err != nil || m < 1 || m > 12 {
		return "", 0, 0, false
	}

	t = model.RecordType(parts[0])
	if !t.Valid() {
		return "", 0, 0, false
	}
	return t, y, time.Month(m), true
}

// Store provides access to the segment files under a single root directory.
//
// Store performs no locking of its own: the engine serializes appends and
// replacements per segment, and concurrent reads are safe because positional
// reads never scan past what the file already contains.
type Store struct {
	dir  string
	sync bool
}

// NewStore opens (creating if necessary) a segment store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("segment store: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SetSync toggles fsync of segment writes: appends and replacements are
// flushed to stable storage before returning. Off by default; the OS page
// cache then decides when bytes hit the platter.
func (s *Store) SetSync(sync bool) { s.sync = sync }

// Dir returns the root directory of the store.
func (s *Store) Dir() string { return s.dir }

// Path returns the absolute path of a segment file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Append writes line plus a trailing newline to the named segment, creating
// the file if absent. The caller is responsible for deriving the resulting
// line number from its line counter; Append never re-reads the file.
func (s *Store) Append(name string, line []byte) error {
	f, err := os.OpenFile(s.Path(name), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	if _, err := f.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("append %s: %w", name, err)
	}
	if s.sync {
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return fmt.Errorf("append %s: %w", name, err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	return nil
}

// ReadAt returns a copy of the 1-based lineNumber-th line of the segment.
// Returns ErrNotFound if the segment or the line does not exist. The scan is
// O(lineNumber); acceptable because lookups are infrequent relative to
// appends and segments are month-bounded.
func (s *Store) ReadAt(name string, lineNumber int) ([]byte, error) {
	if lineNumber < 1 {
		return nil, fmt.Errorf("%w: %s:%d", ErrNotFound, name, lineNumber)
	}

	var out []byte
	err := s.Scan(name, func(line int, data []byte) error {
		if line == lineNumber {
			out = append([]byte(nil), data...)
			return ErrStop
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s:%d", ErrNotFound, name, lineNumber)
		}
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %s:%d", ErrNotFound, name, lineNumber)
	}
	return out, nil
}

// Scan invokes fn for every line of the segment in physical order, with
// 1-based line numbers. The data slice is only valid for the duration of the
// callback. Returning ErrStop from fn stops the scan without error. A final
// line lacking its newline is still delivered.
func (s *Store) Scan(name string, fn func(line int, data []byte) error) error {
	f, err := os.Open(s.Path(name))
	if err != nil {
		return fmt.Errorf("scan %s: %w", name, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, scanInitBuf), scanMaxBuf)

	line := 0
	for sc.Scan() {
		line++
		if err := fn(line, sc.Bytes()); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", name, err)
	}
	return nil
}

// List returns the names of all on-disk segments in lexicographic order,
// optionally restricted to those holding the given record type.
func (s *Store) List(typeFilter model.RecordType) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		t, _, _, ok := ParseName(name)
		if !ok {
			continue
		}
		if typeFilter != "" && t != typeFilter {
			continue
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

// Replace atomically replaces the segment's content: the new content is
// written to a temporary sibling file which is then renamed over the
// original, so no reader ever observes a partially written segment. With
// sync enabled the temporary file is flushed before the rename.
func (s *Store) Replace(name string, content []byte) error {
	path := s.Path(name)
	tmp := path + ".tmp"

	if err := s.writeFile(tmp, content); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (s *Store) writeFile(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return err
	}
	if s.sync {
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return err
		}
	}
	return f.Close()
}

// CountLines counts the newline-delimited records physically present in the
// segment. A missing segment counts as zero lines.
func (s *Store) CountLines(name string) (int, error) {
	count := 0
	err := s.Scan(name, func(int, []byte) error {
		count++
		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// Size returns the on-disk byte size of the segment, or zero if absent.
func (s *Store) Size(name string) (int64, error) {
	info, err := os.Stat(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("size %s: %w", name, err)
	}
	return info.Size(), nil
}

// ReadAll returns the full raw content of the segment.
func (s *Store) ReadAll(name string) ([]byte, error) {
	b, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}
