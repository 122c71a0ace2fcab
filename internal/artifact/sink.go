// Package artifact persists agent responses as markdown files.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Sink persists a named piece of text and reports where it went.
type Sink interface {
	Save(name, content string) (string, error)
}

// ErrPersistence is the Is target for every save failure.
var ErrPersistence = errors.New("persistence failed")

// PersistenceError reports a failed save.
type PersistenceError struct {
	Name string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save %s to %s: %v", e.Name, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// RunDirLayout is the timestamp layout for per-run output directories.
const RunDirLayout = "20060102_1504"

// RunDir returns the per-run output directory under base for t.
func RunDir(base string, t time.Time) string {
	return filepath.Join(base, t.Format(RunDirLayout))
}

// FileSink writes each artifact to <dir>/<name>.md.
// Content lands in a temp file first and is renamed into place, so
// concurrent saves of distinct names never interleave and a repeated
// save of one name replaces the old file whole.
type FileSink struct {
	dir string

	mkdirOnce sync.Once
	mkdirErr  error
}

// NewFileSink returns a sink rooted at dir. The directory is created on
// the first save.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Dir returns the directory artifacts are written to.
func (s *FileSink) Dir() string {
	return s.dir
}

// Save writes content under name and returns the file path.
func (s *FileSink) Save(name, content string) (string, error) {
	path := filepath.Join(s.dir, name+".md")
	if name == "" || filepath.Base(name) != name {
		return "", &PersistenceError{Name: name, Path: path, Err: fmt.Errorf("invalid artifact name")}
	}

	s.mkdirOnce.Do(func() {
		s.mkdirErr = os.MkdirAll(s.dir, 0755)
	})
	if s.mkdirErr != nil {
		return "", &PersistenceError{Name: name, Path: path, Err: s.mkdirErr}
	}

	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return "", &PersistenceError{Name: name, Path: path, Err: err}
	}
	return path, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// suffixSink appends a fixed suffix to every name.
type suffixSink struct {
	next   Sink
	suffix string
}

// WithSuffix returns a sink that saves name+suffix to next.
// An empty suffix returns next unchanged.
func WithSuffix(next Sink, suffix string) Sink {
	if suffix == "" {
		return next
	}
	return &suffixSink{next: next, suffix: suffix}
}

func (s *suffixSink) Save(name, content string) (string, error) {
	return s.next.Save(name+s.suffix, content)
}

// ForPass keeps refinement passes from overwriting the first pass's files.
// Pass 1 names are left alone; later passes get a _pass<n> suffix.
func ForPass(next Sink, pass int) Sink {
	return WithSuffix(next, passSuffix(pass))
}

// PassName returns the name ForPass saves name under for the given pass.
func PassName(name string, pass int) string {
	return name + passSuffix(pass)
}

func passSuffix(pass int) string {
	if pass <= 1 {
		return ""
	}
	return fmt.Sprintf("_pass%d", pass)
}
