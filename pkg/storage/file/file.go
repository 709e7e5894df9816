// Package file provides a storage.Sink backed by two append-only text files.
package file

import (
	"bucketscan/pkg/domain"
	"bucketscan/pkg/storage"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// Options defines where findings and errors are appended.
type Options struct {
	// FindingsPath is the findings output, one URL per line.
	FindingsPath string
	// ErrorsPath is the errors output, one "<ErrorKind>: <domain>" per line.
	ErrorsPath string
}

// stream is one append-only file guarded by its own mutex so a line is always
// written by a single Write call without interleaving.
type stream struct {
	mu     sync.Mutex
	f      *os.File
	closed bool
}

func openStream(path string) (*stream, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint: gosec
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}

	return &stream{f: f}, nil
}

func (s *stream) append(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	if _, err := s.f.WriteString(line); err != nil {
		return fmt.Errorf("could not append to %s: %w", s.f.Name(), err)
	}

	return nil
}

func (s *stream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.f.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", s.f.Name(), err)
	}

	return nil
}

// Sink implements storage.Sink on top of the findings and errors files.
// The files stay open for the lifetime of the sink.
type Sink struct {
	findings *stream
	errors   *stream
}

// AppendFinding appends f to the findings file.
func (s *Sink) AppendFinding(_ context.Context, f domain.Finding) error {
	return s.findings.append(f.Line())
}

// AppendError appends r to the errors file.
func (s *Sink) AppendError(_ context.Context, r domain.ErrorRecord) error {
	return s.errors.append(r.Line())
}

// Close closes both files. Calling Close more than once is a no-op.
func (s *Sink) Close() error {
	return errors.Join(s.findings.close(), s.errors.close())
}

// Ensure Sink conforms to the storage.Sink interface at compile time.
var _ storage.Sink = (*Sink)(nil)

// New opens (creating if needed) the findings and errors files in append mode.
func New(options Options) (*Sink, error) {
	findings, err := openStream(options.FindingsPath)
	if err != nil {
		return nil, err
	}

	errs, err := openStream(options.ErrorsPath)
	if err != nil {
		_ = findings.close()

		return nil, err
	}

	return &Sink{findings: findings, errors: errs}, nil
}

// Touch creates an empty file at path when none exists. Existing files are
// left untouched.
func Touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644) //nolint: gosec
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}

		return fmt.Errorf("could not create %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", path, err)
	}

	return nil
}
