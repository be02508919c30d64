package diagnostics

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// memorySink accumulates rendered records for the notification body.
type memorySink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *memorySink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *memorySink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *memorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

// fileSink appends to a file. A lazy sink creates the file on the first
// write. Writes after Close are discarded.
type fileSink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// newExclusiveFileSink creates path and fails with os.ErrExist when it is
// already there.
func newExclusiveFileSink(path string) (*fileSink, error) {
	sink := &fileSink{path: path}
	if err := sink.open(os.O_EXCL); err != nil {
		return nil, err
	}
	return sink, nil
}

func newLazyFileSink(path string) *fileSink {
	return &fileSink{path: path}
}

func (s *fileSink) open(flag int) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND|flag, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	s.file = file
	return nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return len(p), nil
	}
	if s.file == nil {
		if err := s.open(0); err != nil {
			return 0, err
		}
	}
	return s.file.Write(p)
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
