package logging

import (
	"fmt"
	"os"
	"sync"
)

// MaxLogFileBytes caps a rotating log file's size before it is rolled over
// to a .1 suffix.
const MaxLogFileBytes = 10 * 1024 * 1024

// RotatingFile is an io.Writer over a path that rolls the file over to
// path+".1" (overwriting any previous .1) once it grows past
// MaxLogFileBytes, and reopens a fresh file at path.
//
// No library in the retrieved pack offers size-capped file rotation, so
// this is a small hand-rolled sink built directly on os.File.
type RotatingFile struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	written  int64
	maxBytes int64
}

// NewRotatingFile opens path for appending, creating it if necessary.
func NewRotatingFile(path string) (*RotatingFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry/logging: open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("telemetry/logging: stat log file: %w", err)
	}
	return &RotatingFile{
		path:     path,
		file:     f,
		written:  info.Size(),
		maxBytes: MaxLogFileBytes,
	}, nil
}

func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.written+int64(len(p)) > r.maxBytes {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := r.file.Write(p)
	r.written += int64(n)
	return n, err
}

func (r *RotatingFile) rotate() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("telemetry/logging: close log file before rotation: %w", err)
	}

	backup := r.path + ".1"
	if err := os.Rename(r.path, backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("telemetry/logging: rotate log file: %w", err)
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("telemetry/logging: reopen log file after rotation: %w", err)
	}
	r.file = f
	r.written = 0
	return nil
}

// Close closes the underlying file.
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
