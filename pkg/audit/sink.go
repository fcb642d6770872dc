// Package audit persists run artifacts: the incremental list of accepted
// duplicate comparisons and the final aggregate report.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

// Sink receives every comparison worth keeping for offline inspection. Flush
// forces buffered entries to disk; Close finalizes the artifact. The signal
// handler only ever calls Flush and Close, never orchestration internals.
type Sink interface {
	Record(comparison models.Comparison) error
	Flush() error
	Close() error
}

// FileSink streams comparisons into a JSON array on disk, one entry at a
// time, so an interrupted run still yields every comparison recorded before
// the interruption once Close runs.
type FileSink struct {
	mu     sync.Mutex
	file   *os.File
	count  int
	closed bool
}

// NewFileSink creates the output file and opens the JSON array
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit file: %w", err)
	}
	if _, err := file.WriteString("[\n"); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write audit file: %w", err)
	}
	return &FileSink{file: file}, nil
}

// Record appends one comparison to the array
func (s *FileSink) Record(comparison models.Comparison) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("audit sink is closed")
	}

	entry, err := json.Marshal(comparison)
	if err != nil {
		return fmt.Errorf("failed to marshal comparison: %w", err)
	}
	if s.count > 0 {
		if _, err := s.file.WriteString(",\n"); err != nil {
			return fmt.Errorf("failed to write audit entry: %w", err)
		}
	}
	if _, err := s.file.Write(entry); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	s.count++
	return nil
}

// Flush pushes written entries through to disk
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync audit file: %w", err)
	}
	return nil
}

// Close terminates the JSON array and closes the file. Close is idempotent.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if _, err := s.file.WriteString("\n]\n"); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to finalize audit file: %w", err)
	}
	return s.file.Close()
}

// WriteReport writes a final aggregate report as indented JSON.
func WriteReport(path string, report any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
