package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	sessionFileLayout = "2006-01-02_15-04-05"
	recordLayout      = "2006-01-02 15:04:05"
	recordSeparator   = "---"
)

// SessionLog appends phrase records to a per-session text file
type SessionLog struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *bufio.Writer
}

// SessionLogPath returns the log file path for a session started at start
func SessionLogPath(dir string, start time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("session_%s.txt", start.Format(sessionFileLayout)))
}

// OpenSessionLog creates dir if needed and opens the log file for a session started at start
func OpenSessionLog(dir string, start time.Time) (*SessionLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	path := SessionLogPath(dir, start)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}

	return &SessionLog{
		path:   path,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Record writes one phrase: the timestamped original, the timestamped
// translation when there is one, then a separator line. The record is
// flushed before Record returns.
func (s *SessionLog) Record(at time.Time, original, translated string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer == nil {
		return fmt.Errorf("session log closed")
	}

	stamp := at.Format(recordLayout)
	fmt.Fprintf(s.writer, "[%s] %s\n", stamp, original)
	if translated != "" {
		fmt.Fprintf(s.writer, "[%s] %s\n", stamp, translated)
	}
	fmt.Fprintln(s.writer, recordSeparator)

	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("failed to write session log: %w", err)
	}
	return nil
}

// Path returns the log file path
func (s *SessionLog) Path() string {
	return s.path
}

// Close flushes and closes the file. Closing twice is a no-op.
func (s *SessionLog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}

	flushErr := s.writer.Flush()
	closeErr := s.file.Close()
	s.file = nil
	s.writer = nil

	if flushErr != nil {
		return fmt.Errorf("failed to flush session log: %w", flushErr)
	}
	return closeErr
}
