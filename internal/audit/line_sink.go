package audit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go-dataset-registry/internal/model"
)

// timeLayout is the timestamp format used in the audit log file.
const timeLayout = "2006-01-02 15:04:05"

// LineSink appends entries to a plain text file, one line per entry:
//
//	2025-08-25 10:15:30 | Operation: MERGE | Data Type: AI Tutor | User: jane | Details: Added 3 records, Total: 10
//
// The format is stable; Scan parses it back for the query fallback when no
// database mirror is configured.
type LineSink struct {
	filePath string
	mu       sync.Mutex
}

func NewLineSink(filePath string) (*LineSink, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare audit directory: %w", err)
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := os.WriteFile(filePath, []byte{}, 0o644); err != nil {
			return nil, fmt.Errorf("initialize audit file: %w", err)
		}
	}

	return &LineSink{filePath: filePath}, nil
}

func (s *LineSink) FilePath() string {
	return s.filePath
}

func (s *LineSink) Append(entry model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}

	if _, err := f.WriteString(FormatLine(entry) + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("append audit entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync audit log: %w", err)
	}

	return f.Close()
}

// Scan reads every entry back from the file, skipping malformed lines.
func (s *LineSink) Scan() ([]model.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	entries := make([]model.AuditEntry, 0, 128)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		entry, parseErr := ParseLine(line)
		if parseErr != nil {
			continue
		}
		entries = append(entries, entry)
	}

	if scanErr := scanner.Err(); scanErr != nil {
		return nil, fmt.Errorf("scan audit log: %w", scanErr)
	}
	return entries, nil
}

// FormatLine renders one entry in the audit log's line format.
func FormatLine(entry model.AuditEntry) string {
	return fmt.Sprintf("%s | Operation: %s | Data Type: %s | User: %s | Details: %s",
		entry.Timestamp.Format(timeLayout), entry.Operation, entry.DataType, entry.User, entry.Details)
}

// ParseLine inverts FormatLine. Pipes inside the details field survive
// because details is always the final segment.
func ParseLine(line string) (model.AuditEntry, error) {
	parts := strings.SplitN(line, " | ", 5)
	if len(parts) != 5 {
		return model.AuditEntry{}, fmt.Errorf("audit line has %d segments, want 5", len(parts))
	}

	ts, err := time.ParseInLocation(timeLayout, parts[0], time.Local)
	if err != nil {
		return model.AuditEntry{}, fmt.Errorf("parse audit timestamp: %w", err)
	}

	operation, ok := strings.CutPrefix(parts[1], "Operation: ")
	if !ok {
		return model.AuditEntry{}, fmt.Errorf("missing operation label")
	}
	dataType, ok := strings.CutPrefix(parts[2], "Data Type: ")
	if !ok {
		return model.AuditEntry{}, fmt.Errorf("missing data type label")
	}
	user, ok := strings.CutPrefix(parts[3], "User: ")
	if !ok {
		return model.AuditEntry{}, fmt.Errorf("missing user label")
	}
	details, ok := strings.CutPrefix(parts[4], "Details: ")
	if !ok {
		return model.AuditEntry{}, fmt.Errorf("missing details label")
	}

	return model.AuditEntry{
		Timestamp: ts,
		Operation: operation,
		DataType:  dataType,
		User:      user,
		Details:   details,
	}, nil
}
