package audit

import (
	"sync"

	"go-dataset-registry/internal/model"
)

// MemSink keeps entries in memory. Tests inject it in place of the file
// sink; FailNext simulates a sink outage.
type MemSink struct {
	mu      sync.Mutex
	entries []model.AuditEntry
	failErr error
}

func NewMemSink() *MemSink {
	return &MemSink{}
}

func (s *MemSink) Append(entry model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failErr != nil {
		return s.failErr
	}

	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a copy of everything appended so far.
func (s *MemSink) Entries() []model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.AuditEntry(nil), s.entries...)
}

// FailWith makes every subsequent Append return err; nil restores normal
// behavior.
func (s *MemSink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failErr = err
}
