package service

import (
	"sync"

	"go-dataset-registry/internal/model"
)

const DefaultSessionLogSize = 100

// SessionLog keeps the most recent operations each user performed during the
// current server run, for the "what did I just do" panel. It is bounded per
// user and process-local; the durable trail lives in the audit sinks.
type SessionLog struct {
	capacity int
	mu       sync.RWMutex
	byUser   map[string][]model.AuditEntry
}

func NewSessionLog(capacity int) *SessionLog {
	if capacity <= 0 {
		capacity = DefaultSessionLogSize
	}
	return &SessionLog{
		capacity: capacity,
		byUser:   map[string][]model.AuditEntry{},
	}
}

// Append records entry under user, evicting the oldest entry once the
// per-user capacity is reached.
func (l *SessionLog) Append(user string, entry model.AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := append(l.byUser[user], entry)
	if len(entries) > l.capacity {
		entries = append([]model.AuditEntry(nil), entries[len(entries)-l.capacity:]...)
	}
	l.byUser[user] = entries
}

// Operations returns user's recorded operations, newest first.
func (l *SessionLog) Operations(user string) []model.AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.byUser[user]
	out := make([]model.AuditEntry, len(entries))
	for i, entry := range entries {
		out[len(entries)-1-i] = entry
	}
	return out
}

// Clear drops user's recorded operations, typically on logout.
func (l *SessionLog) Clear(user string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.byUser, user)
}
