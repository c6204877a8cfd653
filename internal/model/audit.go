package model

import "time"

// Audit operation kinds.
const (
	OpMerge   = "MERGE"
	OpReplace = "REPLACE"
	OpDelete  = "DELETE"
)

// AuditEntry is one immutable record of a mutating dataset operation. It is
// appended to the durable audit sink and returned to the caller, which keeps
// its own session-scoped list for display.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	DataType  string    `json:"data_type"`
	User      string    `json:"user"`
	Details   string    `json:"details"`
}

type AuditQuery struct {
	Operation string
	DataType  string
	User      string
	From      string
	To        string
	Page      int
	Limit     int
}

type AuditListData struct {
	Items []AuditEntry `json:"items"`
}
