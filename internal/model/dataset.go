package model

import "time"

// DatasetInfo describes one registered dataset type for the listing API.
type DatasetInfo struct {
	Name         string   `json:"name"`
	DataFile     string   `json:"data_file"`
	TemplateFile string   `json:"template_file"`
	Columns      []string `json:"columns"`
}

// Validation is the outcome of a column-set check against a schema. Missing
// columns flip OK; extra columns only produce a warning.
type Validation struct {
	OK      bool     `json:"ok"`
	Message string   `json:"message"`
	Missing []string `json:"missing_columns,omitempty"`
	Extra   []string `json:"extra_columns,omitempty"`
	Warning string   `json:"warning,omitempty"`
}

// DatasetSummary is one row of the registry-wide summary report. Records is
// a pointer so that an absent file still reports an explicit zero while a
// per-type read error reports no count at all.
type DatasetSummary struct {
	Records      *int   `json:"records,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	FileSize     string `json:"file_size,omitempty"`
	Status       string `json:"status,omitempty"`
	Error        string `json:"error,omitempty"`
}

type DatasetListData struct {
	Items []DatasetInfo `json:"items"`
}

// BackupInfo describes one timestamped pre-delete snapshot.
type BackupInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	SizeHuman  string    `json:"size_human"`
	ModifiedAt time.Time `json:"modified_at"`
}

type BackupListData struct {
	DataType string       `json:"data_type"`
	Items    []BackupInfo `json:"items"`
}

type MergeResponse struct {
	DataType string      `json:"data_type"`
	Added    int         `json:"added"`
	Total    int         `json:"total"`
	Warnings []string    `json:"warnings,omitempty"`
	Entry    *AuditEntry `json:"audit_entry,omitempty"`
}

type ReplaceResponse struct {
	DataType string      `json:"data_type"`
	Records  int         `json:"records"`
	Warnings []string    `json:"warnings,omitempty"`
	Entry    *AuditEntry `json:"audit_entry,omitempty"`
}

type DeleteResponse struct {
	DataType string      `json:"data_type"`
	Backup   string      `json:"backup"`
	Entry    *AuditEntry `json:"audit_entry,omitempty"`
}
