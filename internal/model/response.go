package model

// APIResponse is the envelope every JSON endpoint answers with. Download
// endpoints (templates, data files, backups, the template archive) bypass it
// and stream raw bytes instead.
type APIResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

// APIError carries the machine-readable failure. Details holds operation
// context such as the missing column list of a rejected upload.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta describes the page window of a list response.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// PageMeta derives the page count from the filtered total. Limit must be
// positive; query normalization upstream guarantees that.
func PageMeta(page int, limit int, total int) Meta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
