package service

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"go-dataset-registry/internal/audit"
	"go-dataset-registry/internal/model"
	"go-dataset-registry/pkg/apierror"
)

// AuditStore is a filtered, paginated query surface over durable audit
// entries. The database mirror implements it; zero from/to times mean
// unbounded.
type AuditStore interface {
	Query(ctx context.Context, query model.AuditQuery, from time.Time, to time.Time) ([]model.AuditEntry, model.Meta, error)
}

// AuditService answers audit trail queries. When a database mirror is
// configured it is the query backend; otherwise the line file is scanned and
// filtered in process.
type AuditService struct {
	lines *audit.LineSink
	store AuditStore
}

func NewAuditService(lines *audit.LineSink, store AuditStore) *AuditService {
	return &AuditService{lines: lines, store: store}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	from, err := parseOptionalQueryTime(query.From)
	if err != nil {
		return nil, model.Meta{}, apierror.New("BAD_REQUEST", "invalid 'from' datetime format", query.From, http.StatusBadRequest)
	}

	to, err := parseOptionalQueryTime(query.To)
	if err != nil {
		return nil, model.Meta{}, apierror.New("BAD_REQUEST", "invalid 'to' datetime format", query.To, http.StatusBadRequest)
	}

	if s.store != nil {
		return s.store.Query(ctx, query, from, to)
	}

	entries, err := s.lines.Scan()
	if err != nil {
		return nil, model.Meta{}, err
	}

	operation := strings.ToUpper(strings.TrimSpace(query.Operation))
	dataType := strings.TrimSpace(query.DataType)
	user := strings.TrimSpace(query.User)

	// The file appends chronologically, so walking it backwards keeps newest
	// first even when the one-second line resolution produces timestamp ties.
	items := make([]model.AuditEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if operation != "" && entry.Operation != operation {
			continue
		}
		if dataType != "" && !strings.EqualFold(entry.DataType, dataType) {
			continue
		}
		if user != "" && entry.User != user {
			continue
		}
		if !from.IsZero() && entry.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && entry.Timestamp.After(to) {
			continue
		}
		items = append(items, entry)
	}

	sort.SliceStable(items, func(i int, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	total := len(items)
	start := (query.Page - 1) * query.Limit
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}

	return items[start:end], model.PageMeta(query.Page, query.Limit, total), nil
}

// parseOptionalQueryTime accepts RFC3339 variants plus the audit line's own
// timestamp layout.
func parseOptionalQueryTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}

	if value, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return value, nil
	}
	if value, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return value, nil
	}
	if value, err := time.ParseInLocation("2006-01-02 15:04:05", trimmed, time.Local); err == nil {
		return value, nil
	}

	return time.ParseInLocation("2006-01-02", trimmed, time.Local)
}
