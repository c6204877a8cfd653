package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-dataset-registry/internal/model"
)

const appendTimeout = 5 * time.Second

// AuditRepository mirrors audit entries into PostgreSQL for querying at
// scale. It satisfies both the sink interface (writes) and the audit query
// store (reads); the append-only line file stays the primary trail.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Append inserts one entry. The sink contract carries no context, so writes
// are bounded by their own timeout instead of the caller's request.
func (r *AuditRepository) Append(entry model.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_entries (occurred_at, operation, data_type, username, details)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.Timestamp, entry.Operation, entry.DataType, entry.User, entry.Details)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Query returns entries matching the filters, newest first. Zero from/to
// times mean unbounded.
func (r *AuditRepository) Query(ctx context.Context, query model.AuditQuery, from time.Time, to time.Time) ([]model.AuditEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	if operation := strings.TrimSpace(query.Operation); operation != "" {
		where = append(where, fmt.Sprintf("upper(operation) = upper($%d)", argIdx))
		args = append(args, operation)
		argIdx++
	}
	if dataType := strings.TrimSpace(query.DataType); dataType != "" {
		where = append(where, fmt.Sprintf("lower(data_type) = lower($%d)", argIdx))
		args = append(args, dataType)
		argIdx++
	}
	if user := strings.TrimSpace(query.User); user != "" {
		where = append(where, fmt.Sprintf("username = $%d", argIdx))
		args = append(args, user)
		argIdx++
	}
	if !from.IsZero() {
		where = append(where, fmt.Sprintf("occurred_at >= $%d", argIdx))
		args = append(args, from)
		argIdx++
	}
	if !to.IsZero() {
		where = append(where, fmt.Sprintf("occurred_at <= $%d", argIdx))
		args = append(args, to)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_entries %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count audit entries: %w", err)
	}

	meta := model.PageMeta(query.Page, query.Limit, total)

	offset := (query.Page - 1) * query.Limit
	dataQuery := fmt.Sprintf(
		`SELECT occurred_at, operation, data_type, username, details
		 FROM audit_entries %s
		 ORDER BY occurred_at DESC
		 LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, query.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.Timestamp, &e.Operation, &e.DataType, &e.User, &e.Details); err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, meta, rows.Err()
}
