package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed migrations/001_audit.up.sql
var auditMigrationSQL string

// EnsureSchema creates the audit mirror table if this database has never been
// used before. The migration is idempotent, so re-running on startup is safe.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	exists, err := db.hasAuditTable(ctx)
	if err != nil {
		return fmt.Errorf("check existing tables: %w", err)
	}

	if !exists {
		slog.Info("audit mirror schema missing; applying migration")
		if _, err := db.Pool.Exec(ctx, auditMigrationSQL); err != nil {
			return fmt.Errorf("apply audit migration: %w", err)
		}

		exists, err = db.hasAuditTable(ctx)
		if err != nil {
			return fmt.Errorf("re-check tables after migration: %w", err)
		}
		if !exists {
			return fmt.Errorf("schema initialization incomplete: audit_entries is still missing")
		}
	}

	slog.Info("audit mirror schema ensured")
	return nil
}

func (db *DB) hasAuditTable(ctx context.Context) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public'
			  AND table_name = 'audit_entries'
		)
	`).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}
