// Package migrate applies the embedded schema to the database.
package migrate

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jcpaschoal/tenantauth/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantauth/foundation/logger"
	"github.com/jmoiron/sqlx"
)

//go:embed sql/*.sql
var migrationFS embed.FS

const migrationTable = "schema_migrations"

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// Migrate applies every embedded migration that has not been recorded in
// the schema_migrations table. Each file runs in its own transaction.
func Migrate(ctx context.Context, log *logger.Logger, db *sqlx.DB) error {
	if err := sqldb.StatusCheck(ctx, db); err != nil {
		return fmt.Errorf("status check database: %w", err)
	}

	names, err := files(migrationFS)
	if err != nil {
		return err
	}

	const createQ = `
	CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
		name       TEXT      NOT NULL PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	)`

	if _, err := db.ExecContext(ctx, createQ); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, name := range names {
		applied, err := isApplied(ctx, db, name)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(migrationFS, "sql/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		upSQL := ExtractUp(string(content))
		if strings.TrimSpace(upSQL) == "" {
			continue
		}

		if err := apply(ctx, db, name, upSQL); err != nil {
			return err
		}

		log.Info(ctx, "migrate", "applied", name)
	}

	return nil
}

// ExtractUp returns the SQL in the up section of a migration file.
func ExtractUp(content string) string {
	upIdx := strings.Index(content, upMarker)
	if upIdx == -1 {
		return content
	}

	rest := content[upIdx+len(upMarker):]

	downIdx := strings.Index(rest, downMarker)
	if downIdx == -1 {
		return rest
	}

	return rest[:downIdx]
}

func files(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, "sql")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

func apply(ctx context.Context, db *sqlx.DB, name string, upSQL string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, upSQL); err != nil {
		tx.Rollback()
		return fmt.Errorf("exec migration %s: %w", name, err)
	}

	const recordQ = `INSERT INTO ` + migrationTable + ` (name, applied_at) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`

	if _, err := tx.ExecContext(ctx, recordQ, name, time.Now().UTC()); err != nil {
		tx.Rollback()
		return fmt.Errorf("record migration %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}

	return nil
}

func isApplied(ctx context.Context, db *sqlx.DB, name string) (bool, error) {
	const q = `SELECT 1 FROM ` + migrationTable + ` WHERE name = $1`

	var found int
	if err := db.QueryRowContext(ctx, q, name).Scan(&found); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
