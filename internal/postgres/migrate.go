package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    VARCHAR(255) PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migrations returns the embedded migration file names in apply order
func Migrations() ([]string, error) {
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// MigrationSQL returns the contents of one embedded migration
func MigrationSQL(name string) (string, error) {
	body, err := migrationFS.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Migrate applies every embedded migration not yet recorded in schema_migrations.
// Each file runs in its own transaction.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	names, err := Migrations()
	if err != nil {
		return err
	}

	for _, name := range names {
		var applied bool
		if err := db.GetContext(ctx, &applied,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, name); err != nil {
			return fmt.Errorf("checking migration %s: %w", name, err)
		}
		if applied {
			continue
		}

		body, err := MigrationSQL(name)
		if err != nil {
			return err
		}

		err = db.WithTx(ctx, func(ctx context.Context) error {
			q := db.GetQuerier(ctx)
			if _, err := q.ExecContext(ctx, body); err != nil {
				return err
			}
			_, err := q.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		db.logger.Infow("applied migration", "version", name)
	}

	return nil
}
