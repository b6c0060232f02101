package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-while/go-pokr/internal/errs"
	"github.com/go-while/go-pokr/internal/logging"
)

// MigrationType represents the type of database that migrations apply to
type MigrationType string

const (
	MigrationTypeMain MigrationType = "main"
)

// MigrationFile represents a migration file with its metadata
type MigrationFile struct {
	FileName    string
	Version     int
	Type        MigrationType
	Description string
}

// Migrate applies pending embedded migrations to the bills database
func (db *Database) Migrate(ctx context.Context) error {
	if err := db.migrateMainDB(ctx); err != nil {
		return errs.Wrap(err, "failed to migrate main database")
	}
	return nil
}

// ensureMigrationsTable creates the schema_migrations table if it doesn't exist
func ensureMigrationsTable(ctx context.Context, db *sql.DB, dbType MigrationType) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL UNIQUE,
		db_type TEXT NOT NULL DEFAULT '',
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table for %s: %w", dbType, err)
	}
	return nil
}

// getAppliedMigrations returns a map of applied migration filenames for a specific database
func getAppliedMigrations(ctx context.Context, db *sql.DB, dbType MigrationType) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := db.QueryContext(ctx, `SELECT filename FROM schema_migrations WHERE db_type = ? OR db_type = ''`, string(dbType))
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations for %s: %w", dbType, err)
	}
	defer rows.Close()

	for rows.Next() {
		var fname string
		if err := rows.Scan(&fname); err != nil {
			return nil, fmt.Errorf("failed to scan migration filename for %s: %w", dbType, err)
		}
		applied[fname] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migration rows for %s: %w", dbType, err)
	}

	return applied, nil
}

// applyMigration runs one migration and records it in the same transaction
func applyMigration(ctx context.Context, db *sql.DB, migration *MigrationFile) error {
	content, err := readEmbeddedMigrationContent(migration.FileName)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", migration.FileName, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute migration %s for %s: %w", migration.FileName, migration.Type, err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename, db_type) VALUES (?, ?)`, migration.FileName, string(migration.Type))
	if err != nil {
		return fmt.Errorf("failed to record migration %s for %s: %w", migration.FileName, migration.Type, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", migration.FileName, err)
	}
	return nil
}

// migrateMainDB applies migrations to the main database
func (db *Database) migrateMainDB(ctx context.Context) error {
	if err := ensureMigrationsTable(ctx, db.mainDB, MigrationTypeMain); err != nil {
		return err
	}

	migrations, err := getEmbeddedMigrationFiles()
	if err != nil {
		return err
	}

	applied, err := getAppliedMigrations(ctx, db.mainDB, MigrationTypeMain)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Type != MigrationTypeMain || applied[migration.FileName] {
			continue
		}
		if err := applyMigration(ctx, db.mainDB, migration); err != nil {
			return err
		}
		logging.Info(ctx, "applied migration",
			slog.String("file", migration.FileName),
			slog.String("description", migration.Description))
	}

	return nil
}

// AppliedMigrations lists the recorded migration filenames, used by billmgr and tests.
func (db *Database) AppliedMigrations(ctx context.Context) (map[string]bool, error) {
	return getAppliedMigrations(ctx, db.mainDB, MigrationTypeMain)
}
