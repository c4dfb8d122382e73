package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Migrator struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewMigrator(db *sql.DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// Run applies every embedded migration not yet recorded in schema_migrations,
// each in its own transaction, in file-name order.
func (m *Migrator) Run(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		applied, err := m.isMigrationApplied(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if applied {
			m.logger.Debug("Migration already applied, skipping", zap.String("migration", name))
			continue
		}

		migrationSQL, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		m.logger.Info("Applying migration", zap.String("migration", name))

		tx, err := m.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, string(migrationSQL)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (name, applied_at) VALUES ($1, NOW())",
			name,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", name, err)
		}
	}

	return nil
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`)
	return err
}

func (m *Migrator) isMigrationApplied(ctx context.Context, name string) (bool, error) {
	var count int
	err := m.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE name = $1",
		name,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
