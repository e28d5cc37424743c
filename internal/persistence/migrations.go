package persistence

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"go.uber.org/zap"

	"github.com/helpdesk-kit/tickets/internal/config"
)

//go:embed migrations
var migrationFiles embed.FS

// RunMigrations executes the embedded SQL migrations for the database driver.
// Every statement is idempotent, so the schema is created on first run and left
// untouched afterwards.
func RunMigrations(ctx context.Context, db *Database, logger *zap.Logger) error {
	if db == nil || db.DB == nil {
		logger.Warn("no database available; skipping migrations")
		return nil
	}

	dir := path.Join("migrations", migrationDir(db.Driver))
	entries, err := fs.ReadDir(migrationFiles, dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	filenames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)

	for _, name := range filenames {
		content, err := fs.ReadFile(migrationFiles, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		logger.Info("applying migration", zap.String("file", name))
		if _, err := db.DB.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	logger.Info("migrations applied", zap.Int("count", len(filenames)))
	return nil
}

func migrationDir(driver string) string {
	if driver == config.DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}
