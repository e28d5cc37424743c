// Package testutil provides shared helpers for package tests.
//
// Helpers call t.Fatalf (through require) on failure rather than returning
// errors, since test setup failures are not recoverable.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/tickets/internal/config"
	"github.com/helpdesk-kit/tickets/internal/persistence"
)

// NewDatabase opens a migrated in-memory SQLite database that is closed when
// the test completes.
func NewDatabase(t testing.TB) *persistence.Database {
	t.Helper()

	ctx := context.Background()
	logger := zap.NewNop()
	db, err := persistence.NewDatabase(ctx, config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   persistence.MemoryPath,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, persistence.RunMigrations(ctx, db, logger))
	return db
}
