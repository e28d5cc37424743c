package persistence

import (
	"context"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/tickets/internal/config"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// Database wraps the sqlx handle for the configured relational store.
type Database struct {
	DB     *sqlx.DB
	Driver string
}

// NewDatabase opens the store selected by cfg.Driver and verifies connectivity.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Database, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite, "":
		db, err = openSQLite(cfg)
	case config.DriverPostgres:
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("connected to database", zap.String("driver", db.DriverName()))
	return &Database{DB: db, Driver: cfg.Driver}, nil
}

func openSQLite(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	params := url.Values{}
	params.Set("_busy_timeout", "5000")
	params.Set("_loc", "auto")

	path := cfg.Path
	memory := path == MemoryPath
	if memory {
		path = ":memory:"
	} else {
		params.Set("_journal_mode", "WAL")
	}

	db, err := sqlx.Open("sqlite3", "file:"+path+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	if memory {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return db, nil
	}
	applyPoolLimits(db, cfg)
	return db, nil
}

func openPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}
	applyPoolLimits(db, cfg)
	return db, nil
}

func applyPoolLimits(db *sqlx.DB, cfg config.DatabaseConfig) {
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.ConnMaxIdleSec > 0 {
		db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleSec) * time.Second)
	}
	if cfg.ConnMaxLifeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifeSec) * time.Second)
	}
}

// Close releases pool resources.
func (d *Database) Close() {
	if d != nil && d.DB != nil {
		_ = d.DB.Close()
	}
}

// Ping verifies database connectivity.
func (d *Database) Ping(ctx context.Context) error {
	if d == nil || d.DB == nil {
		return fmt.Errorf("database not configured")
	}
	return d.DB.PingContext(ctx)
}

// WithinTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back on error or panic.
func (d *Database) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := d.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
