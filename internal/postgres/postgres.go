package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopbench/shopbench/internal/config"
	"github.com/shopbench/shopbench/internal/logger"
)

// DB wraps sqlx.DB to provide transaction management
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// Querier interface defines all database operations
// Both *sqlx.DB and *sqlx.Tx implement these methods
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// IClient is the transaction boundary services depend on
type IClient interface {
	// WithTx runs fn inside a transaction carried by the returned context.
	// Nested calls use savepoints.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ IClient = (*DB)(nil)

// NewDB opens the pool and runs the embedded migrations when auto_migrate is set
func NewDB(config *config.Configuration, logger *logger.Logger) (*DB, error) {
	db, err := sqlx.Connect("postgres", config.Postgres.GetDSN())
	if err != nil {
		return nil, err
	}

	if config.Postgres.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.Postgres.MaxOpenConns)
	}
	if config.Postgres.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}
	if config.Postgres.ConnMaxLifetimeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(config.Postgres.ConnMaxLifetimeMinutes) * time.Minute)
	}

	wrapped := NewFromSqlx(db, logger)
	if config.Postgres.AutoMigrate {
		if err := wrapped.Migrate(context.Background()); err != nil {
			return nil, err
		}
	}

	return wrapped, nil
}

// NewFromSqlx wraps an existing handle, used by repository tests with sqlmock
func NewFromSqlx(db *sqlx.DB, logger *logger.Logger) *DB {
	return &DB{DB: db, logger: logger}
}

// Close closes the database connection
func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
	}
}

// GetQuerier returns either the transaction from context or the base DB
func (db *DB) GetQuerier(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return NewTracedQuerier(tx.Tx, db.logger, tx.ID)
	}
	return NewTracedQuerier(db.DB, db.logger, "")
}
