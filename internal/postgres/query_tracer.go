package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/types"
)

// slowQueryThreshold promotes a query log line from debug to warn
const slowQueryThreshold = 500 * time.Millisecond

// TracedQuerier logs every statement with its duration, tenant and
// transaction. Bound arguments are not logged since rows carry encrypted
// credentials and card references.
type TracedQuerier struct {
	Querier
	logger *logger.Logger
	txID   string
}

func NewTracedQuerier(q Querier, logger *logger.Logger, txID string) *TracedQuerier {
	return &TracedQuerier{
		Querier: q,
		logger:  logger,
		txID:    txID,
	}
}

// trace returns the callback that finishes the log line for one statement
func (tq *TracedQuerier) trace(ctx context.Context, query string, nargs int) func(error) {
	start := time.Now()
	return func(err error) {
		elapsed := time.Since(start)
		fields := []interface{}{
			"duration_ms", elapsed.Milliseconds(),
			"query", query,
			"args", nargs,
			"tenant_id", types.GetTenantID(ctx),
		}
		if tq.txID != "" {
			fields = append(fields, "tx_id", tq.txID)
		}

		switch {
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			tq.logger.Warnw("database query failed", append(fields, "error", err.Error())...)
		case elapsed > slowQueryThreshold:
			tq.logger.Warnw("slow database query", fields...)
		default:
			tq.logger.Debugw("database query completed", fields...)
		}
	}
}

func (tq *TracedQuerier) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	done := tq.trace(ctx, query, len(args))
	result, err := tq.Querier.ExecContext(ctx, query, args...)
	done(err)
	return result, err
}

func (tq *TracedQuerier) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	done := tq.trace(ctx, query, 1)
	result, err := tq.Querier.NamedExecContext(ctx, query, arg)
	done(err)
	return result, err
}

func (tq *TracedQuerier) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	done := tq.trace(ctx, query, len(args))
	rows, err := tq.Querier.QueryContext(ctx, query, args...)
	done(err)
	return rows, err
}

func (tq *TracedQuerier) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	done := tq.trace(ctx, query, len(args))
	row := tq.Querier.QueryRowxContext(ctx, query, args...)
	done(row.Err())
	return row
}

func (tq *TracedQuerier) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	done := tq.trace(ctx, query, len(args))
	err := tq.Querier.GetContext(ctx, dest, query, args...)
	done(err)
	return err
}

func (tq *TracedQuerier) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	done := tq.trace(ctx, query, len(args))
	err := tq.Querier.SelectContext(ctx, dest, query, args...)
	done(err)
	return err
}
