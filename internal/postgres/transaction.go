package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/types"
)

// Tx is an open transaction plus its savepoint depth. A context carries at
// most one Tx; nested WithTx calls push savepoints onto it.
type Tx struct {
	*sqlx.Tx
	ID       string
	TenantID string
	depth    int
}

// GetTx retrieves a transaction from the context if it exists
func GetTx(ctx context.Context) (*Tx, bool) {
	tx, ok := ctx.Value(types.CtxDBTransaction).(*Tx)
	return tx, ok
}

func (tx *Tx) savepoint() string {
	return fmt.Sprintf("sp_%d", tx.depth)
}

// BeginTx opens a read committed transaction, or a savepoint when the context
// already carries one.
func (db *DB) BeginTx(ctx context.Context) (context.Context, *Tx, error) {
	if tx, ok := GetTx(ctx); ok {
		tx.depth++
		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+tx.savepoint()); err != nil {
			tx.depth--
			return ctx, nil, ierr.WithError(err).
				WithHintf("Failed to open savepoint in transaction %s", tx.ID).
				Mark(ierr.ErrDatabase)
		}
		db.logger.Debugw("opened savepoint", "tx_id", tx.ID, "savepoint", tx.savepoint())
		return ctx, tx, nil
	}

	sqlxTx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return ctx, nil, ierr.WithError(err).
			WithHint("Failed to begin transaction").
			Mark(ierr.ErrDatabase)
	}

	tx := &Tx{
		Tx:       sqlxTx,
		ID:       types.GenerateUUID(),
		TenantID: types.GetTenantID(ctx),
	}
	db.logger.Debugw("began transaction", "tx_id", tx.ID, "tenant_id", tx.TenantID)

	return context.WithValue(ctx, types.CtxDBTransaction, tx), tx, nil
}

// CommitTx commits the innermost level: it releases a savepoint or commits
// the outer transaction.
func (db *DB) CommitTx(ctx context.Context) error {
	return db.endLevel(ctx, true)
}

// RollbackTx undoes the innermost level only
func (db *DB) RollbackTx(ctx context.Context) error {
	return db.endLevel(ctx, false)
}

func (db *DB) endLevel(ctx context.Context, commit bool) error {
	tx, ok := GetTx(ctx)
	if !ok {
		return ierr.NewError("no transaction in context").
			WithHint("Transaction was not started").
			Mark(ierr.ErrSystem)
	}

	var err error
	switch {
	case tx.depth > 0 && commit:
		_, err = tx.ExecContext(ctx, "RELEASE SAVEPOINT "+tx.savepoint())
		tx.depth--
	case tx.depth > 0:
		_, err = tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+tx.savepoint())
		tx.depth--
	case commit:
		err = tx.Commit()
	default:
		err = tx.Rollback()
	}

	db.logger.Debugw("ended transaction level",
		"tx_id", tx.ID,
		"depth", tx.depth,
		"commit", commit,
		"error", err)

	if err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to end transaction %s", tx.ID).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// WithTx runs fn inside a transaction. An error or panic from fn rolls back
// only the level fn was given; outer levels stay usable.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			db.logger.Errorw("panic in transaction", "tx_id", tx.ID, "panic", r)
			_ = db.RollbackTx(ctx)
			panic(r)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := db.RollbackTx(ctx); rbErr != nil {
			db.logger.Errorw("rollback failed", "tx_id", tx.ID, "error", rbErr, "cause", err)
		}
		return err
	}

	return db.CommitTx(ctx)
}
