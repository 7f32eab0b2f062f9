package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Postgres error codes signalling a transaction lost a concurrency race and
// may be retried with the same inputs.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// Transactor runs functions inside a database transaction with guaranteed
// commit-or-rollback on every exit path, including panics and context
// cancellation.
type Transactor struct {
	db *sqlx.DB
}

// NewTransactor wraps a sqlx database handle.
func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

// WithTransaction begins a transaction, invokes fn with it, and commits when
// fn returns nil. Any error, panic, or cancelled context rolls the whole
// transaction back so no partial rows remain visible.
func (t *Transactor) WithTransaction(ctx context.Context, fn func(tx sqlx.ExtContext) error) (err error) {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// IsSerializationFailure reports whether err is a Postgres serialization or
// deadlock failure. Such a commit is safe to retry once because validation is
// re-run inside the new transaction.
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		return code == pqSerializationFailure || code == pqDeadlockDetected
	}
	return false
}
