package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	txKey   contextKey = "db_tx"
	connKey contextKey = "db_conn"
)

// TxFromContext retrieves a transaction previously installed by WithTx.
// Repositories use this to join an in-flight transaction instead of the pool.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

// ConnFromContext retrieves a dedicated connection previously installed by
// WithConn.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	c, _ := ctx.Value(connKey).(*pgxpool.Conn)
	return c
}

// WithConn runs fn with a single pooled connection pinned to the context.
// Used for flows that need session state, such as advisory locks.
func WithConn(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	return fn(context.WithValue(ctx, connKey, conn))
}

// WithTx runs fn inside a single database transaction. The transaction is
// made available to repositories through the context, so every repository
// call inside fn shares it. Commit happens only if fn returns nil; any error
// rolls the whole transaction back.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey, tx)
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
