// Package postgres provides PostgreSQL-backed implementations of the token
// storage ports. All writes issued by the token update engine run inside one
// serializable transaction managed by TxManager; the stores in this package
// transparently join a transaction carried in the context.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/registry-tokens/internal/domain/token"
	"github.com/ahrav/registry-tokens/internal/infra/storage"
)

var defaultDBAttributes = []attribute.KeyValue{
	attribute.String("db.system", "postgresql"),
}

// querier is the subset of pgx operations the stores need. It is satisfied by
// both *pgxpool.Pool and pgx.Tx, which is what lets a store run standalone or
// inside a TxManager transaction without knowing which.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// conn returns the transaction carried in ctx if one is active, otherwise the
// shared pool.
func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

var _ token.Transactor = (*TxManager)(nil)

// TxManager runs functions inside a serializable PostgreSQL transaction.
// The transaction is placed in the context handed to fn, so any store call
// made with that context participates in it.
type TxManager struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewTxManager creates a transaction manager backed by the given pool.
func NewTxManager(pool *pgxpool.Pool, tracer trace.Tracer) *TxManager {
	return &TxManager{pool: pool, tracer: tracer}
}

// WithinTx executes fn inside a serializable transaction. The transaction is
// committed only if fn returns nil; any error rolls back every write fn made.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return storage.ExecuteAndTrace(ctx, m.tracer, "postgres.within_tx", defaultDBAttributes, func(ctx context.Context) error {
		tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				return fmt.Errorf("failed to rollback transaction: %v (original error: %w)", rbErr, err)
			}
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}
