// Package postgres implements store.Store on a pgx connection pool.
// Every InTx call is a serializable transaction; serialization failures
// are retried a bounded number of times before surfacing.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paperfour/tandem/internal/store"
)

const maxTxAttempts = 3

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) InTx(ctx context.Context, fn func(store.Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = pgx.BeginTxFunc(ctx, s.pool, opts, func(t pgx.Tx) error {
			return fn(&tx{t: t})
		})
		if !retryable(err) {
			return err
		}
	}
	return err
}

// retryable matches serialization failures and deadlocks, which postgres
// asks the client to retry.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// conflict translates unique violations into store.ErrConflict.
func conflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrConflict
	}
	return err
}

// tx adapts a pgx transaction to store.Tx.
type tx struct {
	t pgx.Tx
}
