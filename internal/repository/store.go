package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Margiorno/todo-app-sub000/internal/events"
)

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Dispatcher receives the events buffered during a transaction once that
// transaction has committed.
type Dispatcher interface {
	Dispatch(ctx context.Context, evs ...events.Event)
}

type txKey struct{}

// Store owns the connection pool and the transaction boundary. Events
// published inside InTx are dispatched only after COMMIT returns; a
// rollback discards them.
type Store struct {
	pool   *pgxpool.Pool
	bus    Dispatcher
	logger *slog.Logger
}

func NewStore(pool *pgxpool.Pool, bus Dispatcher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, bus: bus, logger: logger}
}

// db returns the transaction bound to ctx, or the pool outside one.
func (s *Store) db(ctx context.Context) DB {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

// InTx runs fn inside a transaction. A nested call joins the ongoing
// transaction instead of opening a new one. On commit, the events buffered
// by fn are dispatched on a context detached from the caller's.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	txCtx := context.WithValue(ctx, txKey{}, tx)
	txCtx, buf := events.WithBuffer(txCtx)

	if err := fn(txCtx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if s.bus != nil {
		if evs := buf.Drain(); len(evs) > 0 {
			s.bus.Dispatch(ctx, evs...)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres duplicate-key error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
