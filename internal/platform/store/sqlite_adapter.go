package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"beesync/internal/platform/store/sqlite"
)

// database/sql surface shared by *sql.DB and *sql.Tx
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// liteQuerier implements RowQuerier over database/sql, rebinding $N placeholders
type liteQuerier struct {
	q sqlQuerier
	tracing
}

func (a liteQuerier) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	start := time.Now()
	res, err := a.q.ExecContext(ctx, sqlite.Rebind(q), args...)
	a.emit(ctx, q, args, start, err)
	if err != nil {
		return liteTag{}, err
	}
	n, _ := res.RowsAffected()
	return liteTag{n: n}, nil
}

func (a liteQuerier) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := a.q.QueryContext(ctx, sqlite.Rebind(q), args...)
	a.emit(ctx, q, args, start, err)
	if err != nil {
		return nil, err
	}
	return liteRows{r: rs}, nil
}

func (a liteQuerier) QueryRow(ctx context.Context, q string, args ...any) Row {
	start := time.Now()
	r := a.q.QueryRowContext(ctx, sqlite.Rebind(q), args...)
	return scanHook{
		scan: func(dest ...any) error { return mapNoRows(r.Scan(dest...)) },
		after: func(scanErr error) {
			a.emit(ctx, q, args, start, scanErr)
		},
	}
}

// sqliteAdapter wraps sqlite.SQLite and implements TxRunner
type sqliteAdapter struct {
	liteQuerier
	s *sqlite.SQLite
}

func newSQLiteAdapter(s *sqlite.SQLite) *sqliteAdapter {
	return &sqliteAdapter{
		liteQuerier: liteQuerier{q: s.DB, tracing: tracing{tracer: s.Tracer, slowMs: s.SlowMs}},
		s:           s,
	}
}

func (a *sqliteAdapter) Ping(ctx context.Context) error { return a.s.DB.PingContext(ctx) }

func (a *sqliteAdapter) Close() error { return a.s.Close() }

func (a *sqliteAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(liteQuerier{q: tx, tracing: a.tracing}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type liteRows struct{ r *sql.Rows }

func (x liteRows) Next() bool            { return x.r.Next() }
func (x liteRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x liteRows) Err() error            { return x.r.Err() }
func (x liteRows) Close()                { _ = x.r.Close() }
func (x liteRows) Columns() []string {
	cols, _ := x.r.Columns()
	return cols
}

type liteTag struct{ n int64 }

func (t liteTag) String() string      { return fmt.Sprintf("ROWS %d", t.n) }
func (t liteTag) RowsAffected() int64 { return t.n }

// mapNoRows makes sql.ErrNoRows look like pgx.ErrNoRows to callers using IsNoRows
func mapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}
	return err
}
