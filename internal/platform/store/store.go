// Package store provides the SQL facade shared by the postgres and sqlite backends
package store

import (
	"context"
	"errors"
	"fmt"

	"beesync/internal/platform/logger"
)

// Driver names a SQL backend
type Driver string

const (
	// DriverPG is postgres via pgx
	DriverPG Driver = "pg"
	// DriverSQLite is the embedded modernc sqlite
	DriverSQLite Driver = "sqlite"
)

// Store is the facade for the configured backend
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	Log logger.Logger

	// Driver is the backend behind SQL
	Driver Driver

	// SQL is the sql seam, nil when no backend is configured
	SQL TxRunner
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql
// Statements use $N placeholders on every backend
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner wraps transaction execution around a function
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open constructs a Store for cfg.Driver
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{Log: *logger.Named("store")}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	var err error
	switch cfg.Driver {
	case DriverPG:
		s.SQL, err = openPG(ctx, cfg, s)
	case DriverSQLite:
		s.SQL, err = openSQLite(ctx, cfg, s)
	case "":
		return s, nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	s.Driver = cfg.Driver
	return s, nil
}

// Guard pings the configured backend
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	if p, ok := s.SQL.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.Driver, err)
		}
	}
	return nil
}

// Close closes the backend; a nil backend is ignored
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	if c, ok := s.SQL.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
