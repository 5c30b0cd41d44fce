// Package sqlite provides the local SQLite database used by the CLI goal cache
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"beesync/internal/platform/store/sqltrace"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Config configures the SQLite database
type Config struct {
	// Path is a file path or ":memory:"
	Path        string
	SlowMs      int
	BusyTimeout time.Duration
}

// SQLite is a database/sql handle with an optional tracer
type SQLite struct {
	DB     *sql.DB
	Tracer sqltrace.QueryTracer
	SlowMs int
}

// Open opens the database, applies pragmas and pings it
func Open(ctx context.Context, cfg Config, tracer sqltrace.QueryTracer) (*SQLite, error) {
	db, err := sql.Open("sqlite", DSN(cfg))
	if err != nil {
		return nil, err
	}
	// one writer; an in-memory database only lives as long as its connection
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return &SQLite{DB: db, Tracer: tracer, SlowMs: cfg.SlowMs}, nil
}

// DSN renders cfg as a modernc connection string with pragmas
func DSN(cfg Config) string {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", busy.Milliseconds()),
		"_pragma=foreign_keys(1)",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	return "file:" + path + "?" + strings.Join(pragmas, "&")
}

// Close closes the database
func (s *SQLite) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Rebind rewrites postgres style $N placeholders into SQLite ?N placeholders
// Quoted literals and identifiers are left alone
func Rebind(q string) string {
	if !strings.Contains(q, "$") {
		return q
	}
	var b strings.Builder
	b.Grow(len(q))
	var quote byte
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '$' && i+1 < len(q) && q[i+1] >= '0' && q[i+1] <= '9':
			b.WriteByte('?')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
