package store

import (
	"context"
	"fmt"
	"time"

	"beesync/internal/platform/store/pg"
	"beesync/internal/platform/store/sqlite"
	"beesync/internal/platform/store/sqltrace"
)

var sleep = time.Sleep // seam

// openPG opens pg and wraps it with the sql adapter once the pool answers a ping
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer sqltrace.QueryTracer
	if cfg.PG.LogSQL {
		tracer = sqltrace.Tracer(s.Log, "pg")
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
		AppName:  cfg.AppName,
	}, tracer)
	if err != nil {
		return nil, err
	}

	attempts := cfg.PG.ConnectRetries
	if attempts <= 0 {
		attempts = 20
	}
	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	const (
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)

	var lastErr error
	backoff := backoffStart
	for range attempts {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			return newPGAdapter(p), nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
		s.Log.Warn().Err(lastErr).Dur("backoff", backoff).Msg("postgres not ready")
		sleep(backoff)
		backoff = min(backoff*2, backoffCeiling)
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, lastErr)
}

func openSQLite(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer sqltrace.QueryTracer
	if cfg.SQLite.LogSQL {
		tracer = sqltrace.Tracer(s.Log, "sqlite")
	}
	db, err := sqlite.Open(ctx, sqlite.Config{
		Path:   cfg.SQLite.Path,
		SlowMs: cfg.SQLite.SlowQueryMs,
	}, tracer)
	if err != nil {
		return nil, err
	}
	return newSQLiteAdapter(db), nil
}
