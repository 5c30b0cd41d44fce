// Package repo persists the goal cache on postgres or sqlite
// Statements stick to the SQL both backends accept
package repo

import (
	"context"
	"encoding/json"
	"time"

	"beesync/internal/core/daystamp"
	"beesync/internal/core/goal"
	"beesync/internal/modkit/repokit"
	perr "beesync/internal/platform/errors"
	"beesync/internal/platform/store"
)

// Storage is the goal cache persistence surface
type Storage interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, g goal.State) error
	Get(ctx context.Context, slug string) (goal.State, error)
	List(ctx context.Context) ([]goal.State, error)
	ListQueued(ctx context.Context) ([]goal.State, error)

	// DeleteExcept removes every goal whose slug is not in keep and returns how many went
	DeleteExcept(ctx context.Context, keep []string) (int, error)
}

type (
	// SQL is the portable implementation of Storage
	SQL     struct{}
	queries struct{ q repokit.Queryer }
)

// NewSQL returns a binder for the portable implementation
func NewSQL() repokit.Binder[Storage] { return SQL{} }

// Bind attaches a Queryer
func (SQL) Bind(q repokit.Queryer) Storage { return &queries{q: q} }

const schema = `
	CREATE TABLE IF NOT EXISTS goals (
		slug            TEXT PRIMARY KEY,
		id              TEXT NOT NULL DEFAULT '',
		title           TEXT NOT NULL DEFAULT '',
		deadline        INTEGER NOT NULL DEFAULT 0,
		init_day        TEXT NOT NULL DEFAULT '',
		queued          BOOLEAN NOT NULL DEFAULT FALSE,
		metric          TEXT NOT NULL DEFAULT '',
		autodata        TEXT NOT NULL DEFAULT '',
		autodata_config TEXT NOT NULL DEFAULT '{}',
		last_updated    BIGINT NOT NULL DEFAULT 0
	)
`

const columns = `slug, id, title, deadline, init_day, queued, metric, autodata, autodata_config, last_updated`

// EnsureSchema creates the goals table when missing
func (r *queries) EnsureSchema(ctx context.Context) error {
	_, err := r.q.Exec(ctx, schema)
	return perr.WrapIf(err, perr.ErrorCodeDB, "create goals table")
}

// Upsert writes g keyed by slug
func (r *queries) Upsert(ctx context.Context, g goal.State) error {
	const sql = `
		INSERT INTO goals (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (slug) DO UPDATE
		SET id              = excluded.id,
		    title           = excluded.title,
		    deadline        = excluded.deadline,
		    init_day        = excluded.init_day,
		    queued          = excluded.queued,
		    metric          = excluded.metric,
		    autodata        = excluded.autodata,
		    autodata_config = excluded.autodata_config,
		    last_updated    = excluded.last_updated
	`
	cfg, err := json.Marshal(g.Config)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "encode autodata config for %s", g.Slug)
	}
	var updated int64
	if !g.UpdatedAt.IsZero() {
		updated = g.UpdatedAt.Unix()
	}
	initDay := ""
	if !g.InitDay.IsZero() {
		initDay = g.InitDay.String()
	}
	_, err = r.q.Exec(ctx, sql, g.Slug, g.ID, g.Title, g.Deadline, initDay, g.Queued, g.Metric, g.Autodata, string(cfg), updated)
	return dbErr(err, "upsert goal "+g.Slug)
}

// Get reads one goal; a missing slug is a not found error
func (r *queries) Get(ctx context.Context, slug string) (goal.State, error) {
	g, err := scanGoal(r.q.QueryRow(ctx, `SELECT `+columns+` FROM goals WHERE slug = $1`, slug))
	if store.IsNoRows(err) {
		return goal.State{}, perr.NotFoundf("goal %s not found", slug)
	}
	return g, dbErr(err, "get goal "+slug)
}

// List returns every cached goal ordered by slug
func (r *queries) List(ctx context.Context) ([]goal.State, error) {
	out, err := store.Many(ctx, r.q, scanGoal, `SELECT `+columns+` FROM goals ORDER BY slug`)
	return out, dbErr(err, "list goals")
}

// ListQueued returns the goals the ledger is still recomputing
func (r *queries) ListQueued(ctx context.Context) ([]goal.State, error) {
	out, err := store.Many(ctx, r.q, scanGoal, `SELECT `+columns+` FROM goals WHERE queued = $1 ORDER BY slug`, true)
	return out, dbErr(err, "list queued goals")
}

// DeleteExcept removes goals the ledger no longer returns
func (r *queries) DeleteExcept(ctx context.Context, keep []string) (int, error) {
	slugs, err := store.Many(ctx, r.q, func(row store.Row) (string, error) {
		var s string
		return s, row.Scan(&s)
	}, `SELECT slug FROM goals`)
	if err != nil {
		return 0, dbErr(err, "list goal slugs")
	}

	keepSet := make(map[string]struct{}, len(keep))
	for _, s := range keep {
		keepSet[s] = struct{}{}
	}
	n := 0
	for _, s := range slugs {
		if _, ok := keepSet[s]; ok {
			continue
		}
		if _, err := r.q.Exec(ctx, `DELETE FROM goals WHERE slug = $1`, s); err != nil {
			return n, dbErr(err, "delete goal "+s)
		}
		n++
	}
	return n, nil
}

func scanGoal(row store.Row) (goal.State, error) {
	var (
		g       goal.State
		initDay string
		cfg     string
		updated int64
	)
	if err := row.Scan(&g.Slug, &g.ID, &g.Title, &g.Deadline, &initDay, &g.Queued, &g.Metric, &g.Autodata, &cfg, &updated); err != nil {
		return goal.State{}, err
	}
	if initDay != "" {
		d, err := daystamp.Parse(initDay)
		if err != nil {
			return goal.State{}, perr.WithField(err, "init_day")
		}
		g.InitDay = d
	}
	if cfg != "" {
		if err := json.Unmarshal([]byte(cfg), &g.Config); err != nil {
			return goal.State{}, perr.Wrapf(err, perr.ErrorCodeJSON, "decode autodata config for %s", g.Slug)
		}
	}
	if updated > 0 {
		g.UpdatedAt = time.Unix(updated, 0).UTC()
	}
	return g, nil
}

// dbErr classifies driver errors; pg errors keep their SQLSTATE mapping
func dbErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := perr.As(err); ok {
		return err
	}
	return perr.FromDB(err, "%s", msg)
}
