// Package service reconciles candidate points with a goal's ledger entries
package service

import (
	"context"
	"sync"
	"time"

	"beesync/internal/core/datapoint"
	"beesync/internal/core/goal"
	"beesync/internal/platform/logger"
	"beesync/internal/services/datapoints/domain"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Config for the datapoints service
type Config struct {
	// Concurrency bounds how many days are written at once
	Concurrency int

	// Location is the zone goal days are computed in
	Location *time.Location
}

// Service implements domain.ReconcilerPort against a ledger
type Service struct {
	ledger  domain.Ledger
	cfg     Config
	log     logger.Logger
	metrics metrics
	now     func() time.Time
}

// New constructs the service; reg may be nil
func New(l domain.Ledger, cfg Config, reg prometheus.Registerer) *Service {
	if l == nil {
		panic("datapoints: nil ledger")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Service{
		ledger:  l,
		cfg:     cfg,
		log:     *logger.Named("datapoints"),
		metrics: newMetrics(reg),
		now:     time.Now,
	}
}

// Reconcile loads the entries covering cands and applies the diff
// Only the coverage fetch can fail the call; write failures are collected in
// Result.Failures and never stop other days from being written
func (s *Service) Reconcile(ctx context.Context, g goal.State, cands []datapoint.Candidate) (domain.Result, error) {
	res := domain.Result{Goal: g.Slug}
	d0, ok := datapoint.FirstDaystamp(cands)
	if !ok {
		return res, nil
	}
	start := s.now()
	log := logger.From(logger.WithRequest(ctx, "", g.Slug), &s.log)

	cov, err := FetchCoverage(ctx, s.ledger, g.Slug, d0, g.Today(s.now(), s.cfg.Location))
	s.metrics.requests.Observe(float64(cov.Requests))
	if err != nil {
		s.metrics.passes.WithLabelValues("fetch_error").Inc()
		return res, err
	}
	entries := datapoint.Real(cov.Entries)
	res.Fetched = len(entries)

	plan := datapoint.Diff(cands, entries, g.InitDay)
	res.Skipped = len(plan.Skipped)
	res.Unchanged = len(plan.Unchanged)
	if res.Skipped > 0 {
		log.Info().Int("skipped", res.Skipped).Str("init_day", g.InitDay.String()).Msg("dropped points before goal creation")
	}

	s.apply(ctx, g.Slug, plan, &res)

	outcome := "ok"
	if len(res.Failures) > 0 {
		outcome = "partial"
	}
	s.metrics.passes.WithLabelValues(outcome).Inc()
	s.metrics.durations.Observe(s.now().Sub(start).Seconds())
	log.Info().
		Int("candidates", len(cands)).
		Int("fetched", res.Fetched).
		Int("requests", cov.Requests).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("deleted", res.Deleted).
		Int("unchanged", res.Unchanged).
		Int("failed", len(res.Failures)).
		Msg("reconciled")
	return res, nil
}

// apply writes the plan with days in parallel and each day's steps in order
func (s *Service) apply(ctx context.Context, slug string, plan datapoint.Plan, res *domain.Result) {
	var mu sync.Mutex
	record := func(op datapoint.Op, step datapoint.Step, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			res.Failures = append(res.Failures, domain.Failure{Candidate: step.Candidate, Op: op.Kind, EntryID: op.EntryID, Err: err})
			return
		}
		switch op.Kind {
		case datapoint.OpCreate:
			res.Created++
		case datapoint.OpUpdate:
			res.Updated++
		case datapoint.OpDelete:
			res.Deleted++
		}
	}

	byDay := plan.ByDay()
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)
	for _, day := range plan.Days() {
		steps := byDay[day]
		g.Go(func() error {
			for _, step := range steps {
				for _, op := range step.Ops {
					err := s.write(ctx, slug, step, op)
					record(op, step, err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) write(ctx context.Context, slug string, step datapoint.Step, op datapoint.Op) error {
	err := ctx.Err()
	if err == nil {
		switch op.Kind {
		case datapoint.OpCreate:
			err = s.ledger.CreateEntry(ctx, slug, step.Candidate)
		case datapoint.OpUpdate:
			err = s.ledger.UpdateEntry(ctx, slug, op.EntryID, op.Value, op.Comment)
		case datapoint.OpDelete:
			err = s.ledger.DeleteEntry(ctx, slug, op.EntryID)
		}
	}

	result := "ok"
	if err != nil {
		result = "error"
		logger.C(ctx).Warn().Err(err).
			Str("goal", slug).
			Str("op", op.Kind.String()).
			Str("daystamp", op.Daystamp.String()).
			Str("entry_id", op.EntryID).
			Msg("ledger write failed")
	} else {
		s.log.Debug().
			Str("goal", slug).
			Str("op", op.Kind.String()).
			Str("daystamp", op.Daystamp.String()).
			Float64("value", op.Value).
			Msg("ledger write")
	}
	s.metrics.ops.WithLabelValues(op.Kind.String(), result).Inc()
	return err
}
