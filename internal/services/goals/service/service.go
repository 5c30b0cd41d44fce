// Package service keeps the local goal cache in step with the ledger
package service

import (
	"context"

	"beesync/internal/core/goal"
	"beesync/internal/modkit/repokit"
	"beesync/internal/platform/logger"
	"beesync/internal/services/goals/domain"
	"beesync/internal/services/goals/repo"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Service implements domain.GoalsPort and owns the queued goal poller
type Service struct {
	db      repokit.TxRunner
	binder  repokit.Binder[repo.Storage]
	ledger  domain.Ledger
	poller  *Poller
	log     logger.Logger
	refresh *prometheus.CounterVec
}

// New constructs the service; reg may be nil
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], ledger domain.Ledger, pc PollerConfig, reg prometheus.Registerer) *Service {
	if db == nil || binder == nil || ledger == nil {
		panic("goals: nil dependency")
	}
	s := &Service{
		db:     db,
		binder: binder,
		ledger: ledger,
		log:    *logger.Named("goals"),
		refresh: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "beesync_goal_refresh_total",
			Help: "Goal refreshes from the ledger by scope and result",
		}, []string{"scope", "result"}),
	}
	s.poller = NewPoller(s, pc, reg)
	return s
}

// Poller returns the poller fed by this service
func (s *Service) Poller() *Poller { return s.poller }

func (s *Service) repo() repo.Storage { return repokit.MustBind(s.binder, s.db) }

// EnsureSchema prepares the cache table
func (s *Service) EnsureSchema(ctx context.Context) error { return s.repo().EnsureSchema(ctx) }

// RefreshAll replaces the cache with the ledger's goal list then kicks the poller
func (s *Service) RefreshAll(ctx context.Context) ([]goal.State, error) {
	goals, err := s.ledger.FetchGoals(ctx)
	if err != nil {
		s.refresh.WithLabelValues("all", "error").Inc()
		return nil, err
	}

	removed := 0
	err = repokit.WithTx(ctx, s.db, s.binder, func(r repo.Storage) error {
		keep := make([]string, 0, len(goals))
		for _, g := range goals {
			if err := r.Upsert(ctx, g); err != nil {
				return err
			}
			keep = append(keep, g.Slug)
		}
		n, err := r.DeleteExcept(ctx, keep)
		removed = n
		return err
	})
	if err != nil {
		s.refresh.WithLabelValues("all", "error").Inc()
		return nil, err
	}
	s.refresh.WithLabelValues("all", "ok").Inc()
	logger.From(ctx, &s.log).Info().Int("goals", len(goals)).Int("removed", removed).Msg("goals refreshed")

	s.poller.Kick(ctx)
	return goals, nil
}

// RefreshGoal reloads one goal from the ledger then kicks the poller
// While the poller is running the kick is a no-op
func (s *Service) RefreshGoal(ctx context.Context, slug string) (goal.State, error) {
	g, err := s.ledger.FetchGoal(ctx, slug)
	if err == nil {
		err = s.repo().Upsert(ctx, g)
	}
	if err != nil {
		s.refresh.WithLabelValues("goal", "error").Inc()
		return goal.State{}, err
	}
	s.refresh.WithLabelValues("goal", "ok").Inc()
	logger.From(logger.WithRequest(ctx, "", slug), &s.log).Debug().Bool("queued", g.Queued).Msg("goal refreshed")

	s.poller.Kick(ctx)
	return g, nil
}

// List returns the cached goals
func (s *Service) List(ctx context.Context) ([]goal.State, error) { return s.repo().List(ctx) }

// Get returns one cached goal
func (s *Service) Get(ctx context.Context, slug string) (goal.State, error) {
	return s.repo().Get(ctx, slug)
}

// Queued returns the cached goals still flagged as queued
func (s *Service) Queued(ctx context.Context) ([]goal.State, error) {
	return s.repo().ListQueued(ctx)
}
