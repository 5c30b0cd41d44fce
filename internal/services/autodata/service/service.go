// Package service turns health samples into ledger points for connected goals
package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"beesync/internal/core/aggregate"
	"beesync/internal/core/datapoint"
	"beesync/internal/core/goal"
	perr "beesync/internal/platform/errors"
	"beesync/internal/platform/logger"
	"beesync/internal/services/autodata/domain"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Config for the autodata service
type Config struct {
	// Days is the look back used when a caller passes zero
	Days        int
	Concurrency int

	// Interval between scheduled syncs in Run; zero disables the schedule
	Interval time.Duration

	// WatchMinInterval is the least time between syncs triggered by export changes
	WatchMinInterval time.Duration

	// Location is the zone goal days are computed in
	Location *time.Location
}

// Deps are the collaborators the service is built from
type Deps struct {
	Source     domain.SampleSource
	Reconciler domain.Reconciler
	Goals      domain.Goals

	// Watcher is optional; Watch fails without one
	Watcher domain.Watcher

	// Connections from the connections file override goal metrics
	Connections []domain.Connection
}

// Service implements domain.SyncPort
type Service struct {
	deps    Deps
	conns   map[string]domain.Connection
	cfg     Config
	log     logger.Logger
	metrics metrics
	now     func() time.Time

	// one sync at a time so two runs never race on the same goal's entries
	mu sync.Mutex
}

// New constructs the service; reg may be nil
func New(d Deps, cfg Config, reg prometheus.Registerer) *Service {
	if d.Source == nil || d.Reconciler == nil || d.Goals == nil {
		panic("autodata: nil dependency")
	}
	if cfg.Days <= 0 {
		cfg.Days = domain.DefaultDays
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.WatchMinInterval <= 0 {
		cfg.WatchMinInterval = 5 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	conns := make(map[string]domain.Connection, len(d.Connections))
	for _, c := range d.Connections {
		conns[c.Goal] = c
	}
	return &Service{
		deps:    d,
		conns:   conns,
		cfg:     cfg,
		log:     *logger.Named("autodata"),
		metrics: newMetrics(reg),
		now:     time.Now,
	}
}

func (s *Service) days(n int) int {
	if n <= 0 {
		return s.cfg.Days
	}
	return n
}

// SyncGoal syncs one goal over the last days days
// The returned error is set only when the goal was abandoned; failed ledger
// writes are reported in the result
func (s *Service) SyncGoal(ctx context.Context, slug string, days int) (domain.GoalReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = logger.WithRequest(ctx, uuid.NewString(), slug)
	rep := s.syncGoal(ctx, slug, s.days(days))
	return rep, rep.Err
}

// SyncAll syncs every connected goal concurrently
// A goal that fails is abandoned on its own; the error is set only when the
// connected goals could not be listed
func (s *Service) SyncAll(ctx context.Context, days int) (domain.Report, error) {
	return s.syncAll(ctx, days, "manual")
}

func (s *Service) syncAll(ctx context.Context, days int, trigger string) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := domain.Report{RunID: uuid.NewString(), Days: s.days(days), Started: s.now()}
	ctx = logger.WithRequest(ctx, rep.RunID, "")
	log := logger.From(ctx, &s.log)

	slugs, err := s.connected(ctx)
	if err != nil {
		s.metrics.runs.WithLabelValues(trigger, "error").Inc()
		log.Error().Err(err).Msg("list connected goals")
		return rep, err
	}

	out := make([]domain.GoalReport, len(slugs))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, slug := range slugs {
		g.Go(func() error {
			out[i] = s.syncGoal(logger.WithRequest(ctx, "", slug), slug, rep.Days)
			return nil
		})
	}
	_ = g.Wait()
	for _, gr := range out {
		rep.Add(gr)
	}

	result := "ok"
	ev := log.Info()
	if rep.Errors > 0 {
		result = "partial"
		ev = log.Warn()
	}
	s.metrics.runs.WithLabelValues(trigger, result).Inc()
	s.metrics.seconds.Observe(s.now().Sub(rep.Started).Seconds())
	ev.Str("trigger", trigger).Int("goals", len(slugs)).Int("errors", rep.Errors).
		Msgf("sync completed with %d errors", rep.Errors)
	return rep, nil
}

// connected lists cached goals fed by a metric plus the connections file, sorted
func (s *Service) connected(ctx context.Context) ([]string, error) {
	goals, err := s.deps.Goals.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(goals)+len(s.conns))
	var slugs []string
	add := func(slug string) {
		if !seen[slug] {
			seen[slug] = true
			slugs = append(slugs, slug)
		}
	}
	for _, g := range goals {
		if g.Connected() {
			add(g.Slug)
		}
	}
	for slug := range s.conns {
		add(slug)
	}
	slices.Sort(slugs)
	return slugs, nil
}

// resolve loads the goal, fetching it from the ledger when it is not cached yet,
// and picks its connection; the connections file wins over the goal's own metric
func (s *Service) resolve(ctx context.Context, slug string) (goal.State, domain.Connection, aggregate.Metric, error) {
	g, err := s.deps.Goals.Get(ctx, slug)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		g, err = s.deps.Goals.RefreshGoal(ctx, slug)
	}
	if err != nil {
		return goal.State{}, domain.Connection{}, aggregate.Metric{}, err
	}

	c, ok := s.conns[slug]
	if !ok {
		c = domain.Connection{Goal: slug, Metric: g.Metric, Config: g.Config}
	}
	m, ok := aggregate.Lookup(c.Metric)
	if !ok {
		return g, c, m, perr.WithField(perr.InvalidArgf("goal %s is not connected to a known metric", slug), "metric")
	}
	return g, c, m, nil
}

func (s *Service) syncGoal(ctx context.Context, slug string, days int) (rep domain.GoalReport) {
	rep.Goal = slug
	log := logger.From(ctx, &s.log)
	defer func() {
		switch {
		case rep.Err != nil:
			s.metrics.goals.WithLabelValues("error").Inc()
			log.Error().Err(rep.Err).Msg("goal sync abandoned")
		case len(rep.Result.Failures) > 0:
			s.metrics.goals.WithLabelValues("partial").Inc()
		default:
			s.metrics.goals.WithLabelValues("ok").Inc()
		}
	}()

	g, c, m, err := s.resolve(ctx, slug)
	rep.Metric = c.Metric
	if err != nil {
		rep.Fail(err)
		return rep
	}

	w := aggregate.LastDays(days, g.Deadline, s.cfg.Location, s.now())
	rep.From, rep.To = w.From, w.To

	samples, err := s.deps.Source.QuerySamples(ctx, m.SampleKind, w.Start(), w.End())
	if err != nil {
		rep.Fail(err)
		return rep
	}
	rep.Samples = len(samples)

	agg := aggregate.Aggregate(m, samples, w, c.Config.Options())
	rep.Malformed = agg.Malformed
	points := dropZeros(agg.Points)
	rep.Points = len(points)
	rep.Zeros = len(agg.Points) - len(points)
	if rep.Zeros > 0 {
		s.metrics.zeros.Add(float64(rep.Zeros))
		log.Debug().Int("zeros", rep.Zeros).Msg("dropped zero points")
	}
	if rep.Malformed > 0 {
		log.Warn().Int("malformed", rep.Malformed).Msg("skipped malformed samples")
	}

	res, err := s.deps.Reconciler.Reconcile(ctx, g, points)
	rep.Result = res
	if err != nil {
		rep.Fail(err)
		return rep
	}
	for _, f := range res.Failures {
		log.Warn().Err(f.Err).Str("op", f.Op.String()).Str("daystamp", f.Candidate.Daystamp.String()).Msg("ledger write failed")
	}

	// the refresh picks up the goal's queued flag and kicks the poller
	if _, err := s.deps.Goals.RefreshGoal(ctx, slug); err != nil {
		log.Warn().Err(err).Msg("refresh after sync")
	}
	return rep
}

func dropZeros(points []datapoint.Candidate) []datapoint.Candidate {
	out := points[:0:0]
	for _, p := range points {
		if p.Value != 0 {
			out = append(out, p)
		}
	}
	return out
}

// Watch syncs all goals whenever the sample export changes until ctx ends
// Changes arriving within WatchMinInterval of the last triggered sync are dropped
func (s *Service) Watch(ctx context.Context) error {
	if s.deps.Watcher == nil {
		return perr.New(perr.ErrorCodeInvalidArgument, "autodata: no sample watcher configured")
	}
	limit := rate.NewLimiter(rate.Every(s.cfg.WatchMinInterval), 1)
	log := logger.From(ctx, &s.log)
	return s.deps.Watcher.Watch(ctx, func() {
		if !limit.Allow() {
			s.metrics.events.WithLabelValues("dropped").Inc()
			log.Info().Dur("min_interval", s.cfg.WatchMinInterval).Msg("export changed too soon after last sync; dropped")
			return
		}
		s.metrics.events.WithLabelValues("sync").Inc()
		if _, err := s.syncAll(ctx, 0, "watch"); err != nil {
			log.Error().Err(err).Msg("watch sync")
		}
	})
}

// Run syncs on start, then on every Interval and on export changes, until ctx ends
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.scheduled(ctx, "start")
		if s.cfg.Interval <= 0 {
			return nil
		}
		t := time.NewTicker(s.cfg.Interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				s.scheduled(ctx, "interval")
			}
		}
	})
	if s.deps.Watcher != nil {
		g.Go(func() error { return s.Watch(ctx) })
	}
	return g.Wait()
}

func (s *Service) scheduled(ctx context.Context, trigger string) {
	if _, err := s.syncAll(ctx, 0, trigger); err != nil {
		logger.From(ctx, &s.log).Error().Err(err).Str("trigger", trigger).Msg("scheduled sync")
	}
}
