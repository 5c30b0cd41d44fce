package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"beesync/internal/core/goal"
	perr "beesync/internal/platform/errors"
	"beesync/internal/platform/logger"
	"beesync/internal/services/goals/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

const defaultPollInterval = 2 * time.Second

// PollerConfig tunes the poller
type PollerConfig struct {
	// Interval is the pause between rounds
	Interval time.Duration

	// MaxRounds ends a loop after that many rounds; 0 polls until nothing is queued
	MaxRounds int

	// Concurrency bounds the refresh fan-out of one round
	Concurrency int
}

// PollSource is what the poller reads and refreshes goals through
type PollSource interface {
	Queued(ctx context.Context) ([]goal.State, error)
	RefreshGoal(ctx context.Context, slug string) (goal.State, error)
}

// Poller refreshes queued goals until the ledger clears their queued flag
// At most one loop runs at a time; the Idle -> Polling transition is a
// compare and swap and every loop exit stores Idle
type Poller struct {
	src   PollSource
	cfg   PollerConfig
	log   logger.Logger
	sleep func(context.Context, time.Duration) error
	now   func() time.Time

	state  atomic.Uint32
	loops  atomic.Int64
	rounds atomic.Int64

	mu       sync.Mutex
	lastExit time.Time
	lastErr  string

	// closeMu orders Kick's wg.Add before Close's wg.Wait
	closeMu sync.Mutex
	closed  bool
	stop    chan struct{}
	wg      sync.WaitGroup

	roundsTotal prometheus.Counter
	exits       *prometheus.CounterVec
}

// NewPoller constructs an idle poller; reg may be nil
func NewPoller(src PollSource, cfg PollerConfig, reg prometheus.Registerer) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollInterval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	f := promauto.With(reg)
	return &Poller{
		src:   src,
		cfg:   cfg,
		log:   *logger.Named("poller"),
		sleep: sleepCtx,
		now:   time.Now,
		stop:  make(chan struct{}),
		roundsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "beesync_poller_rounds_total",
			Help: "Refresh rounds run by the queued goal poller",
		}),
		exits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "beesync_poller_exits_total",
			Help: "Polling loop exits by reason",
		}, []string{"reason"}),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// State reports Idle or Polling
func (p *Poller) State() domain.PollState { return domain.PollState(p.state.Load()) }

// Kick starts a background loop if the poller is idle
// The loop outlives ctx's cancellation but keeps its values; Close stops it
// A closed poller never starts a loop
func (p *Poller) Kick(ctx context.Context) bool {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed || !p.acquire() {
		return false
	}
	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		go func() {
			select {
			case <-p.stop:
				cancel()
			case <-lctx.Done():
			}
		}()
		_ = p.run(lctx)
	}()
	return true
}

// Poll runs one loop in the caller's goroutine; it fails with a conflict when a loop is already running
func (p *Poller) Poll(ctx context.Context) error {
	if !p.acquire() {
		return perr.Conflictf("poller already running")
	}
	return p.run(ctx)
}

// Close stops background loops and waits for them to exit
func (p *Poller) Close() {
	p.closeMu.Lock()
	if !p.closed {
		p.closed = true
		close(p.stop)
	}
	p.closeMu.Unlock()
	p.wg.Wait()
}

// Status returns a snapshot for the API
func (p *Poller) Status() domain.PollerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.PollerStatus{
		State:     p.State(),
		Loops:     p.loops.Load(),
		Rounds:    p.rounds.Load(),
		LastExit:  p.lastExit,
		LastError: p.lastErr,
	}
}

func (p *Poller) acquire() bool {
	return p.state.CompareAndSwap(uint32(domain.Idle), uint32(domain.Polling))
}

// run is the Polling state; it always returns the poller to Idle
func (p *Poller) run(ctx context.Context) (err error) {
	p.loops.Add(1)
	reason := "drained"
	defer func() {
		p.mu.Lock()
		p.lastExit = p.now()
		p.lastErr = ""
		if err != nil {
			p.lastErr = err.Error()
		}
		p.mu.Unlock()
		p.exits.WithLabelValues(reason).Inc()
		p.state.Store(uint32(domain.Idle))
	}()

	log := logger.From(ctx, &p.log)
	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			reason = "canceled"
			return err
		}
		queued, err := p.src.Queued(ctx)
		if err != nil {
			reason = "error"
			log.Error().Err(err).Msg("enumerate queued goals failed; polling stopped")
			return err
		}
		if len(queued) == 0 {
			log.Debug().Int("rounds", round-1).Msg("no queued goals")
			return nil
		}
		if p.cfg.MaxRounds > 0 && round > p.cfg.MaxRounds {
			reason = "max_rounds"
			log.Warn().Int("queued", len(queued)).Int("max_rounds", p.cfg.MaxRounds).Msg("goals still queued; polling stopped")
			return nil
		}

		if err := p.refreshAll(ctx, queued); err != nil {
			reason = "error"
			log.Error().Err(err).Msg("ledger rejected credentials; polling stopped")
			return err
		}
		p.rounds.Add(1)
		p.roundsTotal.Inc()

		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			reason = "canceled"
			return err
		}
	}
}

// refreshAll refreshes goals concurrently; per goal errors are logged and
// dropped except rejected credentials, which no later round can fix
func (p *Poller) refreshAll(ctx context.Context, goals []goal.State) error {
	var (
		g     errgroup.Group
		mu    sync.Mutex
		fatal error
	)
	g.SetLimit(p.cfg.Concurrency)
	for _, gs := range goals {
		g.Go(func() error {
			_, err := p.src.RefreshGoal(ctx, gs.Slug)
			if err == nil {
				return nil
			}
			logger.From(logger.WithRequest(ctx, "", gs.Slug), &p.log).Warn().Err(err).Msg("refresh queued goal failed")
			if perr.IsCode(err, perr.ErrorCodeUnauthorized) {
				mu.Lock()
				fatal = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return fatal
}
