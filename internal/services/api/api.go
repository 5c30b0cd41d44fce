// Package api composes the beesync modules and mounts their HTTP surface
package api

import (
	"context"
	"net/http"

	"beesync/internal/adapters/ledger"
	"beesync/internal/modkit"
	"beesync/internal/modkit/module"
	"beesync/internal/platform/config"
	perr "beesync/internal/platform/errors"
	"beesync/internal/platform/logger"
	phttp "beesync/internal/platform/net/http"
	"beesync/internal/platform/net/middleware"
	"beesync/internal/platform/store"

	autodatadomain "beesync/internal/services/autodata/domain"
	autodatamod "beesync/internal/services/autodata/module"
	dpdomain "beesync/internal/services/datapoints/domain"
	dpmod "beesync/internal/services/datapoints/module"
	goalsdomain "beesync/internal/services/goals/domain"
	goalsmod "beesync/internal/services/goals/module"
	metahttp "beesync/internal/services/meta/http"
	metamod "beesync/internal/services/meta/module"

	"github.com/prometheus/client_golang/prometheus"
)

// Options are the composition inputs
type Options struct {
	Config config.Conf
	Store  *store.Store

	// Metrics receives every module's collectors; nil skips registration
	Metrics prometheus.Registerer

	// Ledger overrides the client built from LEDGER_*
	Ledger *ledger.Client
}

// App holds the wired modules and the ports commands drive
type App struct {
	Ledger *ledger.Client

	Meta       *metamod.Module
	Datapoints *dpmod.Module
	Goals      *goalsmod.Module
	Autodata   *autodatamod.Module

	GoalsPort  goalsdomain.GoalsPort
	PollerPort goalsdomain.PollerPort
	SyncPort   autodatadomain.SyncPort
}

// New builds every module and prepares the goal cache
func New(ctx context.Context, opt Options) (*App, error) {
	if opt.Store == nil || opt.Store.SQL == nil {
		return nil, perr.New(perr.ErrorCodeInvalidArgument, "api: store has no SQL backend")
	}
	deps := modkit.Deps{
		Log:     *logger.Get(),
		Cfg:     opt.Config,
		SQL:     opt.Store.SQL,
		Metrics: opt.Metrics,
	}

	lc := opt.Ledger
	if lc == nil {
		lo := ledger.OptionsFromConf(opt.Config.Prefix("LEDGER_"))
		lo.Registerer = opt.Metrics
		lc = ledger.NewClient(lo)
	}

	a := &App{Ledger: lc}
	a.Meta = metamod.New([]metahttp.Check{{Name: string(opt.Store.Driver), Ping: opt.Store.Guard}})
	a.Datapoints = dpmod.New(deps, lc)
	a.Goals = goalsmod.New(deps, lc)
	if err := a.Goals.Init(ctx); err != nil {
		return nil, err
	}

	// the autodata module reaches the others only through their ports
	rec := module.MustPortsOf[dpdomain.ReconcilerPort](a.Datapoints)
	a.GoalsPort = module.MustPortsOf[goalsdomain.GoalsPort](a.Goals)
	a.PollerPort = module.MustPortsOf[goalsdomain.PollerPort](a.Goals)

	ad, err := autodatamod.New(deps, rec, a.GoalsPort)
	if err != nil {
		return nil, err
	}
	a.Autodata = ad
	a.SyncPort = module.MustPortsOf[autodatadomain.SyncPort](ad)
	return a, nil
}

// MountOptions configures the HTTP surface
type MountOptions struct {
	// Token guards /v1; empty leaves it open
	Token       string
	CORSOrigins []string

	// MetricsHandler is served on /metrics when set
	MetricsHandler http.Handler
}

// Mount puts the probes and /metrics at the root and the modules under /v1
func (a *App) Mount(r phttp.Router, o MountOptions) {
	a.Meta.MountRoutes(r)
	if o.MetricsHandler != nil {
		r.Handle("/metrics", o.MetricsHandler)
	}

	r.Route("/v1", func(v1 phttp.Router) {
		if len(o.CORSOrigins) > 0 {
			v1.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.CORSOrigins, MaxAge: 300}))
		}
		v1.Use(middleware.BearerToken(o.Token, phttp.RespondError))
		modkit.MountAll(v1, a.Goals, a.Autodata, a.Datapoints)
	})
}

// Close stops background goal polling
func (a *App) Close() { a.Goals.Close() }
