// Package module wires the goal cache and poller into modkit
package module

import (
	"context"

	"beesync/internal/modkit"
	phttp "beesync/internal/platform/net/http"
	"beesync/internal/services/goals/domain"
	goalshttp "beesync/internal/services/goals/http"
	"beesync/internal/services/goals/repo"
	"beesync/internal/services/goals/service"
)

// Ports exposed by the goals module
type Ports struct {
	Goals  domain.GoalsPort
	Poller domain.PollerPort
}

// Module implements the goals module
type Module struct {
	b     modkit.Built
	svc   *service.Service
	ports Ports
}

// New constructs the module; deps.SQL must be set
func New(deps modkit.Deps, ledger domain.Ledger, opts ...modkit.Option) *Module {
	o := FromConfig(deps.Cfg)
	svc := service.New(deps.SQL, repo.NewSQL(), ledger, service.PollerConfig{
		Interval:    o.PollInterval,
		MaxRounds:   o.PollMaxRounds,
		Concurrency: o.PollConcurrency,
	}, deps.Metrics)

	m := &Module{svc: svc, ports: Ports{Goals: svc, Poller: svc.Poller()}}
	base := []modkit.Option{
		modkit.WithName("goals"),
		modkit.WithRegister(func(r phttp.Router) { goalshttp.Register(r, m.ports.Goals, m.ports.Poller) }),
	}
	m.b = modkit.Build(append(base, opts...)...)
	return m
}

// Init creates the cache table
func (m *Module) Init(ctx context.Context) error { return m.svc.EnsureSchema(ctx) }

// Close stops background polling
func (m *Module) Close() { m.svc.Poller().Close() }

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r phttp.Router) { m.b.Mount(r) }
