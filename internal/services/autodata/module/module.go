// Package module wires metric syncs into modkit
package module

import (
	"context"

	"beesync/internal/adapters/samples"
	"beesync/internal/modkit"
	phttp "beesync/internal/platform/net/http"
	"beesync/internal/services/autodata/domain"
	autodatahttp "beesync/internal/services/autodata/http"
	"beesync/internal/services/autodata/service"
)

// Ports exposed by the autodata module
type Ports struct {
	Sync domain.SyncPort
}

// Module implements the autodata module
type Module struct {
	b     modkit.Built
	svc   *service.Service
	ports Ports
}

// New constructs the module over the sample export named by AUTODATA_SAMPLES_PATH
// It fails when the connections file cannot be loaded
func New(deps modkit.Deps, rec domain.Reconciler, goals domain.Goals, opts ...modkit.Option) (*Module, error) {
	o := FromConfig(deps.Cfg)
	conns, err := domain.LoadConnections(o.ConnectionsFile)
	if err != nil {
		return nil, err
	}

	svc := service.New(service.Deps{
		Source:      samples.NewFileSource(o.SamplesPath),
		Reconciler:  rec,
		Goals:       goals,
		Watcher:     samples.NewWatcher(o.SamplesPath, o.WatchDebounce),
		Connections: conns,
	}, service.Config{
		Days:             o.Days,
		Concurrency:      o.Concurrency,
		Interval:         o.Interval,
		WatchMinInterval: o.WatchMinInterval,
		Location:         o.Location,
	}, deps.Metrics)

	m := &Module{svc: svc, ports: Ports{Sync: svc}}
	base := []modkit.Option{
		modkit.WithName("autodata"),
		modkit.WithRegister(func(r phttp.Router) { autodatahttp.Register(r, m.ports.Sync) }),
	}
	m.b = modkit.Build(append(base, opts...)...)
	return m, nil
}

// Watch syncs on sample export changes until ctx ends
func (m *Module) Watch(ctx context.Context) error { return m.svc.Watch(ctx) }

// Run syncs on schedule and on export changes until ctx ends
func (m *Module) Run(ctx context.Context) error { return m.svc.Run(ctx) }

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r phttp.Router) { m.b.Mount(r) }
