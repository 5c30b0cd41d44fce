// Package module wires the datapoints service into modkit
package module

import (
	"beesync/internal/modkit"
	phttp "beesync/internal/platform/net/http"
	"beesync/internal/services/datapoints/domain"
	"beesync/internal/services/datapoints/service"
)

// Ports exposed by the datapoints module
type Ports struct {
	Reconciler domain.ReconcilerPort
}

// Module implements the datapoints module; it has no routes of its own
type Module struct {
	b     modkit.Built
	ports Ports
}

// New constructs the module over a ledger client
func New(deps modkit.Deps, ledger domain.Ledger, opts ...modkit.Option) *Module {
	o := FromConfig(deps.Cfg)
	svc := service.New(ledger, service.Config{
		Concurrency: o.Concurrency,
		Location:    o.Location,
	}, deps.Metrics)

	b := modkit.Build(append([]modkit.Option{modkit.WithName("datapoints")}, opts...)...)
	return &Module{b: b, ports: Ports{Reconciler: svc}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r phttp.Router) { m.b.Mount(r) }
