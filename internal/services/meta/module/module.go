// Package module wires the probe endpoints into modkit
package module

import (
	"time"

	"beesync/internal/modkit"
	phttp "beesync/internal/platform/net/http"
	metahttp "beesync/internal/services/meta/http"
)

// Module implements the meta module; mount it outside the authenticated API
type Module struct {
	b modkit.Built
}

// New constructs a meta module checking the given dependencies on /readyz
func New(checks []metahttp.Check, opts ...modkit.Option) *Module {
	started := time.Now()
	base := []modkit.Option{
		modkit.WithName("meta"),
		modkit.WithRegister(func(r phttp.Router) {
			metahttp.Register(r, metahttp.Deps{StartedAt: started, Checks: checks})
		}),
	}
	return &Module{b: modkit.Build(append(base, opts...)...)}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return nil }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r phttp.Router) { m.b.Mount(r) }
