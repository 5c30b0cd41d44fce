// Package module defines the minimal contract for a modkit module
package module

import (
	phttp "beesync/internal/platform/net/http"
)

// Module is what cmd wires: a named unit that mounts routes and exposes ports
// It lives apart from modkit so a module can export its own ports type without import knots
type Module interface {
	Name() string
	MountRoutes(r phttp.Router)
	Ports() any
}
