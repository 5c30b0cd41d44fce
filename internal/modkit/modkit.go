// Package modkit provides module wiring and core deps
package modkit

import (
	"beesync/internal/modkit/module"
	phttp "beesync/internal/platform/net/http"
)

// Module is the common surface for service modules
type Module = module.Module

// MountAll mounts every module on r in order
func MountAll(r phttp.Router, mods ...Module) {
	for _, m := range mods {
		m.MountRoutes(r)
	}
}
