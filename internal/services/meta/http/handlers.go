// Package http provides probe and build endpoints
package http

import (
	"context"
	stdhttp "net/http"
	"strings"
	"time"

	"beesync/internal/core/version"
	perr "beesync/internal/platform/errors"
	phttp "beesync/internal/platform/net/http"
)

// Check is one readiness dependency
type Check struct {
	Name string
	Ping func(context.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	StartedAt time.Time
	Checks    []Check

	// ReadyTimeout bounds all checks together; default 2s
	ReadyTimeout time.Duration
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// Register mounts the meta routes
func Register(r phttp.Router, d Deps) {
	if d.ReadyTimeout <= 0 {
		d.ReadyTimeout = 2 * time.Second
	}
	h := &handlers{deps: d, now: time.Now}

	phttp.GetJSON(r, "/healthz", h.health)
	phttp.GetJSON(r, "/readyz", h.ready)
	phttp.GetJSON(r, "/version", h.version)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status"`
	Checks []ReadyCheck `json:"checks"`
}

func (h *handlers) health(*stdhttp.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: version.Info().Service,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.now().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

// ready answers 503 naming the failed checks when any dependency is down
func (h *handlers) ready(r *stdhttp.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.ReadyTimeout)
	defer cancel()

	resp := ReadyResponse{Status: "ok", Checks: make([]ReadyCheck, 0, len(h.deps.Checks))}
	var failed []string
	for _, c := range h.deps.Checks {
		rc := ReadyCheck{Name: c.Name, Status: "ok"}
		if err := c.Ping(ctx); err != nil {
			rc.Status, rc.Error = "fail", err.Error()
			failed = append(failed, c.Name)
		}
		resp.Checks = append(resp.Checks, rc)
	}
	if len(failed) > 0 {
		return nil, perr.Unavailablef("not ready: %s", strings.Join(failed, ", "))
	}
	return resp, nil
}

func (h *handlers) version(*stdhttp.Request) (any, error) {
	return version.Info(), nil
}
