// Package http provides http transport for goals and the poller
package http

import (
	stdhttp "net/http"

	phttp "beesync/internal/platform/net/http"
	"beesync/internal/platform/net/http/bind"
	"beesync/internal/services/goals/domain"

	"github.com/go-chi/chi/v5"
)

// Register mounts goal endpoints on the given router
func Register(r phttp.Router, goals domain.GoalsPort, poller domain.PollerPort) {
	h := &handlers{goals: goals, poller: poller}

	// cached goals
	phttp.GetJSON(r, "/goals", h.list)

	// one cached goal
	phttp.GetJSON(r, "/goals/{slug}", h.get)

	// reload every goal from the ledger
	r.Post("/goals/refresh", phttp.Handle(h.refreshAll))

	// reload one goal from the ledger
	r.Post("/goals/{slug}/refresh", phttp.Handle(h.refreshGoal))

	// poller snapshot
	phttp.GetJSON(r, "/poller", h.status)
}

type handlers struct {
	goals  domain.GoalsPort
	poller domain.PollerPort
}

type slugParam struct {
	Slug string `json:"slug" validate:"required,goalslug"`
}

func slugOf(r *stdhttp.Request) (string, error) {
	p := slugParam{Slug: chi.URLParam(r, "slug")}
	if err := bind.Validate(p); err != nil {
		return "", err
	}
	return p.Slug, nil
}

func (h *handlers) list(r *stdhttp.Request) (any, error) {
	return h.goals.List(r.Context())
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	slug, err := slugOf(r)
	if err != nil {
		return nil, err
	}
	return h.goals.Get(r.Context(), slug)
}

func (h *handlers) refreshAll(r *stdhttp.Request) phttp.Response {
	gs, err := h.goals.RefreshAll(r.Context())
	if err != nil {
		return phttp.Error(err)
	}
	return phttp.OK(gs)
}

func (h *handlers) refreshGoal(r *stdhttp.Request) phttp.Response {
	slug, err := slugOf(r)
	if err != nil {
		return phttp.Error(err)
	}
	g, err := h.goals.RefreshGoal(r.Context(), slug)
	if err != nil {
		return phttp.Error(err)
	}
	if g.Queued {
		return phttp.Accepted(g)
	}
	return phttp.OK(g)
}

func (h *handlers) status(*stdhttp.Request) (any, error) {
	return h.poller.Status(), nil
}
