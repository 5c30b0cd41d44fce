// Package http provides http transport for metric syncs
package http

import (
	stdhttp "net/http"

	"beesync/internal/core/aggregate"
	phttp "beesync/internal/platform/net/http"
	"beesync/internal/services/autodata/domain"
)

// Register mounts sync endpoints on the given router
func Register(r phttp.Router, sync domain.SyncPort) {
	h := &handlers{sync: sync}

	// sync one goal, or every connected goal when none is named
	phttp.PostJSON(r, "/sync", stdhttp.StatusOK, h.run)

	// syncable metrics
	phttp.GetJSON(r, "/catalog", h.catalog)
}

type handlers struct {
	sync domain.SyncPort
}

type syncRequest struct {
	Goal string `json:"goal,omitempty" validate:"omitempty,goalslug"`
	Days int    `json:"days,omitempty" validate:"omitempty,min=1,max=365"`
}

func (h *handlers) run(r *stdhttp.Request, in syncRequest) (any, error) {
	if in.Goal != "" {
		return h.sync.SyncGoal(r.Context(), in.Goal, in.Days)
	}
	return h.sync.SyncAll(r.Context(), in.Days)
}

type metricView struct {
	Name       string             `json:"name"`
	Text       string             `json:"text"`
	Category   aggregate.Category `json:"category"`
	Unit       string             `json:"unit"`
	Individual bool               `json:"individual"`
}

func (h *handlers) catalog(*stdhttp.Request) (any, error) {
	ms := aggregate.Metrics()
	out := make([]metricView, 0, len(ms))
	for _, m := range ms {
		out = append(out, metricView{Name: m.Name, Text: m.Text, Category: m.Category, Unit: m.Unit, Individual: m.Individual})
	}
	return out, nil
}
