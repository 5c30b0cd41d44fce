package ledger

import (
	"time"

	"beesync/internal/core/datapoint"
	"beesync/internal/core/daystamp"
	"beesync/internal/core/goal"
	perr "beesync/internal/platform/errors"
)

// goalWire is the subset of the ledger's goal object beesync reads
type goalWire struct {
	ID             string        `json:"id"`
	Slug           string        `json:"slug"`
	Title          string        `json:"title"`
	Deadline       int           `json:"deadline"`
	InitDay        int64         `json:"initday"`
	Queued         bool          `json:"queued"`
	Metric         string        `json:"healthkitmetric"`
	Autodata       string        `json:"autodata"`
	AutodataConfig goal.Autodata `json:"autodata_config"`
	UpdatedAt      int64         `json:"updated_at"`
}

func (g goalWire) state() goal.State {
	s := goal.State{
		ID:       g.ID,
		Slug:     g.Slug,
		Title:    g.Title,
		Deadline: g.Deadline,
		InitDay:  goal.InitDaystamp(g.InitDay),
		Queued:   g.Queued,
		Metric:   g.Metric,
		Autodata: g.Autodata,
		Config:   g.AutodataConfig,
	}
	if g.UpdatedAt > 0 {
		s.UpdatedAt = time.Unix(g.UpdatedAt, 0).UTC()
	}
	return s
}

// entryWire is one datapoint as returned by the ledger
type entryWire struct {
	ID        string  `json:"id"`
	Daystamp  string  `json:"daystamp"`
	Value     float64 `json:"value"`
	Comment   string  `json:"comment"`
	RequestID string  `json:"requestid"`
	IsDummy   bool    `json:"is_dummy"`
	IsInitial bool    `json:"is_initial"`
}

func (e entryWire) entry() (datapoint.Entry, error) {
	d, err := daystamp.Parse(e.Daystamp)
	if err != nil {
		return datapoint.Entry{}, perr.WithField(err, "daystamp")
	}
	return datapoint.Entry{
		ID:       e.ID,
		Daystamp: d,
		Value:    e.Value,
		Comment:  e.Comment,
		Meta:     e.IsDummy || e.IsInitial,
	}, nil
}
