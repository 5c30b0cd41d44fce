package ledger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"beesync/internal/core/datapoint"
	"beesync/internal/core/goal"
	perr "beesync/internal/platform/errors"
)

const maxBody = 8 << 20

// FetchGoals lists every goal of the user without datapoints
func (c *Client) FetchGoals(ctx context.Context) ([]goal.State, error) {
	var wire []goalWire
	if err := c.getJSON(ctx, "/goals.json", url.Values{"emaciated": {"true"}}, &wire); err != nil {
		return nil, err
	}
	out := make([]goal.State, 0, len(wire))
	for _, g := range wire {
		out = append(out, g.state())
	}
	return out, nil
}

// FetchGoal reads one goal with its five most recent datapoints
func (c *Client) FetchGoal(ctx context.Context, slug string) (goal.State, error) {
	q := url.Values{"datapoints_count": {"5"}, "emaciated": {"true"}}
	var wire goalWire
	if err := c.getJSON(ctx, goalPath(slug)+".json", q, &wire); err != nil {
		return goal.State{}, err
	}
	return wire.state(), nil
}

// FetchEntries reads one page of a goal's datapoints
// Pages are 1 based; an empty slice means the page is past the end
func (c *Client) FetchEntries(ctx context.Context, slug, sort string, per, page int) ([]datapoint.Entry, error) {
	q := url.Values{
		"sort": {sort},
		"per":  {strconv.Itoa(per)},
		"page": {strconv.Itoa(page)},
	}
	var wire []entryWire
	if err := c.getJSON(ctx, goalPath(slug)+"/datapoints.json", q, &wire); err != nil {
		return nil, err
	}
	out := make([]datapoint.Entry, 0, len(wire))
	for _, w := range wire {
		e, err := w.entry()
		if err != nil {
			return nil, perr.WithOp(err, "ledger.FetchEntries")
		}
		out = append(out, e)
	}
	return out, nil
}

// CreateEntry adds a datapoint from the candidate's urtext and request id
func (c *Client) CreateEntry(ctx context.Context, slug string, cand datapoint.Candidate) error {
	form := url.Values{"urtext": {cand.Urtext()}}
	if cand.RequestID != "" {
		form.Set("requestid", cand.RequestID)
	}
	return c.send(ctx, http.MethodPost, goalPath(slug)+"/datapoints.json", form)
}

// UpdateEntry rewrites the value and comment of an existing datapoint
func (c *Client) UpdateEntry(ctx context.Context, slug, id string, value float64, comment string) error {
	form := url.Values{
		"value":   {datapoint.FormatValue(value)},
		"comment": {comment},
	}
	return c.send(ctx, http.MethodPut, entryPath(slug, id), form)
}

// DeleteEntry removes a datapoint
func (c *Client) DeleteEntry(ctx context.Context, slug, id string) error {
	return c.send(ctx, http.MethodDelete, entryPath(slug, id), nil)
}

func goalPath(slug string) string { return "/goals/" + url.PathEscape(slug) }

func entryPath(slug, id string) string {
	return goalPath(slug) + "/datapoints/" + url.PathEscape(id) + ".json"
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", path).Msg("ledger close body failed")
		}
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &TransportError{Status: resp.StatusCode, Message: err.Error(), cause: err}
	}
	if err := json.Unmarshal(b, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "ledger %s: decode response", path)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, form url.Values) error {
	resp, err := c.do(ctx, method, path, nil, form)
	if err != nil {
		return err
	}
	if cerr := drainAndClose(resp.Body); cerr != nil {
		c.log.Error().Err(cerr).Str("path", path).Msg("ledger close body failed")
	}
	return nil
}
