package ledger

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"beesync/internal/core/datapoint"
	"beesync/internal/core/daystamp"
	perr "beesync/internal/platform/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(Options{BaseURL: srv.URL + "/api/v1", Username: "alice", Token: "tok", MaxRetries: 2})
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestFetchGoals(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/alice/goals.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("auth_token"); got != "tok" {
			t.Errorf("auth_token = %q, want tok", got)
		}
		if got := r.URL.Query().Get("emaciated"); got != "true" {
			t.Errorf("emaciated = %q", got)
		}
		_, _ = io.WriteString(w, `[
			{"id":"g1","slug":"sleep","deadline":-3600,"initday":1688961600,"queued":true,
			 "healthkitmetric":"timeAsleep","autodata":"apple","autodata_config":{"daily_aggregate":false},
			 "updated_at":1700000000},
			{"id":"g2","slug":"other","autodata_config":{}}
		]`)
	})

	goals, err := c.FetchGoals(context.Background())
	if err != nil {
		t.Fatalf("FetchGoals: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("len = %d, want 2", len(goals))
	}
	g := goals[0]
	if g.Slug != "sleep" || g.Deadline != -3600 || !g.Queued || g.Metric != "timeAsleep" {
		t.Fatalf("goal = %+v", g)
	}
	// 2023-07-10 00:00 US Eastern
	if g.InitDay != daystamp.Of(2023, 7, 10) {
		t.Fatalf("InitDay = %s, want 20230710", g.InitDay)
	}
	if !g.Config.Options().Individual {
		t.Fatal("daily_aggregate=false should select individual mode")
	}
	if g.UpdatedAt.Unix() != 1700000000 {
		t.Fatalf("UpdatedAt = %v", g.UpdatedAt)
	}
	if goals[1].Config.Options().Individual || !goals[1].InitDay.IsZero() {
		t.Fatalf("defaults = %+v", goals[1])
	}
}

func TestFetchGoal_Query(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/alice/goals/weight.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("datapoints_count"); got != "5" {
			t.Errorf("datapoints_count = %q", got)
		}
		_, _ = io.WriteString(w, `{"id":"g","slug":"weight","queued":false}`)
	})
	g, err := c.FetchGoal(context.Background(), "weight")
	if err != nil || g.Slug != "weight" {
		t.Fatalf("FetchGoal = %+v, %v", g, err)
	}
}

func TestFetchEntries_MetaAndParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("sort") != "daystamp" || q.Get("per") != "12" || q.Get("page") != "2" {
			t.Errorf("query = %v", q)
		}
		_, _ = io.WriteString(w, `[
			{"id":"a","daystamp":"20240102","value":1.5,"comment":"x"},
			{"id":"b","daystamp":"20240101","value":0,"is_initial":true},
			{"id":"c","daystamp":"20240101","value":0,"is_dummy":true}
		]`)
	})
	es, err := c.FetchEntries(context.Background(), "g", "daystamp", 12, 2)
	if err != nil {
		t.Fatalf("FetchEntries: %v", err)
	}
	if len(es) != 3 {
		t.Fatalf("len = %d, want 3", len(es))
	}
	if es[0].Meta || !es[1].Meta || !es[2].Meta {
		t.Fatalf("meta flags = %v %v %v", es[0].Meta, es[1].Meta, es[2].Meta)
	}
	if es[0].Daystamp != daystamp.Of(2024, 1, 2) || es[0].Value != 1.5 {
		t.Fatalf("entry = %+v", es[0])
	}
}

func TestFetchEntries_BadDaystamp(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"a","daystamp":"2024-01-02","value":1}]`)
	})
	_, err := c.FetchEntries(context.Background(), "g", "daystamp", 5, 1)
	if !perr.IsCode(err, perr.ErrorCodeFormat) {
		t.Fatalf("err = %v, want format", err)
	}
}

func TestMutations(t *testing.T) {
	type seen struct {
		method, path string
		form         url.Values
	}
	var got []seen
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		got = append(got, seen{r.Method, r.URL.Path, r.PostForm})
		_, _ = io.WriteString(w, `{}`)
	})
	ctx := context.Background()
	cand := datapoint.Candidate{Daystamp: daystamp.Of(2024, 3, 9), Value: 7.25, Comment: "Auto-entered via Apple Health", RequestID: "apple-health-20240309"}
	if err := c.CreateEntry(ctx, "steps", cand); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if err := c.UpdateEntry(ctx, "steps", "dp1", 8, datapoint.UpdateComment); err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	if err := c.DeleteEntry(ctx, "steps", "dp2"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("requests = %d, want 3", len(got))
	}
	if got[0].method != http.MethodPost || got[0].path != "/api/v1/users/alice/goals/steps/datapoints.json" {
		t.Fatalf("create = %+v", got[0])
	}
	if u := got[0].form.Get("urtext"); u != `2024 03 09 7.25 "Auto-entered via Apple Health"` {
		t.Fatalf("urtext = %s", u)
	}
	if got[0].form.Get("requestid") != "apple-health-20240309" {
		t.Fatalf("requestid = %s", got[0].form.Get("requestid"))
	}
	if got[1].method != http.MethodPut || got[1].path != "/api/v1/users/alice/goals/steps/datapoints/dp1.json" {
		t.Fatalf("update = %+v", got[1])
	}
	if got[1].form.Get("value") != "8" || got[1].form.Get("comment") != datapoint.UpdateComment {
		t.Fatalf("update form = %v", got[1].form)
	}
	if got[2].method != http.MethodDelete || got[2].path != "/api/v1/users/alice/goals/steps/datapoints/dp2.json" {
		t.Fatalf("delete = %+v", got[2])
	}
}

func TestRetry_TransientThenOK(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})
	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	if _, err := c.FetchGoals(context.Background()); err != nil {
		t.Fatalf("FetchGoals: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
	if len(waits) != 2 || waits[0] != time.Second {
		t.Fatalf("waits = %v", waits)
	}
}

func TestRetry_Exhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.FetchGoals(context.Background())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %T %v, want *TransportError", err, err)
	}
	if te.Kind() != KindServerError || te.Status != http.StatusBadGateway {
		t.Fatalf("kind = %s status = %d", te.Kind(), te.Status)
	}
	if !perr.IsCode(err, perr.ErrorCodeServer) {
		t.Fatalf("code = %v, want server", perr.CodeOf(err))
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		status int
		body   string
		kind   Kind
		code   perr.ErrorCode
		msg    string
	}{
		{401, `{"error_message":"bad token"}`, KindUnauthorized, perr.ErrorCodeUnauthorized, "bad token"},
		{403, `{"errors":"nope"}`, KindForbidden, perr.ErrorCodeForbidden, "nope"},
		{404, `{"errors":{"message":"no goal"}}`, KindNotFound, perr.ErrorCodeNotFound, `{"message":"no goal"}`},
		{500, `<html>oops</html>`, KindServerError, perr.ErrorCodeServer, "Internal Server Error"},
		{422, `invalid urtext`, KindCustom, perr.ErrorCodeInvalidArgument, "invalid urtext"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			err := c.DeleteEntry(context.Background(), "g", "x")
			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("err = %v", err)
			}
			if te.Kind() != tt.kind {
				t.Fatalf("kind = %s, want %s", te.Kind(), tt.kind)
			}
			if te.Message != tt.msg {
				t.Fatalf("message = %q, want %q", te.Message, tt.msg)
			}
			if !perr.IsCode(err, tt.code) {
				t.Fatalf("code = %v, want %v", perr.CodeOf(err), tt.code)
			}
			if calls.Load() != 1 {
				t.Fatalf("calls = %d, want 1", calls.Load())
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: base, MaxRetries: 1})
	c.sleep = func(context.Context, time.Duration) error { return nil }
	_, err := c.FetchGoals(context.Background())
	var te *TransportError
	if !errors.As(err, &te) || te.Status != 0 {
		t.Fatalf("err = %v, want status-less TransportError", err)
	}
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("code = %v, want unavailable", perr.CodeOf(err))
	}
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.FetchGoals(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestAccessTokenParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "oauth" || r.URL.Query().Has("auth_token") {
			t.Errorf("query = %v", r.URL.Query())
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()
	c := NewClient(Options{BaseURL: srv.URL, Token: "oauth", TokenParam: "access_token"})
	if _, err := c.FetchGoals(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestBackoffCapped(t *testing.T) {
	c := NewClient(Options{RetryBase: time.Second})
	if got := c.backoff(2); got != 4*time.Second {
		t.Fatalf("backoff(2) = %v", got)
	}
	if got := c.backoff(10); got != maxBackoff {
		t.Fatalf("backoff(10) = %v, want cap", got)
	}
}
