// Package ledger is the client for the remote goal ledger (Beeminder API v1)
package ledger

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"beesync/internal/core/version"
	"beesync/internal/platform/config"
	perr "beesync/internal/platform/errors"
	"beesync/internal/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

const (
	baseURLDefault    = "https://www.beeminder.com/api/v1"
	defaultUser       = "me"
	defaultTokenParam = "auth_token"
	defaultTimeout    = 30 * time.Second
	defaultMaxRetry   = 4
	defaultRetryBase  = 500 * time.Millisecond
	maxBackoff        = 30 * time.Second
)

// Options configures the Client
type Options struct {
	BaseURL   string
	Username  string
	Token     string
	UserAgent string
	Timeout   time.Duration

	// TokenParam is the query parameter carrying Token; OAuth tokens use access_token
	TokenParam string

	// Retry config for transport errors, 429 and 502/503/504
	MaxRetries int
	RetryBase  time.Duration

	// RPS and Burst size the client side token bucket; RPS <= 0 disables it
	RPS   float64
	Burst int

	// Registerer receives the client's request metrics; nil leaves them unregistered
	Registerer prometheus.Registerer
}

// OptionsFromConf reads LEDGER_* style keys from c
func OptionsFromConf(c config.Conf) Options {
	return Options{
		BaseURL:    c.MayString("BASE_URL", baseURLDefault),
		Username:   c.MayString("USERNAME", defaultUser),
		Token:      c.MayString("AUTH_TOKEN", ""),
		TokenParam: c.MayEnum("TOKEN_PARAM", defaultTokenParam, "auth_token", "access_token"),
		Timeout:    c.MayDuration("TIMEOUT", defaultTimeout),
		MaxRetries: c.MayInt("MAX_RETRIES", defaultMaxRetry),
		RetryBase:  c.MayDuration("RETRY_BASE", defaultRetryBase),
		RPS:        c.MayFloat64("RPS", 5),
		Burst:      c.MayInt("BURST", 10),
	}
}

// Client talks to one user's goals on the ledger
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
	log     logger.Logger
	metrics clientMetrics
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
}

type clientMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Username == "" {
		o.Username = defaultUser
	}
	if o.TokenParam == "" {
		o.TokenParam = defaultTokenParam
	}
	if o.UserAgent == "" {
		o.UserAgent = version.UserAgent()
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}

	lim := rate.NewLimiter(rate.Inf, 1)
	if o.RPS > 0 {
		if o.Burst < 1 {
			o.Burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(o.RPS), o.Burst)
	}

	f := promauto.With(o.Registerer)
	return &Client{
		http:    &http.Client{Timeout: o.Timeout},
		opts:    o,
		limiter: lim,
		log:     *logger.Named("ledger"),
		metrics: clientMetrics{
			requests: f.NewCounterVec(prometheus.CounterOpts{
				Name: "beesync_ledger_requests_total",
				Help: "Ledger HTTP responses by method and status class",
			}, []string{"method", "status"}),
			latency: f.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "beesync_ledger_request_seconds",
				Help:    "Ledger HTTP request latency",
				Buckets: prometheus.DefBuckets,
			}, []string{"method"}),
		},
		now:   time.Now,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// userURL builds the absolute URL of a path under the configured user
func (c *Client) userURL(path string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	if c.opts.Token != "" {
		q.Set(c.opts.TokenParam, c.opts.Token)
	}
	u := c.opts.BaseURL + "/users/" + url.PathEscape(c.opts.Username) + path
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// do issues a request with auth, rate limiting and retries
// query is always sent in the URL, form (when non nil) as an urlencoded body
// Non 2xx responses that are not retried become *TransportError
func (c *Client) do(ctx context.Context, method, path string, query, form url.Values) (*http.Response, error) {
	target := c.userURL(path, query)
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "ledger new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)
		c.metrics.latency.WithLabelValues(method).Observe(lat.Seconds())

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.metrics.requests.WithLabelValues(method, "error").Inc()
			if !c.shouldRetry(attempts) {
				return nil, &TransportError{Message: err.Error(), cause: err}
			}
			if err := c.backOff(ctx, c.backoff(attempts), attempts, "ledger transport error retrying"); err != nil {
				return nil, err
			}
			attempts++
			continue
		}

		c.metrics.requests.WithLabelValues(method, statusClass(resp.StatusCode)).Inc()
		c.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Msg("ledger http response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case retryableStatus(resp.StatusCode):
			if !c.shouldRetry(attempts) {
				return nil, readError(resp)
			}
			wait := retryAfter(resp.Header)
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			_ = drainAndClose(resp.Body)
			if err := c.backOff(ctx, wait, attempts, "ledger transient status retrying"); err != nil {
				return nil, err
			}
			attempts++
			continue
		default:
			return nil, readError(resp)
		}
	}
}

func (c *Client) backOff(ctx context.Context, d time.Duration, attempt int, msg string) error {
	c.log.Warn().Dur("retry_in", d).Int("attempt", attempt).Msg(msg)
	return c.sleep(ctx, d)
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryAfter reads a delay in seconds; the HTTP date form is ignored
func retryAfter(h http.Header) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
