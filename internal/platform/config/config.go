// Package config reads beesync settings from environment variables
//
// Must* accessors panic through the logger when a value is missing or invalid;
// they are meant for process startup. May* accessors fall back to a default and
// warn on unparsable input.
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"beesync/internal/platform/logger"
)

// Conf is a namespaced view over environment variables (e.g. "LEDGER_", "POLLER_")
type Conf struct{ prefix string }

// New creates a root Conf with no prefix
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

// lookup returns the trimmed value; empty means unset
func (c Conf) lookup(key string) string { return strings.TrimSpace(os.Getenv(c.key(key))) }

func (c Conf) missing(key string) {
	logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
}

func (c Conf) invalid(key, value, want string) {
	logger.Get().Panic().Str("key", c.key(key)).Str("value", value).Msg("invalid " + want)
}

func (c Conf) fallback(key, value string) *logger.Logger {
	l := logger.Get().With().Str("key", c.key(key)).Str("value", value).Logger()
	return &l
}

// MustString panics if key is missing or empty
func (c Conf) MustString(key string) string {
	v := c.lookup(key)
	if v == "" {
		c.missing(key)
	}
	return v
}

// MustInt panics if key is missing or not an int
func (c Conf) MustInt(key string) int {
	s := c.MustString(key)
	v, err := strconv.Atoi(s)
	if err != nil {
		c.invalid(key, s, "int value")
	}
	return v
}

// MustBool panics if key is missing or not a bool
func (c Conf) MustBool(key string) bool {
	s := c.MustString(key)
	v, err := strconv.ParseBool(s)
	if err != nil {
		c.invalid(key, s, "bool value")
	}
	return v
}

// MustDuration panics if key is missing or not a Go duration
func (c Conf) MustDuration(key string) time.Duration {
	s := c.MustString(key)
	d, err := time.ParseDuration(s)
	if err != nil {
		c.invalid(key, s, "duration (e.g., 250ms, 2s, 1h)")
	}
	return d
}

// MustURL panics if key is missing or not an absolute URL
func (c Conf) MustURL(key string) *url.URL {
	s := c.MustString(key)
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		c.invalid(key, s, "absolute URL")
	}
	return u
}

// MustPort returns a listen addr like ":4000" after validating 1..65535
func (c Conf) MustPort(key string) string {
	s := c.MustString(key)
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		c.invalid(key, s, "TCP port; expected 1..65535")
	}
	return ":" + s
}

// Require panics unless every key is present
func (c Conf) Require(keys ...string) {
	for _, k := range keys {
		if c.lookup(k) == "" {
			c.missing(k)
		}
	}
}

// MayString returns the value or def
func (c Conf) MayString(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def; invalid input warns and returns def
func (c Conf) MayInt(key string, def int) int {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	c.fallback(key, s).Warn().Int("default", def).Msg("invalid int; using default")
	return def
}

// MayFloat64 returns the value or def; invalid input warns and returns def
func (c Conf) MayFloat64(key string, def float64) float64 {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	c.fallback(key, s).Warn().Float64("default", def).Msg("invalid float64; using default")
	return def
}

// MayBool returns the value or def; invalid input warns and returns def
func (c Conf) MayBool(key string, def bool) bool {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	c.fallback(key, s).Warn().Bool("default", def).Msg("invalid bool; using default")
	return def
}

// MayDuration returns the value or def; invalid input warns and returns def
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	c.fallback(key, s).Warn().Dur("default", def).Msg("invalid duration; using default")
	return def
}

// MayLocation loads an IANA zone name; empty or unknown zones return def
func (c Conf) MayLocation(key string, def *time.Location) *time.Location {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	loc, err := time.LoadLocation(s)
	if err != nil {
		c.fallback(key, s).Warn().Err(err).Str("default", def.String()).Msg("unknown time zone; using default")
		return def
	}
	return loc
}

// MayCSV splits a comma separated value, dropping blanks; def if nothing remains
func (c Conf) MayCSV(key string, def []string) []string {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the value or def and panics when it is not one of allowed
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return strings.ToLower(a)
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}
