package module

import (
	"time"

	"beesync/internal/platform/config"
)

// Options holds configuration settings for the goals module
type Options struct {
	PollInterval    time.Duration
	PollMaxRounds   int
	PollConcurrency int
}

// FromConfig reads POLLER_* settings
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("POLLER_")
	return Options{
		PollInterval:    c.MayDuration("INTERVAL", 2*time.Second),
		PollMaxRounds:   c.MayInt("MAX_ROUNDS", 0),
		PollConcurrency: c.MayInt("CONCURRENCY", 8),
	}
}
