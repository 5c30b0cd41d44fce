package module

import (
	"time"

	"beesync/internal/platform/config"
)

// Options holds configuration settings for the autodata module
type Options struct {
	SamplesPath      string
	ConnectionsFile  string
	Days             int
	Interval         time.Duration
	Concurrency      int
	WatchMinInterval time.Duration
	WatchDebounce    time.Duration
	Location         *time.Location
}

// FromConfig reads AUTODATA_* settings
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("AUTODATA_")
	return Options{
		SamplesPath:      c.MayString("SAMPLES_PATH", "samples.ndjson"),
		ConnectionsFile:  c.MayString("CONNECTIONS_FILE", ""),
		Days:             c.MayInt("DAYS", 7),
		Interval:         c.MayDuration("INTERVAL", time.Hour),
		Concurrency:      c.MayInt("CONCURRENCY", 4),
		WatchMinInterval: c.MayDuration("WATCH_MIN_INTERVAL", 5*time.Second),
		WatchDebounce:    c.MayDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
		Location:         c.MayLocation("LOCATION", time.Local),
	}
}
