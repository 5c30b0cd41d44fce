package module

import (
	"time"

	"beesync/internal/platform/config"
)

// Options holds configuration settings for the datapoints module
type Options struct {
	Concurrency int
	Location    *time.Location
}

// FromConfig reads DATAPOINTS_* settings
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("DATAPOINTS_")
	return Options{
		Concurrency: c.MayInt("CONCURRENCY", 4),
		Location:    c.MayLocation("LOCATION", time.Local),
	}
}
