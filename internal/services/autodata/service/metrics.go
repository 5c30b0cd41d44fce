package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	runs    *prometheus.CounterVec
	goals   *prometheus.CounterVec
	zeros   prometheus.Counter
	events  *prometheus.CounterVec
	seconds prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) metrics {
	f := promauto.With(reg)
	return metrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "beesync_sync_runs_total",
			Help: "Sync runs by trigger and outcome",
		}, []string{"trigger", "result"}),
		goals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "beesync_sync_goals_total",
			Help: "Per goal sync outcomes",
		}, []string{"result"}),
		zeros: f.NewCounter(prometheus.CounterOpts{
			Name: "beesync_sync_zero_points_total",
			Help: "Aggregated points dropped for being exactly zero",
		}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "beesync_sync_watch_events_total",
			Help: "Sample export change events by action taken",
		}, []string{"action"}),
		seconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "beesync_sync_seconds",
			Help:    "Wall time of one sync run",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
