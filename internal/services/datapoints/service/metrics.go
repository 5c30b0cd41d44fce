package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	ops       *prometheus.CounterVec
	passes    *prometheus.CounterVec
	requests  prometheus.Histogram
	durations prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) metrics {
	f := promauto.With(reg)
	return metrics{
		ops: f.NewCounterVec(prometheus.CounterOpts{
			Name: "beesync_datapoint_ops_total",
			Help: "Ledger mutations issued by reconciliation",
		}, []string{"op", "result"}),
		passes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "beesync_reconcile_total",
			Help: "Reconciliation passes by outcome",
		}, []string{"result"}),
		requests: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "beesync_coverage_requests",
			Help:    "Ledger page requests needed to cover a reconciliation window",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 12, 16, 32},
		}),
		durations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "beesync_reconcile_seconds",
			Help:    "Wall time of one reconciliation pass",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
