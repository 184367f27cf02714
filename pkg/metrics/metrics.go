package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcopy_runs_total",
			Help: "Copy passes by outcome",
		},
		[]string{"status"},
	)
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapcopy_run_seconds",
			Help:    "Duration of a copy pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	Copies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcopy_copies_total",
			Help: "Snapshot copy requests issued",
		},
		[]string{"region"},
	)
	Skips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapcopy_skips_total",
			Help: "Clusters skipped by reason",
		},
		[]string{"reason"},
	)
	Snapshots = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapcopy_snapshots",
			Help: "Cluster snapshots seen in the last pass by type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		Runs,
		RunDuration,
		Copies,
		Skips,
		Snapshots,
	)
}
