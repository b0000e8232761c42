package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register;
// the helpers below no-op until that happens.
var (
	regOK atomic.Bool

	scansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "daprwatch",
			Subsystem: "scan",
			Name:      "total",
			Help:      "Number of completed process-table scans.",
		},
	)
	scanFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "daprwatch",
			Subsystem: "scan",
			Name:      "failures_total",
			Help:      "Number of scans aborted by a process-listing error.",
		},
	)
	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "daprwatch",
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Wall time of a completed scan (listing plus parsing).",
			Buckets:   prometheus.DefBuckets,
		},
	)
	discovered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "daprwatch",
			Name:      "discovered_instances",
			Help:      "Sidecar instances in the current snapshot.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{scansTotal, scanFailures, scanDuration, discovered}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving Prometheus metrics for the
// DefaultGatherer. The caller wires the route and starts the server.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveScan records one completed scan.
func ObserveScan(seconds float64, instances int) {
	if regOK.Load() {
		scansTotal.Inc()
		scanDuration.Observe(seconds)
		discovered.Set(float64(instances))
	}
}

// IncScanFailure records one aborted scan.
func IncScanFailure() {
	if regOK.Load() {
		scanFailures.Inc()
	}
}
