// Package metrics exposes the supplemental Prometheus instrumentation from
// SPEC_FULL.md §10.7: driver loop iteration count, in-flight adapter calls,
// and per-cloud adapter call duration. This is observational only and never
// feeds back into driver behavior.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DriverIterations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orchestrator_driver_iterations_total",
		Help: "Total driver loop passes (rehydrate + drain completions).",
	})

	InFlightAdapterCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orchestrator_inflight_adapter_calls",
		Help: "Number of adapter calls currently in flight across all models.",
	})

	AdapterCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "orchestrator_adapter_call_duration_seconds",
		Help: "Duration of cloud adapter Handle calls, by cloud name and outcome.",
	}, []string{"cloud", "outcome"})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
