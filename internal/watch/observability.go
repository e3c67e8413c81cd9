package watch

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality: event kinds and source names are
// fixed sets, never per-player values.
var (
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watch_cycles_total",
		Help: "Total completed poll cycles",
	})

	cycleFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watch_cycle_failures_total",
		Help: "Poll cycles that failed before dispatch",
	})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "watch_cycle_duration_seconds",
		Help:    "Time spent in one poll cycle",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	eventsDerived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watch_events_derived_total",
		Help: "Derived game events by kind",
	}, []string{"kind"})

	sourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watch_source_failures_total",
		Help: "Failed source queries by source name",
	}, []string{"source"})

	playersTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "watch_players_tracked",
		Help: "Players present in the latest snapshot",
	})

	mergeWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watch_merge_warnings_total",
		Help: "Non-fatal inconsistencies reported while merging snapshots",
	})
)

func recordCycle(duration time.Duration) {
	cyclesTotal.Inc()
	cycleDuration.Observe(duration.Seconds())
}

// MetricsHandler exposes the process metrics for scraping.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
