// Package metrics provides the Prometheus collectors for the refresh pipeline.
//
// Counters track refresh runs and per-year scrape outcomes, gauges track the result and
// time of the last run and the number of cached years, and a histogram records how long
// runs take. Collectors are registered on the Registerer passed to New so that tests can
// use an isolated registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "term_dates"

// Pipeline holds the refresh pipeline collectors. A nil *Pipeline discards observations.
type Pipeline struct {
	refreshRuns     *prometheus.CounterVec
	scrapes         *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	lastRefreshTime prometheus.Gauge
	lastRefreshOK   prometheus.Gauge
	cachedYears     prometheus.Gauge
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Pipeline {
	factory := promauto.With(reg)
	return &Pipeline{
		refreshRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_runs_total",
			Help:      "Total number of refresh runs by result",
		}, []string{"result"}),
		scrapes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrapes_total",
			Help:      "Total number of year scrapes by slot (current, next) and outcome",
		}, []string{"slot", "outcome"}),
		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of refresh runs",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
		lastRefreshTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last completed refresh run",
		}),
		lastRefreshOK: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_ok",
			Help:      "1 if the last refresh run succeeded, 0 otherwise",
		}),
		cachedYears: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_years",
			Help:      "Number of years held in the cache",
		}),
	}
}

// ObserveScrape counts one scrape of the current or next year
func (p *Pipeline) ObserveScrape(slot, outcome string) {
	if p == nil {
		return
	}
	p.scrapes.WithLabelValues(slot, outcome).Inc()
}

// ObserveRun records a finished refresh run
func (p *Pipeline) ObserveRun(ok bool, duration time.Duration, finishedAt time.Time) {
	if p == nil {
		return
	}
	result, okValue := "failed", 0.0
	if ok {
		result, okValue = "ok", 1.0
	}
	p.refreshRuns.WithLabelValues(result).Inc()
	p.refreshDuration.Observe(duration.Seconds())
	p.lastRefreshTime.Set(float64(finishedAt.Unix()))
	p.lastRefreshOK.Set(okValue)
}

// SetCachedYears records the number of cached years
func (p *Pipeline) SetCachedYears(n int) {
	if p == nil {
		return
	}
	p.cachedYears.Set(float64(n))
}
