// Package observability holds the Prometheus collectors used across the service.
package observability

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"method", "route", "status"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)

	geometryDecodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geometry_decode_total",
			Help: "Geometry cell decodes by detected format and outcome.",
		},
		[]string{"format", "outcome"},
	)

	rowsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_rows_dropped_total",
			Help: "Rows that produced no feature, by build mode and reason.",
		},
		[]string{"mode", "reason"},
	)

	previewFeatures = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preview_features",
			Help:    "Number of features per built FeatureCollection.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"mode"},
	)

	previewBuildSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preview_build_duration_seconds",
			Help:    "Time spent turning a row set into a FeatureCollection.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
		[]string{"mode"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache results by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	cacheOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_op_duration_seconds",
			Help:    "Redis operation latency.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op", "result"},
	)

	eventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settings_events_total",
			Help: "Basemap settings change events by op and result.",
		},
		[]string{"op", "result"},
	)

	eventErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settings_event_errors_total",
			Help: "Basemap settings event failures by kind.",
		},
		[]string{"kind"},
	)
)

// buildInfo is left out: a metrics.Provider registry carries its own.
func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds,
		geometryDecodes, rowsDropped, previewFeatures, previewBuildSeconds,
		cacheResults, cacheOpDuration, eventsProcessed, eventErrors,
	}
}

func init() {
	prometheus.MustRegister(collectors()...)
	prometheus.MustRegister(buildInfo)
}

// Init additionally registers the collectors with reg, e.g. a dedicated
// registry served on a separate metrics listener.
func Init(reg prometheus.Registerer) error {
	if reg == nil || reg == prometheus.DefaultRegisterer {
		return nil
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveDecode(format string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	geometryDecodes.WithLabelValues(format, outcome).Inc()
}

func AddDroppedRows(mode, reason string, n int) {
	if n <= 0 {
		return
	}
	rowsDropped.WithLabelValues(mode, reason).Add(float64(n))
}

func ObservePreview(mode string, features int, d time.Duration) {
	previewFeatures.WithLabelValues(mode).Observe(float64(features))
	previewBuildSeconds.WithLabelValues(mode).Observe(d.Seconds())
}

func IncCacheHit(tier string)  { cacheResults.WithLabelValues(tier, "hit").Inc() }
func IncCacheMiss(tier string) { cacheResults.WithLabelValues(tier, "miss").Inc() }

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpDuration.WithLabelValues(op, result).Observe(durationSeconds)
}

func ObserveEvent(op string, err error) {
	result := "applied"
	if err != nil {
		result = "error"
	}
	eventsProcessed.WithLabelValues(op, result).Inc()
}

func IncEventSkipped(op string) { eventsProcessed.WithLabelValues(op, "skipped").Inc() }

func IncEventError(kind string) { eventErrors.WithLabelValues(kind).Inc() }

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
