package metrics

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration tracks HTTP handling time by route pattern and status
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pathfinders_http_request_duration_seconds",
			Help:    "Time spent handling HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Transitions counts funnel transitions by kind and resulting step
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathfinders_funnel_transitions_total",
			Help: "Funnel transitions by kind and resulting step",
		},
		[]string{"kind", "step"},
	)

	// Dispatched counts submission deliveries by step and result
	Dispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathfinders_submissions_dispatched_total",
			Help: "Submissions dispatched by step type and result",
		},
		[]string{"step", "result"},
	)

	Backlogged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pathfinders_submissions_backlogged_total",
			Help: "Failed submissions appended to a client backlog",
		},
	)

	// SinkRequests counts calls to the spreadsheet script by result
	SinkRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathfinders_sink_requests_total",
			Help: "Requests to the external sink by result",
		},
		[]string{"result"},
	)

	ActiveFunnels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pathfinders_active_funnels",
			Help: "Funnels currently held in memory",
		},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records the duration of every request under its chi route pattern.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(m.Code)).
			Observe(m.Duration.Seconds())
	})
}
