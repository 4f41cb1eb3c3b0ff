package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality (no per-team labels)
var (
	// Replay metrics
	replaySessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_replay_sessions_total",
		Help: "Full replay requests by result",
	}, []string{"result"}) // Bounded: "started", "rejected", "finished"

	entriesResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_entries_resolved_total",
		Help: "Log entries resolved on the board",
	}, []string{"kind"}) // Bounded: "attack", "heal"

	targetsPerEntry = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "board_entry_targets",
		Help:    "Matching targets per resolved entry",
		Buckets: []float64{0, 1, 2, 4, 8, 16},
	})

	cuesPlayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_cues_played_total",
		Help: "Audio cues triggered",
	}, []string{"cue"}) // Bounded: "launch", "impact", "heal"

	projectilesLaunched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "board_projectiles_launched_total",
		Help: "Projectiles launched",
	})

	projectilesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "board_projectiles_active",
		Help: "Projectiles in flight or exploding",
	})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "board_render_duration_seconds",
		Help:    "Time spent rendering a board PNG",
		Buckets: []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.25},
	})

	// Feed and logo metrics
	feedRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_feed_refresh_total",
		Help: "Feed refreshes by result",
	}, []string{"result"}) // Bounded: "ok", "error"

	logoFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_logo_fetch_total",
		Help: "Logo downloads by result",
	}, []string{"result"})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter, origin or auth check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "auth", "ws_total_limit", "ws_ip_limit"

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the full URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// metricsMiddleware records latency per route pattern
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

// BoardMetrics feeds board activity into Prometheus. It implements
// battle.Observer.
type BoardMetrics struct{}

func (BoardMetrics) PlaybackStarted()  { replaySessions.WithLabelValues("started").Inc() }
func (BoardMetrics) PlaybackRejected() { replaySessions.WithLabelValues("rejected").Inc() }
func (BoardMetrics) PlaybackFinished() { replaySessions.WithLabelValues("finished").Inc() }

func (BoardMetrics) EntryResolved(kind string, targets int) {
	entriesResolved.WithLabelValues(kind).Inc()
	targetsPerEntry.Observe(float64(targets))
}

func (BoardMetrics) ProjectileLaunched() {
	projectilesLaunched.Inc()
	projectilesActive.Inc()
}

func (BoardMetrics) ProjectileRemoved() { projectilesActive.Dec() }

// RecordCue counts one audio cue
func RecordCue(cue string) {
	cuesPlayed.WithLabelValues(cue).Inc()
}

// RecordFeedRefresh counts one feed refresh
func RecordFeedRefresh(ok bool) {
	feedRefreshes.WithLabelValues(result(ok)).Inc()
}

// RecordLogoFetch counts one logo download
func RecordLogoFetch(ok bool) {
	logoFetches.WithLabelValues(result(ok)).Inc()
}

// RecordRender records render timing for metrics
func RecordRender(duration time.Duration) {
	renderDuration.Observe(duration.Seconds())
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
