// Package metrics holds Prometheus instrumentation for the KiteConnect
// client and an optional scrape server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics for the KiteConnect API client
var (
	// Request metrics
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kite_requests_total",
			Help: "Total number of API requests dispatched",
		},
		[]string{"group", "method"},
	)

	RequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kite_request_errors_total",
			Help: "Total number of failed API requests",
		},
		[]string{"group", "error_kind"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kite_request_duration_seconds",
			Help:    "Time to complete an API request including body decode",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"group", "method"},
	)

	Retries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kite_request_retries_total",
			Help: "Total number of retry attempts after retryable errors",
		},
		[]string{"group"},
	)

	// Rate limiter metrics
	RateLimitWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kite_ratelimit_wait_seconds",
			Help:    "Time spent waiting for a rate limit token",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"category"},
	)

	// Session metrics
	SessionExpiries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kite_session_expiries_total",
			Help: "Total number of TokenException responses observed",
		},
	)

	// Historical engine metrics
	HistoricalChunks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kite_historical_chunks_total",
			Help: "Total number of historical data chunks fetched",
		},
		[]string{"interval"},
	)

	HistoricalCandles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kite_historical_candles_total",
			Help: "Total number of candles decoded",
		},
		[]string{"interval"},
	)

	// Instruments cache metrics
	InstrumentCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kite_instrument_cache_hits_total",
			Help: "Instrument dump cache hits",
		},
		[]string{"key"},
	)

	InstrumentCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kite_instrument_cache_misses_total",
			Help: "Instrument dump cache misses triggering a fetch",
		},
		[]string{"key"},
	)

	InstrumentsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kite_instruments_loaded",
			Help: "Number of instrument rows decoded per dump",
		},
		[]string{"key"},
	)
)

// Timer is a helper for measuring operation duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to a histogram
func (t *Timer) ObserveDuration(histogram *prometheus.HistogramVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// RecordRequest records the outcome of one dispatched request.
func RecordRequest(group, method string, elapsed time.Duration, errKind string) {
	RequestCount.WithLabelValues(group, method).Inc()
	RequestDuration.WithLabelValues(group, method).Observe(elapsed.Seconds())
	if errKind != "" {
		RequestErrors.WithLabelValues(group, errKind).Inc()
	}
}

// Server starts the Prometheus metrics HTTP server
type Server struct {
	addr   string
	server *http.Server
}

// NewServer creates a new metrics server
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &Server{
		addr: addr,
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start starts the metrics server
func (s *Server) Start() error {
	log.Info().Str("addr", s.addr).Msg("Starting metrics server")
	return s.server.ListenAndServe()
}

// Stop stops the metrics server gracefully
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
