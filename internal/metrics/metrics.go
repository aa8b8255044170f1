package metrics

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics holds all the Prometheus metrics for the detection pipeline.
// Each instance carries its own registry so tests can construct as many
// as they need without collision panics.
type Metrics struct {
	registry *prometheus.Registry

	// Counters
	SignalsIngested prometheus.Counter
	Verdicts        *prometheus.CounterVec
	TrapTriggers    *prometheus.CounterVec
	HoneypotPages   *prometheus.CounterVec
	SinkErrors      *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec

	// Gauges
	ActiveSessions prometheus.Gauge

	// Histograms
	ScoringDuration prometheus.Histogram
	HTTPDuration    *prometheus.HistogramVec
}

// Config holds configuration for the metrics server.
type Config struct {
	Enabled bool
	Addr    string
}

// LoadConfig loads metrics configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Enabled: getBool("METRICS_ENABLED", false),
		Addr:    getOr("METRICS_ADDR", "127.0.0.1:9090"),
	}
}

// New creates and registers all detection metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		SignalsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snare_signals_ingested_total",
			Help: "Total behavioral signal reports ingested",
		}),

		Verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snare_verdicts_total",
				Help: "Total verdicts emitted by category",
			},
			[]string{"category"},
		),

		TrapTriggers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snare_trap_triggers_total",
				Help: "Total honeypot trap activations by trap kind",
			},
			[]string{"kind"},
		),

		HoneypotPages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snare_honeypot_pages_total",
				Help: "Total honeypot pages generated by page kind",
			},
			[]string{"kind"},
		),

		SinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snare_sink_errors_total",
				Help: "Total errors writing verdicts to a sink",
			},
			[]string{"sink"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snare_http_requests_total",
				Help: "Total HTTP requests by endpoint and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snare_active_sessions",
			Help: "Sessions currently tracked in the session store",
		}),

		ScoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "snare_scoring_duration_seconds",
			Help:    "Latency of a full score computation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "snare_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"endpoint", "method"},
		),
	}

	registry.MustRegister(
		m.SignalsIngested,
		m.Verdicts,
		m.TrapTriggers,
		m.HoneypotPages,
		m.SinkErrors,
		m.HTTPRequests,
		m.ActiveSessions,
		m.ScoringDuration,
		m.HTTPDuration,
	)

	return m
}

// Handler serves this instance's registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Convenience methods for common operations.

func (m *Metrics) IncrementVerdicts(category string) {
	m.Verdicts.WithLabelValues(category).Inc()
}

func (m *Metrics) IncrementTrapTriggers(kind string) {
	m.TrapTriggers.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementHoneypotPages(kind string) {
	m.HoneypotPages.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementSinkErrors(sink string) {
	m.SinkErrors.WithLabelValues(sink).Inc()
}

func (m *Metrics) IncrementHTTPRequests(endpoint, method, status string) {
	m.HTTPRequests.WithLabelValues(endpoint, method, status).Inc()
}

func (m *Metrics) ObserveScoringDuration(duration time.Duration) {
	m.ScoringDuration.Observe(duration.Seconds())
}

func (m *Metrics) ObserveHTTPDuration(endpoint, method string, duration time.Duration) {
	m.HTTPDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// Server exposes /metrics on its own listener, separate from the API.
type Server struct {
	server *http.Server
	config Config
	logger *logrus.Logger
}

func NewServer(config Config, m *Metrics, logger *logrus.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:         config.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{server: srv, config: config, logger: logger}
}

// Start starts the metrics server in a separate goroutine.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("metrics server disabled")
		return nil
	}

	go func() {
		s.logger.WithField("addr", s.config.Addr).Info("metrics server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("metrics server error")
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func getOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
