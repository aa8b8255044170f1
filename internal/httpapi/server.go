package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/snaretech/snare/internal/detect"
	"github.com/snaretech/snare/internal/feedback"
	"github.com/snaretech/snare/internal/honeypot"
	"github.com/snaretech/snare/internal/metrics"
	"github.com/snaretech/snare/internal/score"
	"github.com/snaretech/snare/internal/signal"
	"github.com/snaretech/snare/pkg/config"
)

// Server is the HTTP surface over the detection core. Handlers stay thin:
// they decode, call the detector or generator, and encode.
type Server struct {
	cfg        config.Config
	logger     *logrus.Logger
	detector   *detect.Detector
	loop       *feedback.Loop
	generator  *honeypot.Generator
	registry   *score.Registry
	reputation signal.ReputationProvider
	metrics    *metrics.Metrics

	http *http.Server
}

type Options struct {
	Config     config.Config
	Logger     *logrus.Logger
	Detector   *detect.Detector
	Loop       *feedback.Loop
	Generator  *honeypot.Generator
	Registry   *score.Registry
	Reputation signal.ReputationProvider
	Metrics    *metrics.Metrics
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Reputation == nil {
		opts.Reputation = signal.NeutralReputation{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	s := &Server{
		cfg:        opts.Config,
		logger:     opts.Logger,
		detector:   opts.Detector,
		loop:       opts.Loop,
		generator:  opts.Generator,
		registry:   opts.Registry,
		reputation: opts.Reputation,
		metrics:    opts.Metrics,
	}

	s.http = &http.Server{
		Addr:              opts.Config.ServerAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Router builds the route tree. Split out from Start so tests can drive it
// with httptest directly.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/signals", s.handleSignals)
		r.Post("/score", s.handleScore)
		r.Post("/trap/{trapID}", s.handleTrap)

		r.Get("/content/entity/{entityID}", s.handleEntity)
		r.Get("/content/listing", s.handleListing)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/feedback", s.handleFeedback)
			r.Post("/recompute", s.handleRecompute)
			r.Get("/stats", s.handleStats)
			r.Get("/params", s.handleParams)
		})
	})

	return r
}

// Start serves until the context is cancelled, then drains connections.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.http.Addr).Info("api server listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// observe counts and times requests by route pattern so high-cardinality
// URLs (entity IDs, trap IDs) collapse into one label value.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		s.metrics.IncrementHTTPRequests(pattern, r.Method, statusLabel(ww.Status()))
		s.metrics.ObserveHTTPDuration(pattern, r.Method, time.Since(start))
	})
}

func statusLabel(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code/100) + "xx"
}
