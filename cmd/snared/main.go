package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/snaretech/snare/internal/detect"
	"github.com/snaretech/snare/internal/feedback"
	"github.com/snaretech/snare/internal/honeypot"
	"github.com/snaretech/snare/internal/httpapi"
	"github.com/snaretech/snare/internal/logging"
	"github.com/snaretech/snare/internal/metrics"
	"github.com/snaretech/snare/internal/score"
	"github.com/snaretech/snare/internal/session"
	sig "github.com/snaretech/snare/internal/signal"
	"github.com/snaretech/snare/internal/verdictlog"
	"github.com/snaretech/snare/pkg/config"
)

const recomputeInterval = time.Hour

func main() {
	cfg := config.Load()
	logger := logging.New(os.Getenv("LOG_LEVEL"))

	// Scoring parameters: a configured file must load cleanly or startup
	// halts; with no file the baked-in defaults serve.
	params := score.Defaults()
	if cfg.ParamsPath != "" {
		loaded, err := score.LoadFile(cfg.ParamsPath)
		if err != nil {
			logger.WithError(err).WithField("path", cfg.ParamsPath).
				Fatal("scoring parameters failed to load")
		}
		params = loaded
	} else {
		logger.Info("no scoring parameters file configured, using defaults")
	}
	registry := score.NewRegistry(params)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session store.
	var store session.Store
	switch cfg.SessionBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("redis unreachable")
		}
		store = session.NewRedisStore(client, cfg.SessionKeySpace, cfg.SessionTTL)
		logger.WithField("addr", cfg.RedisAddr).Info("using redis session store")
	case "memory":
		store = session.NewMemoryStore(cfg.SessionTTL, cfg.SessionSweep)
		logger.Info("using in-memory session store")
	default:
		logger.WithField("backend", cfg.SessionBackend).Fatal("unknown session backend")
	}

	// Network reputation: GeoIP ASN database when available, static
	// datacenter ranges otherwise.
	var reputation sig.ReputationProvider = sig.NewCIDRReputation()
	if cfg.GeoIPPath != "" {
		geo, err := sig.NewGeoIPReputation(cfg.GeoIPPath)
		if err != nil {
			logger.WithError(err).Warn("geoip database unavailable, falling back to static ranges")
		} else {
			defer geo.Close()
			reputation = geo
		}
	}

	// Verdict sinks.
	var sinks []verdictlog.Sink
	for _, out := range cfg.Outputs {
		switch out {
		case "log":
			sinks = append(sinks, verdictlog.NewLogSink(logger))
		case "postgres":
			sinks = append(sinks, verdictlog.NewPGSinkFromEnv())
		case "kafka":
			sinks = append(sinks, verdictlog.NewKafkaSinkFromEnv())
		default:
			logger.WithField("output", out).Fatal("unknown verdict output")
		}
	}
	for _, s := range sinks {
		if err := s.Start(ctx); err != nil {
			logger.WithError(err).WithField("sink", s.Name()).Fatal("sink failed to start")
		}
		logger.WithField("sink", s.Name()).Info("verdict sink started")
	}

	m := metrics.New()
	generator := honeypot.NewGenerator(cfg.HoneypotSecret)

	detector, err := detect.New(detect.Options{
		Store:    store,
		Registry: registry,
		Traps:    generator.Instrumenter(),
		Sinks:    sinks,
		Metrics:  m,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("detector failed to initialize")
	}

	loop := feedback.NewLoop(feedback.NewStore(), detector.Index(), registry, logger)
	go loop.Run(ctx, recomputeInterval)

	metricsSrv := metrics.NewServer(metrics.LoadConfig(), m, logger)
	if err := metricsSrv.Start(ctx); err != nil {
		logger.WithError(err).Fatal("metrics server failed to start")
	}

	api := httpapi.NewServer(httpapi.Options{
		Config:     cfg,
		Logger:     logger,
		Detector:   detector,
		Loop:       loop,
		Generator:  generator,
		Registry:   registry,
		Reputation: reputation,
		Metrics:    m,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- api.Start(ctx)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("api server failed")
		}
		cancel()
	}

	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = metricsSrv.Shutdown(shutdownCtx)

	for _, s := range sinks {
		if err := s.Close(); err != nil {
			logger.WithError(err).WithField("sink", s.Name()).Error("sink close failed")
		}
	}
	if err := store.Close(); err != nil {
		logger.WithError(err).Error("session store close failed")
	}
	logger.Info("shutdown complete")
}
