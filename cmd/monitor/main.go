package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/serenemind/emotion-monitor/internal/alert"
	"github.com/serenemind/emotion-monitor/internal/api/router"
	"github.com/serenemind/emotion-monitor/internal/app/bootstrap"
	appconfig "github.com/serenemind/emotion-monitor/internal/config"
	"github.com/serenemind/emotion-monitor/internal/frames"
	"github.com/serenemind/emotion-monitor/internal/http/handlers"
	"github.com/serenemind/emotion-monitor/internal/intervention"
	"github.com/serenemind/emotion-monitor/internal/observability/metrics"
	"github.com/serenemind/emotion-monitor/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting emotion-monitor",
		"env", cfg.Env,
		"port", cfg.Port,
		"inference_url", cfg.InferenceURL,
	)

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	// Frame source: a directory of images locally, a real camera in
	// production deployments.
	var source frames.Source
	if cfg.FrameDir != "" {
		dirSource, err := frames.NewDirSource(cfg.FrameDir)
		if err != nil {
			logger.Error("failed to open frame directory", "error", err, "dir", cfg.FrameDir)
			os.Exit(1)
		}
		source = dirSource
	} else {
		logger.Warn("FRAME_DIR not set, sending placeholder frames")
		source = frames.StaticSource([]byte{})
	}

	contacts := make(alert.StaticContacts, 0, len(cfg.AlertContacts))
	for _, id := range cfg.AlertContacts {
		contacts = append(contacts, alert.Contact{ID: id})
	}
	notifier := alert.NewStubNotifier(logger)

	redisClient := bootstrap.BuildRedisClient(context.Background(), cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	store := bootstrap.BuildCooldownStore(redisClient, "default")

	sess := bootstrap.BuildSession(cfg, source, contacts, notifier, store, logger, pipelineMetrics)
	sess.OnIntervention(func(r intervention.Record) {
		logger.Info("intervention ready for presentation",
			"severity", r.Severity.String(),
			"emotion", r.DominantEmotion,
			"urgency", r.Urgency.String(),
		)
	})
	sess.Start()

	statusHandler := handlers.NewStatusHandler(sess, logger)
	r := router.New(&router.Config{
		Logger:         logger,
		StatusHandler:  statusHandler,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	sess.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
