package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/config"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/handlers"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/llm"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/metrics"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/orchestrator"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/server"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/session"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/telephony"
)

func main() {
	// Local development reads a .env file; deployed environments set
	// variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithField("port", cfg.Port).Info("Starting voice outreach service")

	m := metrics.NewMetrics()

	store, closeStore, err := newSessionStore(cfg, logger, m)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize session store")
	}
	defer closeStore()

	var llmClient llm.Client
	if cfg.LLMEndpoint != "" {
		llmClient = llm.NewHTTPClient(cfg.LLMEndpoint, 10*time.Second)
	} else {
		logger.Warn("No LLM endpoint configured, generative answers use the static fallback")
		llmClient = &llm.StaticClient{Response: llm.FallbackSentence}
	}
	gateway := llm.NewGateway(llmClient, logger, m)

	orch := orchestrator.New(store, gateway, cfg, logger, m)
	tel := telephony.NewClient(cfg, logger, m)
	handler := handlers.NewHandler(orch, store, tel, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := session.NewSweeper(store, cfg.SessionTTL(), cfg.SweepInterval(), logger)
	go sweeper.Run(ctx)

	srv := server.NewHTTPServer(cfg, handler, logger)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()
	logger.WithField("addr", srv.Addr).Info("HTTP server listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("Received shutdown signal")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down HTTP server gracefully")
	}

	logger.Info("Service shutdown complete")
}

func newSessionStore(cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics) (session.Store, func(), error) {
	if cfg.SessionBackend == "redis" {
		store, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL(), logger, m)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
	return session.NewMemoryStore(logger, m), func() {}, nil
}
