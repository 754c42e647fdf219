package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/efreitasn/allocdash/internal/config"
	"github.com/efreitasn/allocdash/internal/engine"
	"github.com/efreitasn/allocdash/internal/fixture"
	"github.com/efreitasn/allocdash/internal/handler"
	"github.com/efreitasn/allocdash/internal/service"
	"github.com/efreitasn/allocdash/internal/store"
	"github.com/efreitasn/allocdash/internal/stream"
	"github.com/joho/godotenv"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// A missing .env file is fine; the process environment still applies.
	_ = godotenv.Load()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// SEED=0 means a different data set on every start.
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	logger.Info("generating mock data", slog.Uint64("seed", seed), slog.Int("orders", cfg.OrderCount))

	data := fixture.New(rng, time.Now(), cfg.OrderCount)

	// Stores.
	orderStore := store.NewOrderStore(data.Orders)
	rulesStore := store.NewRulesStore(store.RulesSeed{
		Warehouses: data.Warehouses,
		Cutoffs:    data.Cutoffs,
		Rules:      data.Rules,
		Shipping:   data.Shipping,
		Holidays:   data.Holidays,
		Thresholds: data.Thresholds,
	})

	// Services.
	orderSvc := service.NewOrderService(orderStore, cfg.PageSize, time.Now)
	rulesSvc := service.NewRulesService(rulesStore, nil, logger)

	// Monitor feed, pushed to websocket subscribers through the hub.
	hub := stream.NewHub(handler.EncodeSnapshot, logger)
	feedCfg := engine.DefaultFeedConfig()
	feedCfg.FeedInterval = cfg.FeedInterval
	feedCfg.LoadInterval = cfg.LoadInterval
	feedCfg.BatchInterval = cfg.BatchInterval
	feedCfg.Capacity = cfg.FeedCapacity
	feed := engine.NewFeedEngine(feedCfg, data.Orders, data.Catalog, data.Warehouses, rng, hub, logger)
	feed.Backfill(cfg.FeedBackfill)

	router := handler.NewRouter(orderSvc, rulesSvc, feed, hub, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed.Start(ctx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Stop ticking first so no snapshot is pushed into a closing hub.
	feed.Stop()
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
