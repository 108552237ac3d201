package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LouisCorbet/BlogSeed/internal/config"
	"github.com/LouisCorbet/BlogSeed/internal/generator"
	"github.com/LouisCorbet/BlogSeed/internal/imagegen"
	"github.com/LouisCorbet/BlogSeed/internal/publisher"
	"github.com/LouisCorbet/BlogSeed/internal/scheduler"
	"github.com/LouisCorbet/BlogSeed/internal/server"
	"github.com/LouisCorbet/BlogSeed/internal/service"
	"github.com/LouisCorbet/BlogSeed/internal/settings"
	"github.com/LouisCorbet/BlogSeed/internal/status"
	"github.com/LouisCorbet/BlogSeed/internal/storage/files"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("failed to load timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	// Initialize stores
	store := files.New(cfg.DataDir, logger)
	settingsFile := settings.NewFile(cfg.DataDir, settings.Defaults{
		SiteName: cfg.Site.Name,
		SiteURL:  cfg.Site.URL,
	})

	// Initialize generation pipeline
	mistral := generator.NewClient(cfg.Mistral, logger)
	pipeline := generator.NewPipeline(mistral, cfg.Mistral, logger)
	images := imagegen.NewChain(cfg.Image, logger)
	revalidator := publisher.NewRevalidator(cfg.Revalidate, logger)

	reporter := status.NewReporter()
	publishService := service.NewPublishService(
		pipeline,
		images,
		store,
		settingsFile,
		revalidator,
		reporter,
		logger,
	)

	sched := scheduler.New(publishService, settingsFile, loc, logger)

	srv := server.New(server.Config{
		AdminUser: cfg.Admin.User,
		AdminPass: cfg.Admin.Pass,
		CronKey:   cfg.Revalidate.Key,
		PublicDir: cfg.PublicDir,
	}, store, settingsFile, reporter, sched, images, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	go func() {
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", "error", err)
		}
	}()

	logger.Info("starting blog engine",
		"addr", cfg.ListenAddr,
		"data_dir", cfg.DataDir,
		"timezone", cfg.Timezone,
	)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
