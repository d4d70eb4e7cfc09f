package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sahayakapp/sahayak-core/internal/cache"
	"github.com/sahayakapp/sahayak-core/internal/config"
	"github.com/sahayakapp/sahayak-core/internal/connectivity"
	"github.com/sahayakapp/sahayak-core/internal/feedsync"
	"github.com/sahayakapp/sahayak-core/internal/httpserver"
	"github.com/sahayakapp/sahayak-core/internal/realtime"
	"github.com/sahayakapp/sahayak-core/internal/remote"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Offline cache of last-known-good query payloads
	store, err := cache.Open(cfg.DataDir, logger)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()
	logger.Info("cache opened", "dir", cfg.DataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Advisory connectivity flag kept fresh in the background
	monitor := connectivity.NewMonitor(cfg.ProbeURL, cfg.ProbeInterval, logger)
	go monitor.Run(ctx)

	client := remote.NewClient(cfg.RemoteURL, cfg.RemoteAPIKey, logger)

	engine := feedsync.NewEngine(client, store, monitor, logger, cfg.PageSize)

	stream := realtime.NewStream(cfg.PushURL, logger)
	bus := realtime.NewBus(client, stream, logger, cfg.HistoryLimit)
	defer bus.Close()

	server := httpserver.NewServer(cfg, engine, bus, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited with error", "error", err)
		}
	}()

	logger.Info("server started", "port", cfg.Port)

	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}
