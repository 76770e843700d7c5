package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"taxpulse/internal/config"
	"taxpulse/internal/domain"
	"taxpulse/internal/httpserver"
	"taxpulse/internal/sqlite"
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

	// The dashboard runs read-only alongside the collector process. The
	// store is opened lazily so a fresh deployment can show the "collect
	// first" notice instead of creating an empty database.
	storeExists := func() bool {
		_, err := os.Stat(cfg.DBPath)
		return err == nil
	}
	openStore := func() (domain.PostRepository, error) {
		return sqlite.NewRepository(cfg.DBPath)
	}

	server, err := httpserver.NewServer(cfg, storeExists, openStore, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited with error", "error", err)
		}
	}()

	logger.Info("dashboard started", "port", cfg.Port, "db", cfg.DBPath)
	if !storeExists() {
		logger.Warn("database not found; run the collect command to ingest data first", "path", cfg.DBPath)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}
