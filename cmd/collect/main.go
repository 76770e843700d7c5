package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"taxpulse/internal/config"
	"taxpulse/internal/domain"
	"taxpulse/internal/reddit"
	"taxpulse/internal/rssfeed"
	"taxpulse/internal/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		daysBack int
		schedule string
	)

	flag.IntVar(&daysBack, "days", 0, "Lookback window in days (default from config)")
	flag.StringVar(&schedule, "schedule", "", "Cron expression; when set, keep running and collect on schedule (e.g. \"0 */6 * * *\")")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if daysBack > 0 {
		cfg.DaysBack = daysBack
	}

	// A writable store is the one hard requirement; nothing can proceed
	// without it.
	repo, err := sqlite.NewRepository(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer repo.Close()
	logger.Info("store ready", "path", cfg.DBPath)

	collector := domain.NewCollector(
		repo,
		domain.NewTagger(),
		buildSources(cfg),
		domain.CollectorConfig{DaysBack: cfg.DaysBack, MinTags: cfg.MinTags},
		logger,
	)

	runOnce := func(ctx context.Context) {
		stats := collector.Run(ctx)
		t := stats.Totals()
		if t.New == 0 {
			// Normal when re-polling frequently; not a failure.
			logger.Info("no new posts collected this run")
		}
		if dbStats, err := repo.Stats(ctx); err != nil {
			logger.Error("store stats failed", "error", err)
		} else {
			logger.Info("store totals",
				"posts", dbStats.TotalPosts,
				"unique_authors", dbStats.UniqueAuthors,
				"sources", dbStats.Sources,
			)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if schedule == "" {
		runOnce(ctx)
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { runOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	// Collect immediately, then on schedule until interrupted.
	runOnce(ctx)
	c.Start()
	logger.Info("scheduled collection started", "schedule", schedule)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	cancel()
	<-c.Stop().Done()
	return nil
}

// buildSources assembles the configured subreddit and feed clients.
func buildSources(cfg *config.Config) []domain.Source {
	redditCfg := reddit.Config{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		UserAgent:    cfg.RedditUserAgent,
		Limit:        cfg.RedditLimit,
	}

	sources := make([]domain.Source, 0, len(cfg.Subreddits)+len(cfg.Feeds))
	for _, sub := range cfg.Subreddits {
		sources = append(sources, domain.Source{
			Client:   reddit.NewClient(sub, redditCfg),
			Label:    "Reddit",
			IDPrefix: "reddit",
		})
	}
	for _, feed := range cfg.Feeds {
		sources = append(sources, domain.Source{
			Client:   rssfeed.NewClient(feed.Name, feed.URL),
			Label:    feed.Name,
			IDPrefix: "rss",
			Hook:     rssfeed.TagHookFor(feed.Name),
		})
	}
	return sources
}
