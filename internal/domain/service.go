package domain

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// CollectorConfig tunes a collection run.
type CollectorConfig struct {
	// DaysBack is the lookback window; items older than this are ignored.
	DaysBack int

	// MinTags is the relevance gate threshold.
	MinTags int
}

// Collector is the ingestion pipeline. For each configured source it pulls
// candidate items, normalizes them into canonical posts, applies the
// relevance gate and tagger, and proposes inserts to the repository. Sources
// are processed sequentially; a failing source never aborts the run.
type Collector struct {
	repo    PostRepository
	tagger  *Tagger
	sources []Source
	cfg     CollectorConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewCollector creates a Collector. Zero config fields fall back to the
// defaults (14 days, 1 tag).
func NewCollector(repo PostRepository, tagger *Tagger, sources []Source, cfg CollectorConfig, logger *slog.Logger) *Collector {
	if cfg.DaysBack <= 0 {
		cfg.DaysBack = 14
	}
	if cfg.MinTags <= 0 {
		cfg.MinTags = DefaultMinTags
	}
	return &Collector{
		repo:    repo,
		tagger:  tagger,
		sources: sources,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Run pulls every configured source once and returns per-source stats. A run
// that finds zero new items is still a successful run.
func (c *Collector) Run(ctx context.Context) RunStats {
	stats := NewRunStats()
	cutoff := c.now().AddDate(0, 0, -c.cfg.DaysBack)

	for _, src := range c.sources {
		s := c.collectSource(ctx, src, cutoff)
		stats.Sources[src.Client.Name()] = s
		c.logger.Info("source complete",
			"source", src.Client.Name(),
			"total", s.Total,
			"new", s.New,
			"skipped", s.Skipped,
			"errors", s.Errors,
		)
	}

	t := stats.Totals()
	c.logger.Info("collection run complete",
		"total", t.Total, "new", t.New, "skipped", t.Skipped, "errors", t.Errors)
	return stats
}

func (c *Collector) collectSource(ctx context.Context, src Source, cutoff time.Time) SourceStats {
	var stats SourceStats

	items, err := src.Client.Fetch(ctx, cutoff)
	if err != nil {
		c.logger.Error("source fetch failed", "source", src.Client.Name(), "error", err)
		stats.Errors++
		return stats
	}

	for _, item := range items {
		stats.Total++

		published := item.PublishedAt
		if published.IsZero() {
			// No parsable date: assume the item is recent.
			published = c.now()
		}
		if published.Before(cutoff) {
			continue
		}

		id := postID(src.IDPrefix, item)

		if exists, err := c.repo.PostExists(ctx, id); err != nil {
			c.logger.Error("existence probe failed", "id", id, "error", err)
			stats.Errors++
			continue
		} else if exists {
			stats.Skipped++
			continue
		}

		if !c.tagger.IsRelevant(item.Title, item.Body, c.cfg.MinTags) {
			stats.Skipped++
			continue
		}

		tags := c.tagger.TagContent(item.Title, item.Body)
		if src.Hook != nil {
			tags = src.Hook(item.Permalink, tags)
		}

		author := item.Author
		if author == "" {
			author = DeletedAuthor
		}

		post := &Post{
			ID:          id,
			Source:      src.Label,
			Title:       item.Title,
			Text:        item.Body,
			Author:      author,
			URL:         item.Permalink,
			Score:       item.Score,
			CreatedAt:   published,
			CollectedAt: c.now(),
			Tags:        tags,
			Subreddit:   item.Subreddit,
		}

		inserted, err := c.repo.InsertPost(ctx, post)
		if err != nil {
			c.logger.Error("insert failed", "id", id, "error", err)
			stats.Errors++
			continue
		}
		if inserted {
			stats.New++
		} else {
			// Lost a race with a concurrent writer; same outcome as the
			// fast-path skip.
			stats.Skipped++
		}
	}

	return stats
}

// postID derives the stable dedup key for an item: the source-qualified
// native ID when one exists, otherwise a content hash of permalink+title.
func postID(prefix string, item RawItem) string {
	if item.NativeID != "" {
		return fmt.Sprintf("%s_%s", prefix, item.NativeID)
	}
	sum := md5.Sum([]byte(item.Permalink + item.Title))
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(sum[:]))
}
