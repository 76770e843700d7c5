package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// FeedSource names one RSS/Atom feed to poll.
type FeedSource struct {
	Name string
	URL  string
}

// Config holds all configuration for the application.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string

	// Port is the dashboard HTTP server port.
	Port int

	// Subreddits are the forum origins polled by the collector.
	Subreddits []string

	// Feeds are the RSS/Atom origins polled by the collector.
	Feeds []FeedSource

	// DaysBack is the collection lookback window in days.
	DaysBack int

	// RedditLimit is the maximum listing entries requested per subreddit.
	RedditLimit int

	// MinTags is the relevance gate threshold.
	MinTags int

	// RedditClientID and RedditClientSecret enable the OAuth listing
	// endpoint; leave empty to use the public endpoint.
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
}

// defaultFeeds are the compliance news sources polled when RSS_FEEDS is unset.
var defaultFeeds = []FeedSource{
	{Name: "TaxGuru", URL: "https://taxguru.in/feed"},
	{Name: "Income Tax India", URL: "https://incometaxindia.gov.in/_layouts/15/Dit/Pages/Rss.aspx?List=Latest+Tax+Updates"},
	{Name: "SEBI", URL: "https://www.sebi.gov.in/sebirss.xml"},
}

// Load reads configuration from a .env file (if present) and environment
// variables, with defaults matching a local single-user setup.
func Load() (*Config, error) {
	// Missing .env is fine; env vars may come from the system.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:             envOrDefault("TAXPULSE_DB_PATH", "compliance_data.db"),
		Port:               3000,
		Subreddits:         splitList(envOrDefault("TAXPULSE_SUBREDDITS", "IndiaTax,IndiaStartups")),
		Feeds:              defaultFeeds,
		DaysBack:           14,
		RedditLimit:        100,
		MinTags:            1,
		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUserAgent:    envOrDefault("REDDIT_USER_AGENT", "taxpulse/1.0 (compliance mention tracker)"),
	}

	var err error
	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return nil, err
	}
	if cfg.DaysBack, err = envInt("TAXPULSE_DAYS_BACK", cfg.DaysBack); err != nil {
		return nil, err
	}
	if cfg.RedditLimit, err = envInt("TAXPULSE_REDDIT_LIMIT", cfg.RedditLimit); err != nil {
		return nil, err
	}
	if cfg.MinTags, err = envInt("TAXPULSE_MIN_TAGS", cfg.MinTags); err != nil {
		return nil, err
	}

	if raw := os.Getenv("TAXPULSE_RSS_FEEDS"); raw != "" {
		feeds, err := parseFeeds(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TAXPULSE_RSS_FEEDS: %w", err)
		}
		cfg.Feeds = feeds
	}

	return cfg, nil
}

// parseFeeds parses "Name=url,Name=url" into feed sources.
func parseFeeds(raw string) ([]FeedSource, error) {
	var feeds []FeedSource
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, url, ok := strings.Cut(pair, "=")
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("expected Name=URL, got %q", pair)
		}
		feeds = append(feeds, FeedSource{Name: strings.TrimSpace(name), URL: strings.TrimSpace(url)})
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured")
	}
	return feeds, nil
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
