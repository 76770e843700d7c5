package domain

import "time"

// DeletedAuthor is the sentinel stored for items whose author was removed or
// never known.
const DeletedAuthor = "[deleted]"

// Post is the canonical record persisted for every relevant mention. Records
// are append-only: a post is written exactly once at first ingestion of its ID
// and never updated or deleted.
type Post struct {
	// ID is the dedup key, derived deterministically from the source item
	// (e.g. "reddit_1abc2d" or "rss_" + md5 of permalink+title).
	ID string `json:"id"`

	// Source identifies provenance ("Reddit", "TaxGuru", "SEBI", ...).
	Source string `json:"source"`

	Title string `json:"title"`
	Text  string `json:"text"`

	// Author is the display name, or DeletedAuthor when unknown.
	Author string `json:"author"`

	// URL is the canonical permalink.
	URL string `json:"url"`

	// Score is the source's ranking signal (upvotes); 0 for sources without one.
	Score int `json:"score"`

	// CreatedAt is when the item originated at the source. Authoritative for
	// chronological filtering and sorting.
	CreatedAt time.Time `json:"created_at"`

	// CollectedAt is set once at insert time.
	CollectedAt time.Time `json:"collected_at"`

	// Tags is the sorted, duplicate-free set of topic and pain labels.
	Tags []string `json:"tags"`

	// Subreddit is set for forum posts only.
	Subreddit string `json:"subreddit,omitempty"`
}

// RawItem is a candidate item handed over by a source client before
// normalization, relevance gating, and tagging.
type RawItem struct {
	// NativeID is the source's own stable identifier, empty for sources
	// without one (the item is then identified by a hash of permalink+title).
	NativeID string

	Title string
	Body  string

	// Author may be empty when the source has no author concept or the
	// account was removed.
	Author string

	Permalink string

	// Score is 0 for sources without a ranking signal.
	Score int

	// PublishedAt is the zero time when the source gave no parsable date;
	// the collector then assumes the item is recent.
	PublishedAt time.Time

	Subreddit string
}

// SourceStats counts the outcome of a single source's pull within one run.
type SourceStats struct {
	New     int `json:"new"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
	Errors  int `json:"errors"`
}

// RunStats aggregates per-source results for one collection run.
type RunStats struct {
	Sources map[string]SourceStats `json:"sources"`
}

// NewRunStats returns an empty RunStats.
func NewRunStats() RunStats {
	return RunStats{Sources: make(map[string]SourceStats)}
}

// Totals sums all per-source stats.
func (r RunStats) Totals() SourceStats {
	var t SourceStats
	for _, s := range r.Sources {
		t.New += s.New
		t.Skipped += s.Skipped
		t.Total += s.Total
		t.Errors += s.Errors
	}
	return t
}

// StoreStats is an aggregate summary over the entire store, unfiltered.
type StoreStats struct {
	TotalPosts    int `json:"total_posts"`
	UniqueAuthors int `json:"unique_authors"`
	Sources       int `json:"sources"`

	// EarliestPost and LatestPost are nil when the store is empty.
	EarliestPost *time.Time `json:"earliest_post"`
	LatestPost   *time.Time `json:"latest_post"`
}
