package domain

import (
	"context"
	"time"
)

// PostRepository defines persistence operations for collected posts. Every
// call is self-contained against the store; no transaction spans calls. The
// store's uniqueness constraint on ID is the sole dedup mechanism, so the
// repository stays correct under concurrent writers.
type PostRepository interface {
	// InsertPost persists a new post keyed by ID. Returns true if newly
	// inserted, false if a record with the same ID already existed. The
	// duplicate case is an expected outcome, never an error.
	InsertPost(ctx context.Context, post *Post) (bool, error)

	// PostExists is a cheap existence probe used as a fast-path skip before
	// tagging. Correctness does not depend on it; InsertPost's constraint
	// catches races.
	PostExists(ctx context.Context, id string) (bool, error)

	// QueryPosts returns posts with created_at in [start, end] (inclusive,
	// nil bound means unbounded) and matching source when non-empty, ordered
	// by created_at descending.
	QueryPosts(ctx context.Context, start, end *time.Time, source string) ([]Post, error)

	// Stats summarizes the entire store.
	Stats(ctx context.Context) (StoreStats, error)
}

// SourceClient yields candidate items from one external origin (a subreddit,
// an RSS feed). Fetch applies a bounded timeout internally; since is a hint
// and the collector re-checks the lookback window itself.
type SourceClient interface {
	Name() string
	Fetch(ctx context.Context, since time.Time) ([]RawItem, error)
}

// TagHook lets a source adjust the tag set after keyword tagging, e.g. to add
// provenance or document-type tags derived from the item URL. Implementations
// must return a sorted, duplicate-free slice.
type TagHook func(url string, tags []string) []string

// Source pairs a client with the collector-side rules for its items.
type Source struct {
	Client SourceClient

	// Label is stored as Post.Source; distinct clients may share a label
	// (every subreddit stores as "Reddit").
	Label string

	// IDPrefix qualifies derived post IDs, e.g. "reddit" or "rss".
	IDPrefix string

	// Hook is optional per-source tag post-processing.
	Hook TagHook
}
