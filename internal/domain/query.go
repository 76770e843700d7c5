package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// topTagLimit caps the tag frequency list in summaries.
const topTagLimit = 10

// Filter selects a subset of stored posts. Date range and source are pushed
// down to the repository; tag and text filters are applied on the result set.
type Filter struct {
	// Start and End bound created_at inclusively; nil means unbounded.
	Start *time.Time
	End   *time.Time

	// Source matches Post.Source exactly; empty matches all sources.
	Source string

	// Tags is a comma-separated OR list matched against Post.Tags.
	Tags string

	// Text is a case-insensitive substring matched against title and text.
	Text string
}

// CacheKey returns a canonical string for this filter, usable as a cache key.
func (f Filter) CacheKey() string {
	fmtTime := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s",
		fmtTime(f.Start), fmtTime(f.End), f.Source, f.Tags, strings.ToLower(f.Text))
}

// DailyCount is the number of posts created on one calendar date.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// TagCount is the frequency of one tag across a filtered set.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Summary holds the presentation-agnostic aggregates over a filtered set.
type Summary struct {
	TotalPosts    int          `json:"total_posts"`
	UniqueAuthors int          `json:"unique_authors"`
	Sources       int          `json:"sources"`
	PainPercent   float64      `json:"pain_percent"`
	Daily         []DailyCount `json:"daily"`
	TopTags       []TagCount   `json:"top_tags"`

	// PainTags names every pain tag so renderers can color-code without
	// carrying their own copy of the vocabulary.
	PainTags []string `json:"pain_tags"`
}

// QueryService is the read path serving filtered record sets and aggregates
// to the presentation layer.
type QueryService struct {
	repo   PostRepository
	tagger *Tagger
}

// NewQueryService creates a QueryService.
func NewQueryService(repo PostRepository, tagger *Tagger) *QueryService {
	return &QueryService{repo: repo, tagger: tagger}
}

// Posts returns the filtered posts, ordered by created_at descending.
func (q *QueryService) Posts(ctx context.Context, f Filter) ([]Post, error) {
	posts, err := q.repo.QueryPosts(ctx, f.Start, f.End, f.Source)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(f.Text))
	filtered := posts[:0]
	for _, p := range posts {
		if !HasTag(p.Tags, f.Tags) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Text), needle) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, nil
}

// Summarize computes the aggregate metrics over the filtered set.
func (q *QueryService) Summarize(ctx context.Context, f Filter) (*Summary, error) {
	posts, err := q.Posts(ctx, f)
	if err != nil {
		return nil, err
	}

	authors := make(map[string]struct{})
	sources := make(map[string]struct{})
	daily := make(map[string]int)
	tagCounts := make(map[string]int)

	for _, p := range posts {
		authors[p.Author] = struct{}{}
		sources[p.Source] = struct{}{}
		daily[p.CreatedAt.Format("2006-01-02")]++
		for _, tag := range p.Tags {
			tagCounts[tag]++
		}
	}

	s := &Summary{
		TotalPosts:    len(posts),
		UniqueAuthors: len(authors),
		Sources:       len(sources),
		PainPercent:   q.tagger.PainPercent(posts),
		Daily:         make([]DailyCount, 0, len(daily)),
		TopTags:       make([]TagCount, 0, len(tagCounts)),
		PainTags:      q.tagger.PainTags(),
	}

	for date, n := range daily {
		s.Daily = append(s.Daily, DailyCount{Date: date, Count: n})
	}
	sort.Slice(s.Daily, func(i, j int) bool { return s.Daily[i].Date < s.Daily[j].Date })

	for tag, n := range tagCounts {
		s.TopTags = append(s.TopTags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(s.TopTags, func(i, j int) bool {
		if s.TopTags[i].Count != s.TopTags[j].Count {
			return s.TopTags[i].Count > s.TopTags[j].Count
		}
		return s.TopTags[i].Tag < s.TopTags[j].Tag
	})
	if len(s.TopTags) > topTagLimit {
		s.TopTags = s.TopTags[:topTagLimit]
	}

	return s, nil
}
