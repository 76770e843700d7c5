package rssfeed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"taxpulse/internal/domain"
)

// Client pulls entries from a single RSS/Atom feed.
type Client struct {
	name      string
	feedURL   string
	parser    *gofeed.Parser
	sanitizer *bluemonday.Policy
}

// NewClient creates a feed client with a bounded-timeout HTTP transport.
func NewClient(name, feedURL string) *Client {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 2,
		},
	}

	parser := gofeed.NewParser()
	parser.Client = httpClient

	return &Client{
		name:      name,
		feedURL:   feedURL,
		parser:    parser,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Name identifies this source in run statistics.
func (c *Client) Name() string {
	return c.name
}

// Fetch parses the feed and converts its entries to raw items. Entries with
// no parsable publish date are handed over with a zero PublishedAt and the
// collector assumes they are recent.
func (c *Client) Fetch(ctx context.Context, since time.Time) ([]domain.RawItem, error) {
	feed, err := c.parser.ParseURLWithContext(c.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", c.name, err)
	}

	items := make([]domain.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		summary := entry.Description
		if summary == "" {
			summary = entry.Content
		}
		// Feed summaries routinely carry markup; strip it so keyword
		// matching and the dashboard see plain text.
		summary = strings.TrimSpace(c.sanitizer.Sanitize(summary))

		author := c.name
		if entry.Author != nil && entry.Author.Name != "" {
			author = entry.Author.Name
		}

		items = append(items, domain.RawItem{
			Title:       strings.TrimSpace(entry.Title),
			Body:        summary,
			Author:      author,
			Permalink:   entry.Link,
			PublishedAt: entryPublished(entry),
		})
	}

	return items, nil
}

// entryPublished resolves an entry's publish time: published, then updated,
// then a lenient parse of the raw date string. Zero when nothing parses.
func entryPublished(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	if entry.Published != "" {
		if t, err := dateparse.ParseAny(entry.Published); err == nil {
			return t
		}
	}
	return time.Time{}
}
