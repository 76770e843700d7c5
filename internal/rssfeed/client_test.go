package rssfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>TaxGuru</title>
	<link>https://taxguru.in</link>
	<item>
		<title>  GST return filing deadline extended  </title>
		<link>https://taxguru.in/gst/deadline-extended.html</link>
		<description>&lt;p&gt;The &lt;b&gt;due date&lt;/b&gt; for GSTR-3B has been extended.&lt;/p&gt;</description>
		<author>editor@taxguru.in (CA Sharma)</author>
		<pubDate>Mon, 24 Aug 2026 10:30:00 +0530</pubDate>
	</item>
	<item>
		<title>Income tax portal maintenance notice</title>
		<link>https://taxguru.in/income-tax/portal-maintenance.html</link>
		<description>Portal will be unavailable on Sunday.</description>
	</item>
</channel>
</rss>`

func TestFetchParsesEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeedXML))
	}))
	defer srv.Close()

	client := NewClient("TaxGuru", srv.URL)
	assert.Equal(t, "TaxGuru", client.Name())

	items, err := client.Fetch(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "GST return filing deadline extended", first.Title, "title is trimmed")
	assert.Equal(t, "The due date for GSTR-3B has been extended.", first.Body, "markup stripped from summary")
	assert.Equal(t, "https://taxguru.in/gst/deadline-extended.html", first.Permalink)
	assert.True(t, first.PublishedAt.Equal(time.Date(2026, 8, 24, 5, 0, 0, 0, time.UTC)))

	second := items[1]
	assert.True(t, second.PublishedAt.IsZero(), "entry without a date keeps a zero publish time")
	assert.Equal(t, "TaxGuru", second.Author, "feed name stands in for a missing author")
}

func TestFetchFeedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient("TaxGuru", srv.URL)
	_, err := client.Fetch(context.Background(), time.Time{})
	assert.Error(t, err)
}
