package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxpulse/internal/config"
	"taxpulse/internal/domain"
	"taxpulse/internal/sqlite"
)

func testConfig() *config.Config {
	return &config.Config{Port: 0, DaysBack: 14}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newServerWithStore seeds a temp database and wires it into a server.
func newServerWithStore(t *testing.T, posts []domain.Post) *Server {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := sqlite.NewRepository(dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	for i := range posts {
		_, err := repo.InsertPost(ctx, &posts[i])
		require.NoError(t, err)
	}
	require.NoError(t, repo.Close())

	srv, err := NewServer(testConfig(),
		func() bool { return true },
		func() (domain.PostRepository, error) { return sqlite.NewRepository(dbPath) },
		testLogger(),
	)
	require.NoError(t, err)
	return srv
}

func newServerWithoutStore(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(testConfig(),
		func() bool { return false },
		func() (domain.PostRepository, error) { t.Fatal("openStore called without a store"); return nil, nil },
		testLogger(),
	)
	require.NoError(t, err)
	return srv
}

func doRequest(srv *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func seedPosts() []domain.Post {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	return []domain.Post{
		{
			ID: "reddit_1", Source: "Reddit", Title: "GST portal error",
			Text: "site not working", Author: "user1",
			CreatedAt: base, CollectedAt: base,
			Tags: []string{"GST", "Negative", "PortalIssues"}, Subreddit: "IndiaTax",
		},
		{
			ID: "rss_1", Source: "TaxGuru", Title: "TDS due date reminder",
			Text: "quarterly TDS return due date approaching", Author: "TaxGuru",
			CreatedAt: base.AddDate(0, 0, 1), CollectedAt: base,
			Tags: []string{"Deadlines", "TDS/TCS"},
		},
	}
}

func TestHealth(t *testing.T) {
	rec := doRequest(newServerWithoutStore(t), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPIUnavailableBeforeFirstCollection(t *testing.T) {
	srv := newServerWithoutStore(t)

	for _, path := range []string{"/api/posts", "/api/summary", "/api/stats", "/api/export.csv"} {
		rec := doRequest(srv, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "no data collected yet", body["error"])
		assert.Contains(t, body["hint"], "collect")
	}
}

func TestDashboardRendersBeforeFirstCollection(t *testing.T) {
	rec := doRequest(newServerWithoutStore(t), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data collected yet")
}

func TestPostsEndpoint(t *testing.T) {
	srv := newServerWithStore(t, seedPosts())

	rec := doRequest(srv, "/api/posts")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int           `json:"count"`
		Posts []domain.Post `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Posts, 2)
	assert.Equal(t, "rss_1", body.Posts[0].ID, "newest first")
}

func TestPostsEndpointFilters(t *testing.T) {
	srv := newServerWithStore(t, seedPosts())

	rec := doRequest(srv, "/api/posts?source=Reddit")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int           `json:"count"`
		Posts []domain.Post `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "reddit_1", body.Posts[0].ID)

	// "All" is the dashboard's catch-all and must not filter anything.
	rec = doRequest(srv, "/api/posts?source=All")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}

func TestPostsEndpointBadDate(t *testing.T) {
	srv := newServerWithStore(t, seedPosts())

	rec := doRequest(srv, "/api/posts?start=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "YYYY-MM-DD")
}

func TestPostsEndpointEndDateInclusive(t *testing.T) {
	srv := newServerWithStore(t, seedPosts())

	// rss_1 was created at 10:00 on the 21st; an end bound of the same day
	// must still include it.
	rec := doRequest(srv, "/api/posts?end=2026-08-21")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newServerWithStore(t, seedPosts())

	rec := doRequest(srv, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary domain.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalPosts)
	assert.Equal(t, 2, summary.UniqueAuthors)
	assert.Equal(t, 2, summary.Sources)
	// 3 pain occurrences (Negative, PortalIssues, Deadlines) of 5 total tags.
	assert.InDelta(t, 3.0/5.0*100, summary.PainPercent, 0.001)
	assert.Len(t, summary.Daily, 2)
	assert.Equal(t, []string{"Deadlines", "Negative", "PortalIssues"}, summary.PainTags,
		"page color-codes pain tags from the payload")
}

func TestDashboardRendersTrendAndTagSections(t *testing.T) {
	rec := doRequest(newServerWithStore(t, seedPosts()), "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Daily mentions")
	assert.Contains(t, body, `id="trend"`)
	assert.Contains(t, body, "summary.pain_tags")
}

func TestStatsEndpoint(t *testing.T) {
	srv := newServerWithStore(t, seedPosts())

	rec := doRequest(srv, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats domain.StoreStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalPosts)
	require.NotNil(t, stats.EarliestPost)
	require.NotNil(t, stats.LatestPost)
}

func TestExportCSV(t *testing.T) {
	srv := newServerWithStore(t, seedPosts())

	rec := doRequest(srv, "/api/export.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "compliance_posts.csv")

	body := rec.Body.String()
	assert.Contains(t, body, "created_at,source,title,text,author,score,url,tags")
	assert.Contains(t, body, "GST portal error")
	assert.Contains(t, body, "GST, Negative, PortalIssues")
}

func TestSummaryCached(t *testing.T) {
	srv := newServerWithStore(t, seedPosts())

	first := doRequest(srv, "/api/summary")
	require.Equal(t, http.StatusOK, first.Code)

	// The repo backing the server sees new rows, but the cached summary is
	// served until the TTL expires.
	ctx := context.Background()
	_, err := srv.repo.InsertPost(ctx, &domain.Post{
		ID: "reddit_9", Source: "Reddit", Title: "EPFO claim stuck",
		Author: "user9", CreatedAt: time.Now().UTC(), CollectedAt: time.Now().UTC(),
		Tags: []string{"PF/ESI/PT"},
	})
	require.NoError(t, err)

	second := doRequest(srv, "/api/summary")
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}
