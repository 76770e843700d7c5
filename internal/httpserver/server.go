package httpserver

import (
	"context"
	"embed"
	"encoding/csv"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"taxpulse/internal/config"
	"taxpulse/internal/domain"
)

//go:embed dashboard.html
var templateFS embed.FS

const (
	cacheSize = 128
	cacheTTL  = 5 * time.Minute
)

// OpenStore lazily opens the record store. The dashboard starts before the
// first collection run may have happened, so the store is opened on demand
// rather than at startup.
type OpenStore func() (domain.PostRepository, error)

// Server is the dashboard HTTP server: a thin read path over the query
// facade plus one embedded HTML page.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	cache      *queryCache

	storeExists func() bool
	openStore   OpenStore

	mu      sync.Mutex
	queries *domain.QueryService
	repo    domain.PostRepository
}

// NewServer creates the dashboard server. storeExists reports whether the
// database file is present; openStore opens it.
func NewServer(cfg *config.Config, storeExists func() bool, openStore OpenStore, logger *slog.Logger) (*Server, error) {
	cache, err := newQueryCache(cacheSize, cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}

	s := &Server{
		cfg:         cfg,
		logger:      logger,
		cache:       cache,
		storeExists: storeExists,
		openStore:   openStore,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	tmpl := template.Must(template.ParseFS(templateFS, "dashboard.html"))
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.handleDashboard)
	r.GET("/health", s.handleHealth)
	r.GET("/api/posts", s.handlePosts)
	r.GET("/api/summary", s.handleSummary)
	r.GET("/api/stats", s.handleStats)
	r.GET("/api/export.csv", s.handleExportCSV)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// queryService returns the query facade, opening the store on first use.
// ok is false while no data has been collected yet.
func (s *Server) queryService() (qs *domain.QueryService, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queries != nil {
		return s.queries, true, nil
	}
	if !s.storeExists() {
		return nil, false, nil
	}

	repo, err := s.openStore()
	if err != nil {
		return nil, false, fmt.Errorf("open store: %w", err)
	}
	s.repo = repo
	s.queries = domain.NewQueryService(repo, domain.NewTagger())
	return s.queries, true, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleDashboard(c *gin.Context) {
	_, ready, err := s.queryService()
	if err != nil {
		s.logger.Error("store open failed", "error", err)
	}
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Ready":    ready,
		"DaysBack": s.cfg.DaysBack,
	})
}

// requireStore resolves the query facade or answers with an explicit
// instruction to run ingestion first.
func (s *Server) requireStore(c *gin.Context) (*domain.QueryService, bool) {
	qs, ready, err := s.queryService()
	if err != nil {
		s.logger.Error("store open failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open data store"})
		return nil, false
	}
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "no data collected yet",
			"hint":  "run the collect command to ingest data first",
		})
		return nil, false
	}
	return qs, true
}

func (s *Server) handlePosts(c *gin.Context) {
	qs, ok := s.requireStore(c)
	if !ok {
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := "posts|" + filter.CacheKey()
	if cached, ok := s.cache.get(key); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	posts, err := qs.Posts(c.Request.Context(), filter)
	if err != nil {
		s.logger.Error("posts query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	resp := gin.H{"posts": posts, "count": len(posts)}
	s.cache.set(key, resp)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSummary(c *gin.Context) {
	qs, ok := s.requireStore(c)
	if !ok {
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := "summary|" + filter.CacheKey()
	if cached, ok := s.cache.get(key); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	summary, err := qs.Summarize(c.Request.Context(), filter)
	if err != nil {
		s.logger.Error("summary query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	s.cache.set(key, summary)
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleStats(c *gin.Context) {
	_, ok := s.requireStore(c)
	if !ok {
		return
	}

	stats, err := s.repo.Stats(c.Request.Context())
	if err != nil {
		s.logger.Error("stats query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleExportCSV(c *gin.Context) {
	qs, ok := s.requireStore(c)
	if !ok {
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	posts, err := qs.Posts(c.Request.Context(), filter)
	if err != nil {
		s.logger.Error("export query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	w.Write([]string{"created_at", "source", "title", "text", "author", "score", "url", "tags"})
	for _, p := range posts {
		w.Write([]string{
			p.CreatedAt.Format(time.RFC3339),
			p.Source,
			p.Title,
			p.Text,
			p.Author,
			strconv.Itoa(p.Score),
			p.URL,
			strings.Join(p.Tags, ", "),
		})
	}
	w.Flush()

	c.Header("Content-Disposition", `attachment; filename="compliance_posts.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(buf.String()))
}

// parseFilter reads filter parameters from the query string. Dates are plain
// YYYY-MM-DD; the end date is expanded to the end of that day so the bound
// stays inclusive.
func parseFilter(c *gin.Context) (domain.Filter, error) {
	var f domain.Filter

	if v := c.Query("start"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("invalid start date %q, want YYYY-MM-DD", v)
		}
		f.Start = &t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("invalid end date %q, want YYYY-MM-DD", v)
		}
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		f.End = &endOfDay
	}

	if v := c.Query("source"); v != "" && v != "All" {
		f.Source = v
	}
	f.Tags = c.Query("tags")
	f.Text = c.Query("q")

	return f, nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
