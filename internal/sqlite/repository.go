package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"taxpulse/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements domain.PostRepository using SQLite. Every method is
// a single short statement or transaction; the PRIMARY KEY on id is the sole
// dedup mechanism, so concurrent writers (collector and dashboard processes)
// stay consistent without application-level locking.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if necessary) the SQLite database at dbPath,
// verifies the connection, and ensures the schema exists. The caller should
// call Close when the repository is no longer needed.
func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &Repository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return r, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate idempotently creates the posts table and its indexes. Safe to run
// on every process start.
func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		title TEXT,
		text TEXT,
		author TEXT,
		url TEXT,
		score INTEGER,
		created_at DATETIME NOT NULL,
		collected_at DATETIME NOT NULL,
		tags TEXT,
		subreddit TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_posts_source ON posts(source);
	CREATE INDEX IF NOT EXISTS idx_posts_tags ON posts(tags);
	`

	_, err := r.db.Exec(schema)
	return err
}

// InsertPost persists a new post. Returns true if newly inserted, false if a
// post with the same id already existed. The duplicate is detected by the
// PRIMARY KEY constraint, not a pre-check, so it remains correct under
// concurrent writers.
func (r *Repository) InsertPost(ctx context.Context, post *domain.Post) (bool, error) {
	tagsJSON, err := json.Marshal(post.Tags)
	if err != nil {
		return false, fmt.Errorf("marshal tags: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (id, source, title, text, author, url, score, created_at, collected_at, tags, subreddit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		post.ID,
		post.Source,
		post.Title,
		post.Text,
		post.Author,
		post.URL,
		post.Score,
		post.CreatedAt.UTC(),
		post.CollectedAt.UTC(),
		string(tagsJSON),
		post.Subreddit,
	)
	if err != nil {
		return false, fmt.Errorf("insert post: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// PostExists reports whether a post with the given id is already stored.
func (r *Repository) PostExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return exists, nil
}

// QueryPosts retrieves posts filtered by inclusive created_at bounds and
// source, ordered by created_at descending.
func (r *Repository) QueryPosts(ctx context.Context, start, end *time.Time, source string) ([]domain.Post, error) {
	query := `
		SELECT id, source, title, text, author, url, score, created_at, collected_at, tags, subreddit
		FROM posts WHERE 1=1`
	var args []any

	if start != nil {
		query += ` AND created_at >= ?`
		args = append(args, start.UTC())
	}
	if end != nil {
		query += ` AND created_at <= ?`
		args = append(args, end.UTC())
	}
	if source != "" {
		query += ` AND source = ?`
		args = append(args, source)
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var (
			p        domain.Post
			tagsJSON string
		)
		err := rows.Scan(
			&p.ID,
			&p.Source,
			&p.Title,
			&p.Text,
			&p.Author,
			&p.URL,
			&p.Score,
			&p.CreatedAt,
			&p.CollectedAt,
			&tagsJSON,
			&p.Subreddit,
		)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if tagsJSON != "" {
			if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
				return nil, fmt.Errorf("unmarshal tags for %s: %w", p.ID, err)
			}
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// Stats summarizes the whole store.
func (r *Repository) Stats(ctx context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT author), COUNT(DISTINCT source) FROM posts`,
	).Scan(&stats.TotalPosts, &stats.UniqueAuthors, &stats.Sources)
	if err != nil {
		return stats, fmt.Errorf("count posts: %w", err)
	}

	if stats.TotalPosts == 0 {
		return stats, nil
	}

	earliest, err := r.boundaryCreatedAt(ctx, "ASC")
	if err != nil {
		return stats, err
	}
	latest, err := r.boundaryCreatedAt(ctx, "DESC")
	if err != nil {
		return stats, err
	}
	stats.EarliestPost = earliest
	stats.LatestPost = latest

	return stats, nil
}

func (r *Repository) boundaryCreatedAt(ctx context.Context, order string) (*time.Time, error) {
	var t time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM posts ORDER BY created_at `+order+` LIMIT 1`,
	).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query created_at boundary: %w", err)
	}
	return &t, nil
}
