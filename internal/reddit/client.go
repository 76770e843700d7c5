package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taxpulse/internal/domain"
)

const (
	defaultPublicURL = "https://www.reddit.com"
	defaultOAuthURL  = "https://oauth.reddit.com"
	defaultUserAgent = "taxpulse/1.0 (compliance mention tracker)"
)

// Config holds the Reddit API settings shared by all subreddit clients.
// ClientID and ClientSecret are optional: without them the client falls back
// to the unauthenticated public listing endpoint, which is rate limited more
// aggressively but needs no registration.
type Config struct {
	ClientID     string
	ClientSecret string
	UserAgent    string

	// Limit is the maximum number of listing entries requested per pull.
	Limit int

	// PublicURL, OAuthURL and TokenURL override the Reddit endpoints (tests).
	PublicURL string
	OAuthURL  string
	TokenURL  string
}

// Client pulls recent submissions from a single subreddit's "new" listing.
type Client struct {
	subreddit  string
	cfg        Config
	httpClient *http.Client

	// populated after authenticate
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a client for one subreddit.
func NewClient(subreddit string, cfg Config) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = defaultPublicURL
	}
	if cfg.OAuthURL == "" {
		cfg.OAuthURL = defaultOAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = cfg.PublicURL + "/api/v1/access_token"
	}
	return &Client{
		subreddit: subreddit,
		cfg:       cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name identifies this source in run statistics.
func (c *Client) Name() string {
	return "r/" + c.subreddit
}

// Fetch retrieves the subreddit's newest submissions. The since parameter is
// only a hint; the collector applies the lookback window itself.
func (c *Client) Fetch(ctx context.Context, since time.Time) ([]domain.RawItem, error) {
	base := c.cfg.PublicURL
	if c.cfg.ClientID != "" && c.cfg.ClientSecret != "" {
		if err := c.ensureToken(ctx); err != nil {
			return nil, fmt.Errorf("authenticate: %w", err)
		}
		base = c.cfg.OAuthURL
	}

	listingURL := fmt.Sprintf("%s/r/%s/new.json?limit=%d&raw_json=1", base, c.subreddit, c.cfg.Limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var listing listingResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("unmarshal listing: %w", err)
	}

	items := make([]domain.RawItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		sub := child.Data

		author := sub.Author
		if author == "" {
			author = domain.DeletedAuthor
		}

		var published time.Time
		if sub.CreatedUTC > 0 {
			published = time.Unix(int64(sub.CreatedUTC), 0)
		}

		items = append(items, domain.RawItem{
			NativeID:    sub.ID,
			Title:       sub.Title,
			Body:        sub.Selftext,
			Author:      author,
			Permalink:   "https://reddit.com" + sub.Permalink,
			Score:       sub.Score,
			PublishedAt: published,
			Subreddit:   c.subreddit,
		})
	}

	return items, nil
}

// ensureToken obtains an application-only OAuth token via the client
// credentials grant, refreshing it shortly before expiry.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return fmt.Errorf("unmarshal token response: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("token response contained no access token")
	}

	c.accessToken = token.AccessToken
	// Refresh a minute early to avoid using a token mid-expiry.
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// listingResponse is the raw JSON shape of a subreddit listing.
type listingResponse struct {
	Data struct {
		Children []struct {
			Data submission `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// submission is the subset of listing fields the collector needs.
type submission struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Author     string  `json:"author"`
	Permalink  string  `json:"permalink"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
}
