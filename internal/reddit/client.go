// ABOUTME: Read-only Reddit API client using application-only OAuth
// ABOUTME: Handles token refresh, listing pagination types and JSON decoding

package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Default endpoints; overridable for tests.
const (
	defaultAuthBaseURL = "https://www.reddit.com"
	defaultAPIBaseURL  = "https://oauth.reddit.com"
)

// listingPageMax is the largest per-request limit the listing API accepts.
const listingPageMax = 100

// ClientConfig holds the credentials and endpoints for the API client.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	UserAgent    string

	// AuthBaseURL and APIBaseURL override the Reddit endpoints (tests only).
	AuthBaseURL string
	APIBaseURL  string
}

// Client is a read-only Reddit API client authenticated with an
// application-only OAuth token. Safe for concurrent use.
type Client struct {
	http      *http.Client
	authBase  string
	apiBase   string
	clientID  string
	secret    string
	userAgent string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a Client from the given config.
// Returns an error if credentials are missing.
func NewClient(cfg ClientConfig, httpClient *http.Client) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.UserAgent == "" {
		return nil, fmt.Errorf("missing reddit credentials: client_id, client_secret and user_agent are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	authBase := cfg.AuthBaseURL
	if authBase == "" {
		authBase = defaultAuthBaseURL
	}
	apiBase := cfg.APIBaseURL
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	return &Client{
		http:      httpClient,
		authBase:  strings.TrimRight(authBase, "/"),
		apiBase:   strings.TrimRight(apiBase, "/"),
		clientID:  cfg.ClientID,
		secret:    cfg.ClientSecret,
		userAgent: cfg.UserAgent,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns a valid bearer token, requesting a new one when the
// cached token is missing or about to expire.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authBase+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("reddit token http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("reddit token response missing access_token")
	}

	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

// get performs an authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	u := c.apiBase + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("reddit http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// aboutResponse is the /user/{name}/about payload (relevant subset).
type aboutResponse struct {
	Data struct {
		Name         string  `json:"name"`
		CreatedUTC   float64 `json:"created_utc"`
		LinkKarma    int     `json:"link_karma"`
		CommentKarma int     `json:"comment_karma"`
	} `json:"data"`
}

// submission is one listing child (relevant subset).
type submission struct {
	Title             string  `json:"title"`
	Score             int     `json:"score"`
	Subreddit         string  `json:"subreddit"`
	Permalink         string  `json:"permalink"`
	NumComments       int     `json:"num_comments"`
	CreatedUTC        float64 `json:"created_utc"`
	RemovedByCategory string  `json:"removed_by_category"`
}

// listing is a paged Reddit listing of submissions.
type listing struct {
	After    string
	Children []submission
}

type listingResponse struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data submission `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *listingResponse) toListing() listing {
	l := listing{After: r.Data.After}
	l.Children = make([]submission, 0, len(r.Data.Children))
	for _, ch := range r.Data.Children {
		l.Children = append(l.Children, ch.Data)
	}
	return l
}

// AboutUser fetches public account metadata for a username.
func (c *Client) AboutUser(ctx context.Context, username string) (*aboutResponse, error) {
	var out aboutResponse
	if err := c.get(ctx, "/user/"+url.PathEscape(username)+"/about", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserSubmitted fetches one page of a user's submissions.
// sort is "new" or "top"; after is the pagination cursor ("" for first page).
func (c *Client) UserSubmitted(ctx context.Context, username, sort string, limit int, after string) (listing, error) {
	q := url.Values{
		"sort":  {sort},
		"limit": {strconv.Itoa(clampPageLimit(limit))},
	}
	if sort == "top" {
		q.Set("t", "all")
	}
	if after != "" {
		q.Set("after", after)
	}
	var out listingResponse
	if err := c.get(ctx, "/user/"+url.PathEscape(username)+"/submitted", q, &out); err != nil {
		return listing{}, err
	}
	return out.toListing(), nil
}

// SubredditListing fetches one page of a subreddit listing.
// sort is "hot" or "top"; top listings use the all-time window.
func (c *Client) SubredditListing(ctx context.Context, subreddit, sort string, limit int, after string) (listing, error) {
	q := url.Values{
		"limit": {strconv.Itoa(clampPageLimit(limit))},
	}
	if sort == "top" {
		q.Set("t", "all")
	}
	if after != "" {
		q.Set("after", after)
	}
	var out listingResponse
	if err := c.get(ctx, "/r/"+url.PathEscape(subreddit)+"/"+sort, q, &out); err != nil {
		return listing{}, err
	}
	return out.toListing(), nil
}

func clampPageLimit(limit int) int {
	if limit <= 0 || limit > listingPageMax {
		return listingPageMax
	}
	return limit
}
