// Package reddit fetches top-level comments through the Reddit OAuth API.
package reddit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"aitaflow/domain/core"
	"aitaflow/domain/thread"
	"aitaflow/internal"
	"aitaflow/internal/config"
	"aitaflow/internal/errors"
	"aitaflow/internal/ratelimit"

	"github.com/tidwall/gjson"
)

// tokens are refreshed this long before Reddit says they expire
const tokenSlack = time.Minute

// defaultTokenTTL applies when the token response omits expires_in
const defaultTokenTTL = time.Hour

// Client is an application-only API handle. Each pipeline owns its own.
type Client struct {
	cfg        config.RedditConfig
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	logger     *internal.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

// NewClient creates a comment client; credentials are required
func NewClient(cfg config.RedditConfig, logger *internal.Logger) (*Client, error) {
	if err := cfg.ValidateReddit(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    ratelimit.PerMinute(cfg.RequestsPerMinute),
		logger:     logger.With("reddit"),
		now:        time.Now,
	}, nil
}

// FetchComments returns the top-level comments of a post. "Load more"
// placeholders are skipped, matching what a single listing request returns.
func (c *Client) FetchComments(ctx context.Context, postID core.PostID) ([]thread.RawComment, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/comments/%s?%s", strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(postID.String()), url.Values{
			"depth":    {"1"},
			"limit":    {"500"},
			"raw_json": {"1"},
		}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build comments request")
	}
	req.Header.Set("Authorization", "bearer "+token)
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	body, err := c.do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch comments for %s", postID)
	}

	comments, err := ParseCommentListing(body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse comments for %s", postID)
	}
	c.logger.Debug("fetched %d top-level comments for %s", len(comments), postID)
	return comments, nil
}

// accessToken returns a cached client-credentials token, refreshing it when stale
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "failed to build token request")
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	body, err := c.do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to obtain access token")
	}

	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", errors.ExternalServiceError("reddit", fmt.Errorf("token response without access_token"))
	}
	ttl := time.Duration(gjson.GetBytes(body, "expires_in").Int()) * time.Second
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	c.token = token
	if ttl <= tokenSlack {
		c.expires = c.now().Add(ttl / 2)
	} else {
		c.expires = c.now().Add(ttl - tokenSlack)
	}
	c.logger.Debug("obtained access token valid for %s", ttl)
	return token, nil
}

// Close releases the rate limiter
func (c *Client) Close() {
	c.limiter.Stop()
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError("reddit", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ExternalServiceError("reddit", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.ExternalServiceError("reddit", fmt.Errorf("status %d", resp.StatusCode))
	}
	return body, nil
}

// ParseCommentListing reads the second listing of a /comments response
func ParseCommentListing(body []byte) ([]thread.RawComment, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.ExternalServiceError("reddit", fmt.Errorf("invalid JSON response"))
	}
	children := gjson.GetBytes(body, "1.data.children")
	if !children.IsArray() {
		return nil, errors.ExternalServiceError("reddit", fmt.Errorf("response has no comment listing"))
	}

	var comments []thread.RawComment
	children.ForEach(func(_, child gjson.Result) bool {
		if child.Get("kind").String() != "t1" {
			return true
		}
		data := child.Get("data")
		comments = append(comments, thread.RawComment{
			ID:     data.Get("id").String(),
			Author: data.Get("author").String(),
			Body:   data.Get("body").String(),
			Score:  int(data.Get("score").Int()),
		})
		return true
	})
	return comments, nil
}
