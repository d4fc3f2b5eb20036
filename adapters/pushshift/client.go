// Package pushshift searches historical submissions through the Pushshift API.
package pushshift

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"aitaflow/domain/core"
	"aitaflow/domain/daterange"
	"aitaflow/domain/thread"
	"aitaflow/internal"
	"aitaflow/internal/config"
	"aitaflow/internal/errors"
	"aitaflow/internal/ratelimit"

	"github.com/tidwall/gjson"
)

const searchPath = "/reddit/submission/search/"

// Query is one submission search request
type Query struct {
	Subreddit   string
	After       string
	Before      string
	NumComments string
	Limit       int
	SortType    string
	Sort        string
}

// Values encodes the query as URL parameters
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("subreddit", q.Subreddit)
	v.Set("after", q.After)
	v.Set("before", q.Before)
	if q.NumComments != "" {
		v.Set("num_comments", q.NumComments)
	}
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("sort_type", q.SortType)
	v.Set("sort", q.Sort)
	return v
}

// Client queries the submission search endpoint
type Client struct {
	baseURL     string
	limit       int
	minComments int
	httpClient  *http.Client
	limiter     *ratelimit.Limiter
	logger      *internal.Logger
}

// NewClient creates a search client from configuration
func NewClient(cfg config.PushshiftConfig, logger *internal.Logger) *Client {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		limit:       cfg.Limit,
		minComments: cfg.MinComments,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:     ratelimit.PerMinute(cfg.RequestsPerMinute),
		logger:      logger.With("pushshift"),
	}
}

// Close releases the rate limiter
func (c *Client) Close() {
	c.limiter.Stop()
}

// QueryFor builds the most-discussed-first query for one window
func (c *Client) QueryFor(subreddit string, window daterange.DateRange) Query {
	return Query{
		Subreddit:   subreddit,
		After:       window.Start,
		Before:      window.End,
		NumComments: fmt.Sprintf(">%d", c.minComments),
		Limit:       c.limit,
		SortType:    "num_comments",
		Sort:        "desc",
	}
}

// SearchPosts returns the posts created inside window
func (c *Client) SearchPosts(ctx context.Context, subreddit string, window daterange.DateRange) ([]thread.Post, error) {
	start := time.Now()
	posts, err := c.Search(ctx, c.QueryFor(subreddit, window))
	if err != nil {
		return nil, err
	}
	c.logger.Info("%d results for %s (%.0fms)", len(posts), window, float64(time.Since(start).Milliseconds()))
	return posts, nil
}

// Search runs a raw query
func (c *Client) Search(ctx context.Context, q Query) ([]thread.Post, error) {
	endpoint := c.baseURL + searchPath + "?" + q.Values().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build search request")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError("pushshift", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, errors.ExternalServiceError("pushshift", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.ExternalServiceError("pushshift",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	return ParseSearchResponse(body)
}

// ParseSearchResponse extracts posts from the data array of a search response
func ParseSearchResponse(body []byte) ([]thread.Post, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.ExternalServiceError("pushshift", fmt.Errorf("invalid JSON response"))
	}
	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, errors.ExternalServiceError("pushshift", fmt.Errorf("response has no data array"))
	}

	var posts []thread.Post
	var parseErr error
	data.ForEach(func(_, submission gjson.Result) bool {
		post, err := ParseSubmission(submission)
		if err != nil {
			parseErr = err
			return false
		}
		posts = append(posts, post)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return posts, nil
}

// ParseSubmission copies the fields the pipeline needs from one submission
func ParseSubmission(submission gjson.Result) (thread.Post, error) {
	id, err := core.ParsePostID(submission.Get("id").String())
	if err != nil {
		return thread.Post{}, errors.InvalidInput("submission without id")
	}

	post := thread.Post{
		ID:       id,
		Title:    submission.Get("title").String(),
		Score:    int(submission.Get("score").Int()),
		SelfText: submission.Get("selftext").String(),
	}
	if n := submission.Get("num_comments"); n.Exists() && n.Type != gjson.Null {
		v := int(n.Int())
		post.NumComments = &v
	}
	if created := submission.Get("created_utc"); created.Exists() && created.Type != gjson.Null {
		v := created.Int()
		post.CreatedUTC = &v
	}
	return post, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
