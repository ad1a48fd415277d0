// Package newsrss searches a news RSS endpoint such as Google News.
package newsrss

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"filing-analyzer/internal/search"
)

// DefaultBaseURL is the Google News RSS search endpoint.
const DefaultBaseURL = "https://news.google.com/rss/search"

// Client turns a query into feed items.
type Client struct {
	baseURL string
	parser  *gofeed.Parser
}

// NewClient returns a client. Empty baseURL means DefaultBaseURL and zero
// timeout means 30s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	fp := gofeed.NewParser()
	fp.UserAgent = search.UserAgent
	fp.Client = &http.Client{Timeout: timeout}
	return &Client{baseURL: baseURL, parser: fp}
}

var _ search.Searcher = (*Client)(nil)

// Search returns feed item links in feed order.
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("q", req.Query)
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")
	u.RawQuery = q.Encode()

	feed, err := c.parser.ParseURLWithContext(u.String(), ctx)
	if err != nil {
		return nil, fmt.Errorf("news feed: %w", err)
	}

	results := make([]search.Result, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || strings.TrimSpace(item.Link) == "" {
			continue
		}
		results = append(results, search.Result{Title: item.Title, URL: item.Link})
		if req.MaxResults > 0 && len(results) == req.MaxResults {
			break
		}
	}
	return &search.Response{Results: results}, nil
}
