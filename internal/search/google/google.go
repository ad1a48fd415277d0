// Package google scrapes the Google results page for links.
package google

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"filing-analyzer/internal/search"
)

// DefaultBaseURL is the public results page.
const DefaultBaseURL = "https://www.google.com/search"

// Client scrapes result anchors out of div.g blocks.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a scraper. An empty baseURL selects DefaultBaseURL.
// A zero timeout leaves the request unbounded except by ctx.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ search.Searcher = (*Client)(nil)

// Search fetches one results page. Non-2xx responses are errors; no
// partial list is returned.
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	target := c.baseURL + "?q=" + strings.ReplaceAll(req.Query, " ", "+")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("User-Agent", search.UserAgent)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("google search error (status %d): %s", res.StatusCode, string(body))
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	results := make([]search.Result, 0)
	doc.Find("div.g").Each(func(_ int, block *goquery.Selection) {
		anchor := block.Find("a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}
		results = append(results, search.Result{
			Title: strings.TrimSpace(block.Find("h3").First().Text()),
			URL:   unwrapRedirect(href),
		})
	})
	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	return &search.Response{Results: results}, nil
}

// unwrapRedirect turns "/url?q=<target>&sa=..." links into the target URL.
func unwrapRedirect(href string) string {
	if !strings.HasPrefix(href, "/url?") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if q := u.Query().Get("q"); q != "" {
		return q
	}
	return href
}
