package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"filing-analyzer/internal/shared/telemetry"
)

// UserAgent is sent on every outbound scrape so pages render their desktop HTML.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ErrNoResults marks a search that succeeded but produced no links.
var ErrNoResults = errors.New("no search results")

// Searcher is implemented by every search provider.
type Searcher interface {
	Search(ctx context.Context, req *Request) (*Response, error)
}

// Request is a provider-neutral search request.
type Request struct {
	Query      string
	Topic      string // "news" or "general"
	MaxResults int
}

// Response holds results in provider order.
type Response struct {
	Results []Result
}

// Result is a single hit.
type Result struct {
	Title string
	URL   string
}

// TickerQuery returns the news query for a ticker symbol.
func TickerQuery(ticker string) string {
	return fmt.Sprintf("latest news and analysis for %s stock", ticker)
}

// Client runs ticker searches against one provider.
type Client struct {
	searcher Searcher
	provider string
}

// NewClient wraps searcher. provider is only used for logging.
func NewClient(searcher Searcher, provider string) *Client {
	return &Client{searcher: searcher, provider: provider}
}

// SearchTicker issues exactly one search and returns result URLs in order.
// An empty slice with a nil error means the search ran but found nothing.
func (c *Client) SearchTicker(ctx context.Context, ticker string) ([]string, error) {
	query := TickerQuery(strings.TrimSpace(ticker))
	resp, err := c.searcher.Search(ctx, &Request{Query: query, Topic: "news"})
	if err != nil {
		telemetry.Error("search.failed", map[string]any{
			"provider": c.provider,
			"query":    query,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	urls := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.URL == "" {
			continue
		}
		urls = append(urls, r.URL)
	}
	telemetry.Info("search.complete", map[string]any{
		"provider": c.provider,
		"query":    query,
		"results":  len(urls),
	})
	return urls, nil
}
