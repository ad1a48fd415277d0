package factory

import (
	"fmt"
	"strings"

	"filing-analyzer/internal/search"
	"filing-analyzer/internal/search/google"
	"filing-analyzer/internal/search/newsrss"
	"filing-analyzer/internal/search/searxng"
	"filing-analyzer/internal/search/tavily"
	"filing-analyzer/internal/shared/config"
)

// NewSearcher builds the provider named by SEARCH_PROVIDER.
func NewSearcher(cfg config.Config) (search.Searcher, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.SearchProvider))
	if provider == "" {
		provider = "google"
	}

	switch provider {
	case "google":
		return google.NewClient("", 0), nil
	case "searxng":
		if cfg.SearXNGBaseURL == "" {
			return nil, fmt.Errorf("searxng base url is missing")
		}
		return searxng.NewClient(cfg.SearXNGBaseURL, cfg.SearXNGTimeoutSeconds), nil
	case "newsrss":
		return newsrss.NewClient(cfg.NewsRSSBaseURL, 0), nil
	case "tavily":
		if cfg.TavilyAPIKey == "" {
			return nil, fmt.Errorf("tavily api key is missing")
		}
		return tavily.NewClient(cfg.TavilyAPIKey, "", 0), nil
	default:
		return nil, fmt.Errorf("unknown search provider: %s", provider)
	}
}

// NewClient wraps the configured provider in a ticker search client.
func NewClient(cfg config.Config) (*search.Client, error) {
	searcher, err := NewSearcher(cfg)
	if err != nil {
		return nil, err
	}
	provider := cfg.SearchProvider
	if provider == "" {
		provider = "google"
	}
	return search.NewClient(searcher, provider), nil
}
