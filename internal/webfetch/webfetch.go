// Package webfetch downloads search result pages and keeps their readable text.
package webfetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"filing-analyzer/internal/search"
	"filing-analyzer/internal/shared/telemetry"
)

const (
	defaultTimeout = 10 * time.Second
	maxPageBytes   = 5 << 20
	textSelector   = "p, h1, h2, h3, h4, h5, h6"
)

// Options configures a Fetcher.
type Options struct {
	// Timeout bounds each page request independently. Zero means 10s.
	Timeout time.Duration
	// ReadabilityFallback extracts the main article when a page has no
	// paragraph or heading text.
	ReadabilityFallback bool
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// Fetcher retrieves pages one at a time.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	readability bool
}

// New returns a Fetcher.
func New(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{client: client, timeout: timeout, readability: opts.ReadabilityFallback}
}

// FailedURL records a page that was skipped.
type FailedURL struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Batch is the outcome of FetchAndCombine.
type Batch struct {
	Text    string      `json:"-"`
	Fetched []string    `json:"fetched"`
	Failed  []FailedURL `json:"failed,omitempty"`
}

// FetchAndCombine fetches urls in order and concatenates the text of every
// page that loaded, each followed by a newline. A failing URL is logged and
// recorded; it never aborts the batch.
func (f *Fetcher) FetchAndCombine(ctx context.Context, urls []string) Batch {
	var out Batch
	var combined strings.Builder
	for _, u := range urls {
		if ctx.Err() != nil {
			out.Failed = append(out.Failed, FailedURL{URL: u, Error: ctx.Err().Error()})
			continue
		}
		text, err := f.fetchOne(ctx, u)
		if err != nil {
			telemetry.Warn("webfetch.failed", map[string]any{
				"url":   u,
				"error": err.Error(),
			})
			out.Failed = append(out.Failed, FailedURL{URL: u, Error: err.Error()})
			continue
		}
		combined.WriteString(text)
		combined.WriteString("\n")
		out.Fetched = append(out.Fetched, u)
	}
	out.Text = combined.String()
	telemetry.Info("webfetch.complete", map[string]any{
		"requested": len(urls),
		"fetched":   len(out.Fetched),
		"failed":    len(out.Failed),
		"chars":     len(out.Text),
	})
	return out
}

func (f *Fetcher) fetchOne(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("invalid url %q", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", search.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text, err := ExtractText(body)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" && f.readability {
		article, err := readability.FromReader(bytes.NewReader(body), parsed)
		if err == nil {
			text = strings.TrimSpace(article.TextContent)
		}
	}
	return text, nil
}

// ExtractText joins the text of every paragraph and heading with single
// spaces, in document order.
func ExtractText(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	parts := doc.Find(textSelector).Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	})
	return strings.Join(parts, " "), nil
}
