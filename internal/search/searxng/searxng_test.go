package searxng

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"filing-analyzer/internal/search"
)

func TestSearchDecodesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("categories") != "news" || q.Get("q") != "latest news and analysis for MSFT stock" {
			t.Errorf("unexpected query %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query":"x","results":[{"title":"A","url":"https://a.example"},{"title":"B","url":"https://b.example"}]}`))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL, 5).Search(context.Background(), &search.Request{Query: search.TickerQuery("MSFT"), Topic: "news"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 2 || resp.Results[0].URL != "https://a.example" || resp.Results[1].URL != "https://b.example" {
		t.Fatalf("unexpected results %+v", resp.Results)
	}
}

func TestSearchStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, 5).Search(context.Background(), &search.Request{Query: "q"}); err == nil {
		t.Fatal("expected error")
	}
}
