package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "ENV", "LOG_LEVEL", "LLM_PROVIDER", "LLM_BASE_URL", "LLM_MODEL",
		"GENAI_API_KEY", "LLM_API_KEY", "SEARCH_PROVIDER", "SEARXNG_BASE_URL", "TAVILY_API_KEY",
		"FETCH_TIMEOUT_SECONDS", "FETCH_READABILITY_FALLBACK", "DOCSTORE_BACKEND", "GOOGLE_CREDENTIALS_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
	if cfg.FetchTimeoutSeconds != 10 {
		t.Fatalf("expected 10 second fetch timeout, got %d", cfg.FetchTimeoutSeconds)
	}
	if cfg.LLMModel != defaultLLMModel {
		t.Fatalf("expected default model, got %q", cfg.LLMModel)
	}
	if cfg.GoogleCredentialsFile != "" {
		t.Fatalf("expected no credentials file, got %q", cfg.GoogleCredentialsFile)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "port: \"9090\"\nsearch_provider: searxng\nsearxng_base_url: http://searx.local\nllm_model: file-model\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("GENAI_API_KEY", "key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port from file, got %q", cfg.Port)
	}
	if cfg.SearchProvider != "searxng" || cfg.SearXNGBaseURL != "http://searx.local" {
		t.Fatalf("unexpected search config: %+v", cfg)
	}
	if cfg.LLMModel != "env-model" {
		t.Fatalf("expected env to win over file, got %q", cfg.LLMModel)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GENAI_API_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// godotenv never overrides variables that are already set, even to "".
	os.Unsetenv("GENAI_API_KEY")
	t.Cleanup(func() { os.Unsetenv("GENAI_API_KEY") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLMAPIKey != "from-dotenv" {
		t.Fatalf("expected api key from .env, got %q", cfg.LLMAPIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing api key", mutate: func(c *Config) { c.LLMAPIKey = "" }, wantErr: "GENAI_API_KEY is required"},
		{name: "unknown llm provider", mutate: func(c *Config) { c.LLMProvider = "local" }, wantErr: "unknown LLM_PROVIDER"},
		{name: "searxng without url", mutate: func(c *Config) { c.SearchProvider = "searxng" }, wantErr: "SEARXNG_BASE_URL"},
		{name: "tavily without key", mutate: func(c *Config) { c.SearchProvider = "tavily" }, wantErr: "TAVILY_API_KEY"},
		{name: "unknown backend", mutate: func(c *Config) { c.DocstoreBackend = "dropbox" }, wantErr: "unknown DOCSTORE_BACKEND"},
		{name: "zero fetch timeout", mutate: func(c *Config) { c.FetchTimeoutSeconds = 0 }, wantErr: "FETCH_TIMEOUT_SECONDS"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.LLMAPIKey = "key"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
