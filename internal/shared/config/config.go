package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultLLMBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	defaultLLMModel   = "gemini-1.5-flash"
)

// Config holds application configuration.
type Config struct {
	Port                     string   `yaml:"port"`
	Env                      string   `yaml:"env"`
	CORSAllowOrigin          []string `yaml:"cors_allow_origins"`
	LogLevel                 string   `yaml:"log_level"`
	LLMProvider              string   `yaml:"llm_provider"`
	LLMBaseURL               string   `yaml:"llm_base_url"`
	LLMModel                 string   `yaml:"llm_model"`
	LLMAPIKey                string   `yaml:"-"`
	LLMTimeoutSeconds        int      `yaml:"llm_timeout_seconds"`
	SearchProvider           string   `yaml:"search_provider"`
	NewsRSSBaseURL           string   `yaml:"news_rss_base_url"`
	SearXNGBaseURL           string   `yaml:"searxng_base_url"`
	SearXNGTimeoutSeconds    int      `yaml:"searxng_timeout_seconds"`
	TavilyAPIKey             string   `yaml:"-"`
	FetchTimeoutSeconds      int      `yaml:"fetch_timeout_seconds"`
	FetchReadabilityFallback bool     `yaml:"fetch_readability_fallback"`
	DocstoreBackend          string   `yaml:"docstore_backend"`
	GoogleCredentialsFile    string   `yaml:"google_credentials_file"`
	AWSRegion                string   `yaml:"aws_region"`
	DocstoreS3Bucket         string   `yaml:"docstore_s3_bucket"`
	DocstoreS3Prefix         string   `yaml:"docstore_s3_prefix"`
	DocstoreS3Endpoint       string   `yaml:"docstore_s3_endpoint"`
}

// Load reads configuration from .env files, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	if files := existing(".env", "cmd/.env"); len(files) > 0 {
		_ = godotenv.Load(files...)
	}

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Port:                "8080",
		Env:                 "dev",
		CORSAllowOrigin:     []string{"http://localhost:5173"},
		LogLevel:            "info",
		LLMProvider:         "openai",
		LLMBaseURL:          defaultLLMBaseURL,
		LLMModel:            defaultLLMModel,
		SearchProvider:      "google",
		FetchTimeoutSeconds: 10,
		DocstoreBackend:     "google",
		DocstoreS3Prefix:    "analyses",
	}
}

// Validate enforces the settings the process cannot start without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.LLMAPIKey) == "" {
		errs = append(errs, errors.New("GENAI_API_KEY is required"))
	}
	switch c.LLMProvider {
	case "openai", "eino":
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	switch c.SearchProvider {
	case "google", "newsrss":
	case "searxng":
		if strings.TrimSpace(c.SearXNGBaseURL) == "" {
			errs = append(errs, errors.New("SEARXNG_BASE_URL is required for SEARCH_PROVIDER=searxng"))
		}
	case "tavily":
		if strings.TrimSpace(c.TavilyAPIKey) == "" {
			errs = append(errs, errors.New("TAVILY_API_KEY is required for SEARCH_PROVIDER=tavily"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SEARCH_PROVIDER %q", c.SearchProvider))
	}
	switch c.DocstoreBackend {
	case "google", "s3":
	default:
		errs = append(errs, fmt.Errorf("unknown DOCSTORE_BACKEND %q", c.DocstoreBackend))
	}
	if c.FetchTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("FETCH_TIMEOUT_SECONDS must be positive"))
	}
	return errors.Join(errs...)
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = normalizeEnv(getEnv("ENV", cfg.Env))
	if raw := os.Getenv("CORS_ALLOW_ORIGINS"); raw != "" {
		cfg.CORSAllowOrigin = splitAndTrim(raw)
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", cfg.LLMProvider)))
	cfg.LLMBaseURL = strings.TrimRight(getEnv("LLM_BASE_URL", cfg.LLMBaseURL), "/")
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	cfg.LLMAPIKey = getEnv("GENAI_API_KEY", getEnv("LLM_API_KEY", cfg.LLMAPIKey))
	cfg.LLMTimeoutSeconds = getEnvInt("LLM_TIMEOUT_SECONDS", cfg.LLMTimeoutSeconds)
	cfg.SearchProvider = strings.ToLower(strings.TrimSpace(getEnv("SEARCH_PROVIDER", cfg.SearchProvider)))
	cfg.NewsRSSBaseURL = getEnv("NEWS_RSS_BASE_URL", cfg.NewsRSSBaseURL)
	cfg.SearXNGBaseURL = getEnv("SEARXNG_BASE_URL", cfg.SearXNGBaseURL)
	cfg.SearXNGTimeoutSeconds = getEnvInt("SEARXNG_TIMEOUT_SECONDS", cfg.SearXNGTimeoutSeconds)
	cfg.TavilyAPIKey = getEnv("TAVILY_API_KEY", cfg.TavilyAPIKey)
	cfg.FetchTimeoutSeconds = getEnvInt("FETCH_TIMEOUT_SECONDS", cfg.FetchTimeoutSeconds)
	cfg.FetchReadabilityFallback = getEnvBool("FETCH_READABILITY_FALLBACK", cfg.FetchReadabilityFallback)
	cfg.DocstoreBackend = strings.ToLower(strings.TrimSpace(getEnv("DOCSTORE_BACKEND", cfg.DocstoreBackend)))
	cfg.GoogleCredentialsFile = getEnv("GOOGLE_CREDENTIALS_FILE", cfg.GoogleCredentialsFile)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.DocstoreS3Bucket = getEnv("DOCSTORE_S3_BUCKET", cfg.DocstoreS3Bucket)
	cfg.DocstoreS3Prefix = getEnv("DOCSTORE_S3_PREFIX", cfg.DocstoreS3Prefix)
	cfg.DocstoreS3Endpoint = getEnv("DOCSTORE_S3_ENDPOINT", cfg.DocstoreS3Endpoint)
}

func existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return parsed
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
