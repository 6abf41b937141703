package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Ledger backend: "http" talks to the ledger API, "memory" runs
	// against a seeded in-process ledger for local development.
	LedgerBackend string
	LedgerAPIURL  string
	LedgerAPIKey  string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Generative backend
	LLMProvider     string // anthropic | gemini
	LLMModel        string
	LLMMaxTokens    int64
	AnthropicAPIKey string
	GeminiAPIKey    string

	// Observability
	OTLPEndpoint string

	// JWT / Auth. Empty secret disables token validation on /v1 routes.
	JWTSecret string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", "anthropic"))

	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LedgerBackend: strings.ToLower(getEnv("LEDGER_BACKEND", "http")),
		LedgerAPIURL:  getEnv("LEDGER_API_URL", "http://localhost:3000/api"),
		LedgerAPIKey:  getEnv("LEDGER_API_KEY", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		LLMProvider:     provider,
		LLMModel:        getEnv("LLM_MODEL", defaultModel(provider)),
		LLMMaxTokens:    int64(getEnvInt("LLM_MAX_TOKENS", 1024)),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
	}
}

func defaultModel(provider string) string {
	if provider == "gemini" {
		return "gemini-2.0-flash"
	}
	return "claude-3-5-haiku-latest"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
