package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/config"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/handler"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/ledgerapi"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/llm"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/memledger"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/observability"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/port"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("ledger_backend", cfg.LedgerBackend),
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("llm_model", cfg.LLMModel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("jwt_auth", cfg.JWTSecret != ""),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, observability.ServiceName)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var ledger port.LedgerBackend
	switch cfg.LedgerBackend {
	case "memory":
		logger.Warn("using in-memory ledger, data is lost on restart")
		ledger = memledger.NewSeeded()
	default:
		logger.Info("using ledger API", zap.String("ledger_api_url", cfg.LedgerAPIURL))
		ledger = ledgerapi.NewClient(
			httpClient,
			cfg.LedgerAPIURL,
			cfg.LedgerAPIKey,
			resilience.NewCircuitBreaker("ledger-api"),
			resilienceCfg,
			metrics,
			logger,
		)
	}

	completer, err := newChatCompleter(cfg, httpClient, metrics, resilienceCfg)
	if err != nil {
		logger.Fatal("failed to create generative client", zap.Error(err))
	}

	// --- Services ---
	engine := service.NewCommandEngine(ledger, completer, cfg.LLMModel, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(engine, metrics, logger, handler.Options{
		JWTSecret:      cfg.JWTSecret,
		MaxConcurrency: cfg.MaxConcurrency,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second, // story parsing runs one LLM call plus sequential writes
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newChatCompleter(cfg *config.Config, httpClient *http.Client, metrics *observability.Metrics, rc resilience.Config) (port.ChatCompleter, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return llm.NewGeminiClient(context.Background(), llm.GeminiOptions{
			APIKey:     cfg.GeminiAPIKey,
			HTTPClient: httpClient,
			MaxTokens:  cfg.LLMMaxTokens,
			Tokens:     metrics,
		}, resilience.NewCircuitBreaker("gemini"), rc)
	case "anthropic", "":
		return llm.NewAnthropicClient(llm.AnthropicOptions{
			APIKey:     cfg.AnthropicAPIKey,
			HTTPClient: httpClient,
			MaxTokens:  cfg.LLMMaxTokens,
			Tokens:     metrics,
		}, resilience.NewCircuitBreaker("anthropic"), rc), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}
