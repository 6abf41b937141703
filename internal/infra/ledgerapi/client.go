// Package ledgerapi is the HTTP adapter for the ledger CRUD API
// (categories, accounts, incomes, expenses, budgets, parties, transactions).
// It implements port.LedgerBackend.
package ledgerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/observability"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("ledgerapi")

const serviceName = "ledger-api"

type tokenKey struct{}

// WithBearerToken attaches the end user's token to ctx. Requests made
// with that context authenticate as the user instead of the service key.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func bearerToken(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey{}).(string)
	return v
}

// Client wraps HTTP calls to the ledger API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewClient creates a ledger API client.
func NewClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		cb:         cb,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// call performs one API operation. GETs are retried with backoff; writes
// go through the breaker exactly once.
func call[T any](ctx context.Context, c *Client, op, method, path string, payload any) (*domain.Envelope[T], error) {
	ctx, span := tracer.Start(ctx, "LedgerAPI."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("ledger.path", path),
	)

	retry := method == http.MethodGet
	env, err := resilience.Call(ctx, c.cb, c.cfg, retry, func() (*domain.Envelope[T], error) {
		return doRequest[T](ctx, c, method, path, payload)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.IncrExternalError(serviceName)
		c.logger.Error("ledger api: call failed",
			zap.String("operation", op),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, &domain.ErrExternalService{Service: serviceName, Err: err}
	}

	span.SetAttributes(attribute.Bool("ledger.success", env.Success))
	if !env.Success {
		c.logger.Warn("ledger api: operation rejected",
			zap.String("operation", op),
			zap.String("message", env.Message),
			zap.String("error", env.Error),
		)
	}
	return env, nil
}

// doRequest executes one authenticated request and decodes the envelope.
// A non-2xx status is folded into a Success=false envelope.
func doRequest[T any](ctx context.Context, c *Client, method, path string, payload any) (*domain.Envelope[T], error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s body: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := bearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var env domain.Envelope[T]
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(raw) == 0 || json.Unmarshal(raw, &env) != nil {
			env = domain.Envelope[T]{Error: strings.TrimSpace(string(raw))}
		}
		env.Success = false
		if env.Message == "" {
			env.Message = fmt.Sprintf("ledger API returned status %d", resp.StatusCode)
		}
		c.logger.Debug("ledger api: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return &env, nil
	}

	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}

	c.logger.Debug("ledger api: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return &env, nil
}
