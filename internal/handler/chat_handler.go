package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/observability"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const maxMessageLength = 2000

// ============================================================
// POST /v1/chat
// ============================================================

func chatHandler(engine *service.CommandEngine, bulkhead *resilience.Bulkhead, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat")
		defer span.End()

		req, err := decodeChatRequest(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if userID := UserIDFromContext(ctx); userID != "" {
			span.SetAttributes(attribute.String("user.id", userID))
		}

		if err := bulkhead.Acquire(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "too many requests in flight")
			return
		}
		defer bulkhead.Release()

		reply := engine.ProcessMessage(ctx, req.Message)
		writeJSON(w, http.StatusOK, reply)
	}
}

// ============================================================
// POST /v1/interpret (dry run, no writes)
// ============================================================

func interpretHandler(engine *service.CommandEngine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeChatRequest(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, engine.Interpret(req.Message))
	}
}

// ============================================================
// GET /v1/intents
// ============================================================

func intentsHandler(engine *service.CommandEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"threshold": service.ConfidenceThreshold,
			"rules":     engine.Rules(),
		})
	}
}

// ============================================================
// GET /v1/context
// ============================================================

func contextHandler(engine *service.CommandEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/context")
		defer span.End()

		writeJSON(w, http.StatusOK, engine.FinancialContext(ctx))
	}
}

// ============================================================
// GET /v1/metrics/engine
// ============================================================

func engineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}

func decodeChatRequest(r *http.Request) (*domain.ChatRequest, error) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &domain.ErrValidation{Field: "body", Message: "invalid request body"}
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return nil, &domain.ErrValidation{Field: "message", Message: "message is required"}
	}
	if utf8.RuneCountInString(req.Message) > maxMessageLength {
		return nil, &domain.ErrValidation{Field: "message", Message: "message is too long"}
	}
	return &req, nil
}
