// Package service holds the command engine: classification, extraction,
// entity resolution, execution, financial context and story parsing.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/observability"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/engine")

// ConfidenceThreshold is the minimum classifier confidence for the rule path.
const ConfidenceThreshold = 0.5

const (
	MsgEmptyMessage         = "Please type a message."
	MsgAssistantUnavailable = "Sorry, I couldn't reach the assistant right now. Please try again."
)

const assistantSystemPrompt = `You are a friendly personal finance assistant for a khata (ledger) app used in Nepal.
Amounts are in Nepali Rupees (Rs.). Answer briefly, in the language the user writes in.
Use only the financial data below; say so when it does not contain the answer.

Financial data (last %d days):
%s`

// CommandEngine is the entry point for one user message. It routes the
// text down the rule path, the story path or the assistant fallback.
type CommandEngine struct {
	classifier *IntentClassifier
	extractor  *FieldExtractor
	executor   *ActionExecutor
	story      *StoryExtractor
	context    *FinancialContextService
	ledger     port.LedgerBackend
	llm        port.ChatCompleter
	model      string
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewCommandEngine wires the engine's stages over the given ledger and
// generative backend.
func NewCommandEngine(
	ledger port.LedgerBackend,
	llm port.ChatCompleter,
	model string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CommandEngine {
	financialContext := NewFinancialContextService(ledger, logger)
	resolver := NewEntityResolver(ledger, logger)
	executor := NewActionExecutor(ledger, resolver, financialContext, logger)

	return &CommandEngine{
		classifier: NewIntentClassifier(nil),
		extractor:  NewFieldExtractor(),
		executor:   executor,
		story:      NewStoryExtractor(llm, model, executor, metrics, logger),
		context:    financialContext,
		ledger:     ledger,
		llm:        llm,
		model:      model,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessMessage interprets and executes one message. Failures of any
// kind come back as Success=false; it never returns an error.
func (e *CommandEngine) ProcessMessage(ctx context.Context, text string) (reply *domain.ChatReply) {
	ctx, span := tracer.Start(ctx, "CommandEngine.ProcessMessage")
	defer span.End()

	start := time.Now()
	defer func() {
		e.metrics.RecordRequestDuration("process_message", time.Since(start))
	}()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("message processing panicked", zap.Any("panic", r))
			reply = e.newReply(domain.Classification{Type: domain.IntentNone}, domain.SourceRule)
			reply.Message = MsgGenericFailure
		}
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		reply = e.newReply(domain.Classification{Type: domain.IntentNone}, domain.SourceRule)
		reply.Message = MsgEmptyMessage
		return reply
	}

	c := e.classifier.Classify(text)
	e.metrics.IncrIntent(c.Type)
	span.SetAttributes(
		attribute.String("intent", string(c.Type)),
		attribute.Float64("confidence", c.Confidence),
	)

	switch {
	case c.Type != domain.IntentNone && c.Confidence >= ConfidenceThreshold:
		reply = e.runRule(ctx, c, text)
	case IsStory(text, c):
		reply = e.runStory(ctx, c, text)
	default:
		reply = e.runAssistant(ctx, c, text)
	}

	e.metrics.IncrMessage(reply.Source)
	e.logger.Info("message processed",
		zap.String("intent", string(reply.Intent)),
		zap.Float64("confidence", reply.Confidence),
		zap.String("source", string(reply.Source)),
		zap.Bool("success", reply.Success),
		zap.Duration("elapsed", time.Since(start)),
	)
	return reply
}

// Interpret classifies and extracts without executing anything.
// Data is nil when a write intent has no amount.
func (e *CommandEngine) Interpret(text string) *domain.ParsedAction {
	c := e.classifier.Classify(text)
	return &domain.ParsedAction{
		Type:       c.Type,
		Data:       e.extractor.Extract(c.Type, text),
		Confidence: c.Confidence,
	}
}

// Rules returns the classifier's ordered dispatch table.
func (e *CommandEngine) Rules() []IntentRule {
	return e.classifier.Rules()
}

// FinancialContext builds a fresh snapshot from the ledger.
func (e *CommandEngine) FinancialContext(ctx context.Context) *domain.FinancialContext {
	return e.context.Build(ctx)
}

// CheckLedger reports whether the ledger answers. A rejected call still
// proves the backend is reachable.
func (e *CommandEngine) CheckLedger(ctx context.Context) error {
	_, err := e.ledger.ListAccounts(ctx)
	return err
}

func (e *CommandEngine) runRule(ctx context.Context, c domain.Classification, text string) *domain.ChatReply {
	reply := e.newReply(c, domain.SourceRule)

	data := e.extractor.Extract(c.Type, text)
	if data == nil {
		e.metrics.IncrAction(c.Type, false)
		reply.Message = MsgNoAmount
		return reply
	}

	res := e.executor.Execute(ctx, &domain.ParsedAction{Type: c.Type, Data: data, Confidence: c.Confidence})
	e.metrics.IncrAction(c.Type, res.Success)

	reply.Success = res.Success
	reply.Message = res.Message
	reply.Data = res.Data
	reply.RichContent = res.RichContent
	if target, ok := NavigationTarget(c.Type); ok {
		reply.Navigate = target
	}
	return reply
}

func (e *CommandEngine) runStory(ctx context.Context, c domain.Classification, text string) *domain.ChatReply {
	reply := e.newReply(c, domain.SourceStory)

	res := e.story.ParseStory(ctx, text)
	for _, o := range res.Transactions {
		e.metrics.IncrStoryItem(o.Success)
	}

	reply.Success = res.Success
	reply.Message = res.Message
	reply.Transactions = res.Transactions
	return reply
}

func (e *CommandEngine) runAssistant(ctx context.Context, c domain.Classification, text string) *domain.ChatReply {
	ctx, span := tracer.Start(ctx, "CommandEngine.runAssistant")
	defer span.End()

	reply := e.newReply(c, domain.SourceAssistant)

	fc := e.context.Build(ctx)
	grounding, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		e.logger.Error("marshal financial context", zap.Error(err))
		reply.Message = MsgGenericFailure
		return reply
	}

	answer, err := e.llm.ChatComplete(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: fmt.Sprintf(assistantSystemPrompt, fc.PeriodDays, grounding)},
		{Role: domain.RoleUser, Content: text},
	}, e.model)
	if err != nil {
		span.RecordError(err)
		e.metrics.IncrExternalError("llm")
		e.logger.Error("assistant fallback failed", zap.Error(err))
		reply.Message = MsgAssistantUnavailable
		return reply
	}

	reply.Success = true
	reply.Message = strings.TrimSpace(answer)
	return reply
}

func (e *CommandEngine) newReply(c domain.Classification, source domain.ReplySource) *domain.ChatReply {
	return &domain.ChatReply{
		ID:         uuid.NewString(),
		Intent:     c.Type,
		Confidence: c.Confidence,
		Source:     source,
		Timestamp:  e.now().UTC().Format(time.RFC3339),
	}
}
