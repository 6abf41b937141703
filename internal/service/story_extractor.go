package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/observability"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// StoryWordThreshold is the word count a message must exceed, with no
// intent matched, to be treated as a multi-transaction story.
const StoryWordThreshold = 10

const (
	MsgStoryUnavailable = "Sorry, I couldn't process your story right now. Please try again."
	MsgStoryUnparseable = "I couldn't understand the transactions in your story. Please try rephrasing it."
	MsgStoryEmpty       = "I couldn't find any transactions in your story."
)

const storySystemPrompt = `You extract financial transactions from a user's narrative.
Return ONLY a JSON array, no other text. Each element is an object:
{"type": "expense" | "income" | "party", "amount": number, "title": string,
 "category": string (expense/income only),
 "partyName": string (party only),
 "partyType": "give" | "receive" (party only; "give" when the user lent or gave money, "receive" when the user borrowed or received it)}
Expense categories: Food & Dining, Transportation, Shopping, Entertainment.
Income categories: Salary, Bonus, Freelance.
If there are no transactions, return [].`

// IsStory reports whether a message should go to the story extractor.
func IsStory(text string, c domain.Classification) bool {
	return c.Type == domain.IntentNone && len(strings.Fields(text)) > StoryWordThreshold
}

// StoryExtractor asks the generative backend to split a narrative into
// transactions and executes each one in order.
type StoryExtractor struct {
	llm      port.ChatCompleter
	model    string
	executor *ActionExecutor
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewStoryExtractor creates a StoryExtractor.
func NewStoryExtractor(llm port.ChatCompleter, model string, executor *ActionExecutor, metrics *observability.Metrics, logger *zap.Logger) *StoryExtractor {
	return &StoryExtractor{llm: llm, model: model, executor: executor, metrics: metrics, logger: logger}
}

// ParseStory extracts and executes the transactions in text. A missing or
// malformed array fails the whole story; after that each item succeeds or
// fails on its own and the batch always runs to the end.
func (s *StoryExtractor) ParseStory(ctx context.Context, text string) *domain.StoryResult {
	ctx, span := tracer.Start(ctx, "StoryExtractor.ParseStory")
	defer span.End()

	reply, err := s.llm.ChatComplete(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: storySystemPrompt},
		{Role: domain.RoleUser, Content: text},
	}, s.model)
	if err != nil {
		span.RecordError(err)
		s.metrics.IncrExternalError("llm")
		s.logger.Error("story extraction call failed", zap.Error(err))
		return &domain.StoryResult{Success: false, Message: MsgStoryUnavailable}
	}

	items, err := ParseStoryItems(reply)
	if err != nil {
		s.logger.Warn("story response unparseable", zap.Error(err), zap.Int("response_len", len(reply)))
		return &domain.StoryResult{Success: false, Message: MsgStoryUnparseable}
	}
	if len(items) == 0 {
		return &domain.StoryResult{Success: false, Message: MsgStoryEmpty, Transactions: []domain.StoryOutcome{}}
	}
	span.SetAttributes(attribute.Int("story.items", len(items)))

	outcomes := make([]domain.StoryOutcome, 0, len(items))
	for _, item := range items {
		outcomes = append(outcomes, s.executeItem(ctx, item))
	}
	return summarizeStory(outcomes)
}

func (s *StoryExtractor) executeItem(ctx context.Context, item domain.StoryItem) domain.StoryOutcome {
	action, err := storyAction(item)
	if err != nil {
		return domain.StoryOutcome{Item: item, Success: false, Message: err.Error()}
	}
	res := s.executor.Execute(ctx, action)
	return domain.StoryOutcome{Item: item, Success: res.Success, Message: res.Message}
}

// storyAction maps an extracted item onto the same action the rule path
// would have produced.
func storyAction(item domain.StoryItem) (*domain.ParsedAction, error) {
	if item.Amount <= 0 {
		return nil, fmt.Errorf("invalid amount for %q", item.Title)
	}

	switch strings.ToLower(item.Type) {
	case "expense":
		return &domain.ParsedAction{
			Type:       domain.IntentAddExpense,
			Confidence: 1,
			Data: &domain.ActionData{
				Title:    orDefault(item.Title, "Expense"),
				Amount:   item.Amount,
				Category: orDefault(item.Category, CategoryFood),
			},
		}, nil
	case "income":
		return &domain.ParsedAction{
			Type:       domain.IntentAddIncome,
			Confidence: 1,
			Data: &domain.ActionData{
				Title:    orDefault(item.Title, "Income"),
				Amount:   item.Amount,
				Category: orDefault(item.Category, CategorySalary),
			},
		}, nil
	case "party", "loan", "party_transaction":
		direction := domain.PartyReceive
		if item.PartyType == domain.PartyGive {
			direction = domain.PartyGive
		}
		return &domain.ParsedAction{
			Type:       domain.IntentAddPartyTransaction,
			Confidence: 1,
			Data: &domain.ActionData{
				Amount:    item.Amount,
				PartyName: orDefault(item.PartyName, PlaceholderPartyName),
				Phone:     PlaceholderPartyPhone,
				Direction: direction,
			},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported transaction type %q", item.Type)
	}
}

func summarizeStory(outcomes []domain.StoryOutcome) *domain.StoryResult {
	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Processed %d transactions: %d succeeded, %d failed", len(outcomes), succeeded, len(outcomes)-succeeded)
	for _, o := range outcomes {
		label := o.Item.Title
		if label == "" {
			label = o.Item.PartyName
		}
		if o.Success {
			fmt.Fprintf(&sb, "\n✅ %s - Rs. %s", label, formatAmount(o.Item.Amount))
		} else {
			fmt.Fprintf(&sb, "\n❌ %s - Rs. %s: %s", label, formatAmount(o.Item.Amount), o.Message)
		}
	}

	return &domain.StoryResult{
		Success:      succeeded > 0,
		Message:      sb.String(),
		Transactions: outcomes,
	}
}

// ParseStoryItems decodes the first JSON array in a model response,
// ignoring any prose around it.
func ParseStoryItems(response string) ([]domain.StoryItem, error) {
	raw, ok := ExtractJSONArray(response)
	if !ok {
		return nil, fmt.Errorf("no JSON array in response")
	}
	var items []domain.StoryItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode story items: %w", err)
	}
	return items, nil
}

// ExtractJSONArray returns the first balanced [...] substring of s.
// Brackets inside JSON strings are skipped.
func ExtractJSONArray(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
