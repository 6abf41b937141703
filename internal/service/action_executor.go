package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// EntryDescription tags every income and expense the engine records.
const EntryDescription = "Added via AI chat"

// Messages returned to the user when no backend text is available.
const (
	MsgGenericFailure = "Sorry, something went wrong while processing your request. Please try again."
	MsgNoAmount       = "I couldn't find an amount in your message. Try something like \"spent 350 on momo\"."
	MsgNoAccounts     = "No accounts found. Add an account to start tracking your balance."
	MsgNoBudgets      = "No budgets set yet. Create a budget to keep your spending in check."
	MsgNoSpending     = "No income or expenses recorded in the last 30 days."
)

// navigation maps each navigation intent to the sentinel the caller
// interprets as "open this screen".
var navigation = map[domain.Intent]string{
	domain.IntentViewTransactions: "navigate_transactions",
	domain.IntentViewBudget:       "navigate_budget",
	domain.IntentViewStatistics:   "navigate_statistics",
	domain.IntentViewAccounts:     "navigate_accounts",
	domain.IntentViewParties:      "navigate_parties",
	domain.IntentSetBudget:        "navigate_set_budget",
}

// NavigationTarget returns the sentinel for a navigation intent.
func NavigationTarget(intent domain.Intent) (string, bool) {
	s, ok := navigation[intent]
	return s, ok
}

// TransactionTypeFor maps the direction of a party event to the wire-level
// transaction type: give is a debit, receive is a credit. The party's own
// stored type plays no part.
func TransactionTypeFor(direction domain.PartyType) domain.TransactionType {
	if direction == domain.PartyGive {
		return domain.TransactionDebit
	}
	return domain.TransactionCredit
}

// partyTypeFor is the running classification of a party first met in an
// event: lending to someone means they owe the user.
func partyTypeFor(direction domain.PartyType) domain.PartyType {
	if direction == domain.PartyGive {
		return domain.PartyReceive
	}
	return domain.PartyGive
}

// ActionExecutor turns a parsed action into ledger calls and a user-facing
// result. Writes are neither idempotent nor deduplicated.
type ActionExecutor struct {
	ledger   port.LedgerBackend
	resolver *EntityResolver
	context  *FinancialContextService
	logger   *zap.Logger
	now      func() time.Time
}

// NewActionExecutor creates an ActionExecutor.
func NewActionExecutor(
	ledger port.LedgerBackend,
	resolver *EntityResolver,
	financialContext *FinancialContextService,
	logger *zap.Logger,
) *ActionExecutor {
	return &ActionExecutor{
		ledger:   ledger,
		resolver: resolver,
		context:  financialContext,
		logger:   logger,
		now:      time.Now,
	}
}

// Execute runs one action. It never returns an error and never panics:
// every failure becomes Success=false with a message for the user.
func (x *ActionExecutor) Execute(ctx context.Context, action *domain.ParsedAction) (result *domain.ActionResult) {
	ctx, span := tracer.Start(ctx, "ActionExecutor.Execute")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			x.logger.Error("action execution panicked", zap.Any("panic", r))
			result = &domain.ActionResult{Success: false, Message: MsgGenericFailure}
		}
	}()

	if action == nil {
		return &domain.ActionResult{Success: false, Message: MsgGenericFailure}
	}
	span.SetAttributes(attribute.String("intent", string(action.Type)))

	if target, ok := NavigationTarget(action.Type); ok {
		return &domain.ActionResult{Success: true, Message: target}
	}

	var err error
	switch action.Type {
	case domain.IntentAddExpense, domain.IntentAddIncome:
		if action.Data == nil {
			return &domain.ActionResult{Success: false, Message: MsgNoAmount}
		}
		result, err = x.addEntry(ctx, action.Type, action.Data)
	case domain.IntentAddPartyTransaction:
		if action.Data == nil {
			return &domain.ActionResult{Success: false, Message: MsgNoAmount}
		}
		result, err = x.addPartyTransaction(ctx, action.Data)
	case domain.IntentShowBalance:
		result = x.showBalance(ctx)
	case domain.IntentShowBudgetStatus:
		result = x.showBudgetStatus(ctx)
	case domain.IntentAnalyzeSpending:
		result = x.analyzeSpending(ctx)
	default:
		return &domain.ActionResult{Success: false, Message: fmt.Sprintf("Unsupported action: %s", action.Type)}
	}

	if err != nil {
		span.RecordError(err)
		x.logger.Warn("action failed",
			zap.String("intent", string(action.Type)),
			zap.Error(err),
		)
		return &domain.ActionResult{Success: false, Message: FailureMessage(err)}
	}
	return result
}

// FailureMessage converts an execution error to user-facing text. Backend
// rejections are forwarded verbatim; transport errors get a generic message.
func FailureMessage(err error) string {
	var backendErr *domain.ErrBackend
	var noAccount *domain.ErrNoAccount
	var validationErr *domain.ErrValidation
	switch {
	case errors.As(err, &backendErr):
		return backendErr.Message
	case errors.As(err, &noAccount):
		return noAccount.Error()
	case errors.As(err, &validationErr):
		return validationErr.Message
	default:
		return MsgGenericFailure
	}
}

func (x *ActionExecutor) addEntry(ctx context.Context, intent domain.Intent, data *domain.ActionData) (*domain.ActionResult, error) {
	categoryType, kind, op := domain.CategoryExpense, "expense", "createExpense"
	if intent == domain.IntentAddIncome {
		categoryType, kind, op = domain.CategoryIncome, "income", "createIncome"
	}

	// Account first: nothing is created for a user without one.
	account, err := x.resolver.ResolveAccount(ctx)
	if err != nil {
		return nil, err
	}
	category, err := x.resolver.ResolveCategory(ctx, data.Category, categoryType)
	if err != nil {
		return nil, err
	}

	req := &domain.CreateEntryRequest{
		Title:       data.Title,
		Amount:      data.Amount,
		CategoryID:  category.ID,
		AccountID:   account.ID,
		Date:        x.today(),
		Description: EntryDescription,
	}

	var res *domain.Envelope[*domain.EntryRecord]
	if intent == domain.IntentAddIncome {
		res, err = x.ledger.CreateIncome(ctx, req)
	} else {
		res, err = x.ledger.CreateExpense(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	if !res.Success || res.Data == nil {
		return nil, &domain.ErrBackend{Operation: op, Message: res.Failure()}
	}

	x.logger.Info("entry recorded",
		zap.String("kind", kind),
		zap.String("record_id", res.Data.ID),
		zap.Float64("amount", data.Amount),
		zap.String("category", category.Name),
	)

	return &domain.ActionResult{
		Success: true,
		Message: fmt.Sprintf("✅ Added %s: %s - Rs. %s (%s)", kind, data.Title, formatAmount(data.Amount), category.Name),
		Data:    res.Data,
		RichContent: &domain.RichContent{
			Type: domain.RichTransaction,
			Data: &domain.TransactionCard{
				Kind:     intent,
				Title:    data.Title,
				Amount:   data.Amount,
				Category: category.Name,
				Account:  account.Name,
				Date:     res.Data.Date,
				Record:   res.Data,
			},
		},
	}, nil
}

func (x *ActionExecutor) addPartyTransaction(ctx context.Context, data *domain.ActionData) (*domain.ActionResult, error) {
	name := data.PartyName
	if strings.TrimSpace(name) == "" {
		name = PlaceholderPartyName
	}
	phone := data.Phone
	if phone == "" {
		phone = PlaceholderPartyPhone
	}
	direction := data.Direction
	if direction != domain.PartyGive {
		direction = domain.PartyReceive
	}

	account, err := x.resolver.ResolveAccount(ctx)
	if err != nil {
		return nil, err
	}
	party, err := x.resolver.ResolveParty(ctx, name, phone, partyTypeFor(direction))
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Received from %s", party.Name)
	if direction == domain.PartyGive {
		description = fmt.Sprintf("Given to %s", party.Name)
	}
	if data.Description != "" {
		description = data.Description
	}

	res, err := x.ledger.CreateTransaction(ctx, &domain.CreateTransactionRequest{
		PartyID:     party.ID,
		AccountID:   account.ID,
		Type:        TransactionTypeFor(direction),
		Amount:      data.Amount,
		Description: description,
		Date:        x.today(),
		Notes:       EntryDescription,
	})
	if err != nil {
		return nil, err
	}
	if !res.Success || res.Data == nil {
		return nil, &domain.ErrBackend{Operation: "createTransaction", Message: res.Failure()}
	}

	balance := party.Balance
	if refreshed, err := x.ledger.GetParty(ctx, party.ID); err != nil {
		x.logger.Warn("party refetch failed, reporting previous balance", zap.String("party_id", party.ID), zap.Error(err))
	} else if !refreshed.Success || refreshed.Data == nil {
		x.logger.Warn("party refetch rejected, reporting previous balance", zap.String("party_id", party.ID), zap.String("error", refreshed.Failure()))
	} else {
		balance = refreshed.Data.Balance
	}

	verb := "received from"
	if direction == domain.PartyGive {
		verb = "given to"
	}

	x.logger.Info("party transaction recorded",
		zap.String("party_id", party.ID),
		zap.String("transaction_id", res.Data.ID),
		zap.String("type", string(res.Data.Type)),
		zap.Float64("amount", data.Amount),
	)

	return &domain.ActionResult{
		Success: true,
		Message: fmt.Sprintf("✅ Recorded Rs. %s %s %s. Balance: Rs. %s", formatAmount(data.Amount), verb, party.Name, formatAmount(balance)),
		Data:    res.Data,
		RichContent: &domain.RichContent{
			Type: domain.RichTransaction,
			Data: &domain.TransactionCard{
				Kind:      domain.IntentAddPartyTransaction,
				Title:     description,
				Amount:    data.Amount,
				Account:   account.Name,
				Date:      res.Data.Date,
				PartyName: party.Name,
				Balance:   &balance,
				Record:    res.Data,
			},
		},
	}, nil
}

func (x *ActionExecutor) showBalance(ctx context.Context) *domain.ActionResult {
	fc := x.context.Build(ctx)
	if len(fc.Accounts) == 0 {
		return &domain.ActionResult{Success: true, Message: MsgNoAccounts}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 Total balance: Rs. %s", formatAmount(fc.TotalBalance))
	for _, a := range fc.Accounts {
		fmt.Fprintf(&sb, "\n• %s: Rs. %s", a.Name, formatAmount(a.Balance))
	}

	return &domain.ActionResult{
		Success: true,
		Message: sb.String(),
		Data:    fc.Accounts,
		RichContent: &domain.RichContent{
			Type: domain.RichBalance,
			Data: &domain.BalanceCard{TotalBalance: fc.TotalBalance, Accounts: fc.Accounts},
		},
	}
}

func (x *ActionExecutor) showBudgetStatus(ctx context.Context) *domain.ActionResult {
	fc := x.context.Build(ctx)
	if len(fc.Budgets) == 0 {
		return &domain.ActionResult{Success: true, Message: MsgNoBudgets}
	}

	var sb strings.Builder
	sb.WriteString("📊 Budget status (last 30 days):")
	for _, b := range fc.Budgets {
		marker := ""
		if b.Percentage > 100 {
			marker = " ⚠️ over budget"
		}
		fmt.Fprintf(&sb, "\n• %s: Rs. %s / Rs. %s (%s%%)%s",
			b.Name, formatAmount(b.Spent), formatAmount(b.Limit), formatAmount(b.Percentage), marker)
	}

	return &domain.ActionResult{
		Success: true,
		Message: sb.String(),
		Data:    fc.Budgets,
		RichContent: &domain.RichContent{
			Type: domain.RichBudget,
			Data: &domain.BudgetCard{Budgets: fc.Budgets},
		},
	}
}

func (x *ActionExecutor) analyzeSpending(ctx context.Context) *domain.ActionResult {
	fc := x.context.Build(ctx)
	if fc.TotalIncome == 0 && fc.TotalExpenses == 0 {
		return &domain.ActionResult{Success: true, Message: MsgNoSpending}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📈 Last %d days\nIncome: Rs. %s\nExpenses: Rs. %s\nNet savings: Rs. %s",
		fc.PeriodDays, formatAmount(fc.TotalIncome), formatAmount(fc.TotalExpenses), formatAmount(fc.NetSavings))
	if len(fc.CategoryBreakdown) > 0 {
		sb.WriteString("\n\nTop categories:")
		for i, c := range fc.CategoryBreakdown {
			if i == 5 {
				break
			}
			fmt.Fprintf(&sb, "\n• %s: Rs. %s (%s%%)", c.Name, formatAmount(c.Amount), formatAmount(c.Percentage))
		}
	}

	card := &domain.SpendingCard{
		PeriodDays:    fc.PeriodDays,
		TotalIncome:   fc.TotalIncome,
		TotalExpenses: fc.TotalExpenses,
		Breakdown:     fc.CategoryBreakdown,
	}
	return &domain.ActionResult{
		Success:     true,
		Message:     sb.String(),
		Data:        card,
		RichContent: &domain.RichContent{Type: domain.RichSpending, Data: card},
	}
}

func (x *ActionExecutor) today() string {
	return x.now().Format("2006-01-02")
}

// formatAmount renders 350 as "350" and 12.5 as "12.5".
func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
