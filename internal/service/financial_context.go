package service

import (
	"context"
	"sort"
	"time"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/port"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// ContextWindowDays is the trailing window for income, expense and
	// budget-spent figures. Budgets' own start/end dates are not used.
	ContextWindowDays = 30

	recentEntryLimit = 10
	uncategorized    = "Uncategorized"
)

var hundred = decimal.NewFromInt(100)

// BuildFinancialContext aggregates already-fetched lists into a snapshot
// as of now. It is pure; empty lists give zero totals.
func BuildFinancialContext(raw *domain.RawFinancialData, now time.Time) *domain.FinancialContext {
	if raw == nil {
		raw = &domain.RawFinancialData{}
	}
	cutoff := calendarDay(now.AddDate(0, 0, -ContextWindowDays), now.Location())

	names := make(map[string]string, len(raw.Categories))
	for _, c := range raw.Categories {
		names[c.ID] = c.Name
	}
	categoryName := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return uncategorized
	}

	fc := &domain.FinancialContext{
		PeriodDays:         ContextWindowDays,
		GeneratedAt:        now.UTC().Format(time.RFC3339),
		Accounts:           make([]domain.AccountSummary, 0, len(raw.Accounts)),
		CategoryBreakdown:  []domain.CategorySpend{},
		Budgets:            make([]domain.BudgetStatus, 0, len(raw.Budgets)),
		RecentTransactions: []domain.RecentEntry{},
		PartyCount:         len(raw.Parties),
	}

	totalIncome := decimal.Zero
	var recent []domain.RecentEntry
	for _, in := range raw.Incomes {
		if !inWindow(in.Date, cutoff, now.Location()) {
			continue
		}
		totalIncome = totalIncome.Add(decimal.NewFromFloat(in.Amount))
		recent = append(recent, domain.RecentEntry{
			Kind: "income", Title: in.Title, Amount: in.Amount,
			Category: categoryName(in.CategoryID), Date: in.Date,
		})
	}

	totalExpenses := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, ex := range raw.Expenses {
		if !inWindow(ex.Date, cutoff, now.Location()) {
			continue
		}
		amount := decimal.NewFromFloat(ex.Amount)
		totalExpenses = totalExpenses.Add(amount)
		byCategory[ex.CategoryID] = byCategory[ex.CategoryID].Add(amount)
		recent = append(recent, domain.RecentEntry{
			Kind: "expense", Title: ex.Title, Amount: ex.Amount,
			Category: categoryName(ex.CategoryID), Date: ex.Date,
		})
	}

	fc.TotalIncome = totalIncome.InexactFloat64()
	fc.TotalExpenses = totalExpenses.InexactFloat64()
	fc.NetSavings = totalIncome.Sub(totalExpenses).InexactFloat64()

	// Percentages are of total category spend in the window.
	categoryTotal := decimal.Zero
	for _, amt := range byCategory {
		categoryTotal = categoryTotal.Add(amt)
	}
	for id, amt := range byCategory {
		fc.CategoryBreakdown = append(fc.CategoryBreakdown, domain.CategorySpend{
			CategoryID: id,
			Name:       categoryName(id),
			Amount:     amt.InexactFloat64(),
			Percentage: percentage(amt, categoryTotal),
		})
	}
	sort.Slice(fc.CategoryBreakdown, func(i, j int) bool {
		a, b := fc.CategoryBreakdown[i], fc.CategoryBreakdown[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.Name < b.Name
	})

	for _, b := range raw.Budgets {
		spent := byCategory[b.CategoryID]
		limit := decimal.NewFromFloat(b.Amount)
		fc.Budgets = append(fc.Budgets, domain.BudgetStatus{
			CategoryID: b.CategoryID,
			Name:       categoryName(b.CategoryID),
			Spent:      spent.InexactFloat64(),
			Limit:      b.Amount,
			Percentage: percentage(spent, limit),
		})
	}

	totalBalance := decimal.Zero
	for _, a := range raw.Accounts {
		totalBalance = totalBalance.Add(decimal.NewFromFloat(a.Balance))
		fc.Accounts = append(fc.Accounts, domain.AccountSummary{
			ID: a.ID, Name: a.Name, Type: a.Type, Balance: a.Balance,
		})
	}
	fc.TotalBalance = totalBalance.InexactFloat64()

	receivable, payable := decimal.Zero, decimal.Zero
	for _, p := range raw.Parties {
		switch p.Type {
		case domain.PartyReceive:
			receivable = receivable.Add(decimal.NewFromFloat(p.Balance))
		case domain.PartyGive:
			payable = payable.Add(decimal.NewFromFloat(p.Balance))
		}
	}
	fc.TotalReceivable = receivable.InexactFloat64()
	fc.TotalPayable = payable.InexactFloat64()

	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date > recent[j].Date })
	if len(recent) > recentEntryLimit {
		recent = recent[:recentEntryLimit]
	}
	if recent != nil {
		fc.RecentTransactions = recent
	}

	return fc
}

// percentage returns part/whole*100 rounded to one decimal, 0 when whole is 0.
func percentage(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(hundred).Round(1).InexactFloat64()
}

// inWindow reports whether a ledger date (YYYY-MM-DD or RFC 3339) falls on
// or after the cutoff day, comparing dates on loc's calendar. Unparseable
// dates are excluded.
func inWindow(date string, cutoff time.Time, loc *time.Location) bool {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		t, err := time.Parse(time.RFC3339, date)
		if err != nil {
			return false
		}
		day = calendarDay(t, loc)
	}
	return !day.Before(cutoff)
}

// calendarDay is midnight UTC of t's date as seen in loc.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ============================================================
// Gathering
// ============================================================

// FinancialContextService fetches the raw lists from the ledger and
// builds the snapshot. It is stateless; every call refetches.
type FinancialContextService struct {
	ledger port.LedgerBackend
	logger *zap.Logger
	now    func() time.Time
}

// NewFinancialContextService creates a FinancialContextService.
func NewFinancialContextService(ledger port.LedgerBackend, logger *zap.Logger) *FinancialContextService {
	return &FinancialContextService{ledger: ledger, logger: logger, now: time.Now}
}

// Build gathers the raw lists and aggregates them.
func (s *FinancialContextService) Build(ctx context.Context) *domain.FinancialContext {
	ctx, span := tracer.Start(ctx, "FinancialContextService.Build")
	defer span.End()

	return BuildFinancialContext(s.Gather(ctx), s.now())
}

// Gather fetches every source list concurrently. A failed or rejected
// fetch is logged and leaves its list empty; it never aborts the others.
// Only cancellation of ctx stops the group, and the lists fetched so far
// are still returned.
func (s *FinancialContextService) Gather(ctx context.Context) *domain.RawFinancialData {
	ctx, span := tracer.Start(ctx, "FinancialContextService.Gather")
	defer span.End()

	raw := &domain.RawFinancialData{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, err := s.ledger.ListIncomes(gCtx)
		raw.Incomes = listOrEmpty(s, "listIncomes", res, err)
		return ctx.Err()
	})
	g.Go(func() error {
		res, err := s.ledger.ListExpenses(gCtx)
		raw.Expenses = listOrEmpty(s, "listExpenses", res, err)
		return ctx.Err()
	})
	g.Go(func() error {
		res, err := s.ledger.ListBudgets(gCtx)
		raw.Budgets = listOrEmpty(s, "listBudgets", res, err)
		return ctx.Err()
	})
	g.Go(func() error {
		res, err := s.ledger.ListCategories(gCtx, "")
		raw.Categories = listOrEmpty(s, "listCategories", res, err)
		return ctx.Err()
	})
	g.Go(func() error {
		res, err := s.ledger.ListAccounts(gCtx)
		raw.Accounts = listOrEmpty(s, "listAccounts", res, err)
		return ctx.Err()
	})
	g.Go(func() error {
		res, err := s.ledger.ListParties(gCtx)
		raw.Parties = listOrEmpty(s, "listParties", res, err)
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		s.logger.Warn("context gathering cancelled", zap.Error(err))
	}
	return raw
}

func listOrEmpty[T any](s *FinancialContextService, op string, res *domain.Envelope[[]T], err error) []T {
	if err != nil {
		s.logger.Warn("context source failed, using empty list", zap.String("operation", op), zap.Error(err))
		return []T{}
	}
	if res == nil || !res.Success {
		msg := "nil response"
		if res != nil {
			msg = res.Failure()
		}
		s.logger.Warn("context source rejected, using empty list", zap.String("operation", op), zap.String("error", msg))
		return []T{}
	}
	if res.Data == nil {
		return []T{}
	}
	return res.Data
}
