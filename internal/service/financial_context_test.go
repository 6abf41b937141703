package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/infra/memledger"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/service"

	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) string {
	return fixedNow.AddDate(0, 0, -n).Format("2006-01-02")
}

func sampleRaw() *domain.RawFinancialData {
	return &domain.RawFinancialData{
		Categories: []domain.Category{
			{ID: "food", Name: "Food & Dining", Type: domain.CategoryExpense},
			{ID: "transport", Name: "Transportation", Type: domain.CategoryExpense},
			{ID: "shop", Name: "Shopping", Type: domain.CategoryExpense},
			{ID: "salary", Name: "Salary", Type: domain.CategoryIncome},
		},
		Expenses: []domain.ExpenseRecord{
			{Title: "Momo", Amount: 300, CategoryID: "food", Date: daysAgo(1)},
			{Title: "Pizza", Amount: 200, CategoryID: "food", Date: daysAgo(5)},
			{Title: "Taxi", Amount: 200, CategoryID: "transport", Date: daysAgo(2)},
			{Title: "Shoes", Amount: 300, CategoryID: "shop", Date: daysAgo(10)},
			{Title: "Old", Amount: 9999, CategoryID: "food", Date: daysAgo(45)},
		},
		Incomes: []domain.IncomeRecord{
			{Title: "Salary", Amount: 5000, CategoryID: "salary", Date: daysAgo(3)},
			{Title: "Old salary", Amount: 5000, CategoryID: "salary", Date: daysAgo(40)},
		},
		Budgets: []domain.Budget{
			{CategoryID: "food", Amount: 400, Period: "monthly", StartDate: daysAgo(2), EndDate: daysAgo(0)},
		},
		Accounts: []domain.Account{
			{ID: "cash", Name: "Cash", Type: "cash", Balance: 1500},
			{ID: "bank", Name: "Bank", Type: "bank", Balance: 2500.5},
		},
		Parties: []domain.Party{
			{Name: "Ram", Type: domain.PartyReceive, Balance: 3000},
			{Name: "Sita", Type: domain.PartyGive, Balance: 500},
		},
	}
}

func TestBuildFinancialContext_Totals(t *testing.T) {
	fc := service.BuildFinancialContext(sampleRaw(), fixedNow)

	if fc.PeriodDays != 30 {
		t.Errorf("expected 30-day window, got %d", fc.PeriodDays)
	}
	if fc.TotalExpenses != 1000 {
		t.Errorf("expected expenses 1000 (old record excluded), got %v", fc.TotalExpenses)
	}
	if fc.TotalIncome != 5000 {
		t.Errorf("expected income 5000, got %v", fc.TotalIncome)
	}
	if fc.NetSavings != 4000 {
		t.Errorf("expected net 4000, got %v", fc.NetSavings)
	}
	if fc.TotalBalance != 4000.5 {
		t.Errorf("expected balance 4000.5, got %v", fc.TotalBalance)
	}
	if fc.TotalReceivable != 3000 || fc.TotalPayable != 500 || fc.PartyCount != 2 {
		t.Errorf("unexpected party totals: %+v", fc)
	}
}

func TestBuildFinancialContext_BreakdownSortedAndSumsTo100(t *testing.T) {
	fc := service.BuildFinancialContext(sampleRaw(), fixedNow)

	if len(fc.CategoryBreakdown) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(fc.CategoryBreakdown))
	}

	sum := 0.0
	for i, c := range fc.CategoryBreakdown {
		sum += c.Percentage
		if i > 0 && c.Amount > fc.CategoryBreakdown[i-1].Amount {
			t.Errorf("breakdown not sorted descending at %d", i)
		}
	}
	if math.Abs(sum-100) > 0.2 {
		t.Errorf("percentages sum to %v, want 100", sum)
	}

	top := fc.CategoryBreakdown[0]
	if top.Name != "Food & Dining" || top.Amount != 500 || top.Percentage != 50 {
		t.Errorf("unexpected top category: %+v", top)
	}
}

func TestBuildFinancialContext_BudgetUsesTrailingWindow(t *testing.T) {
	fc := service.BuildFinancialContext(sampleRaw(), fixedNow)

	if len(fc.Budgets) != 1 {
		t.Fatalf("expected 1 budget, got %d", len(fc.Budgets))
	}
	b := fc.Budgets[0]
	// The 5-day-old pizza is outside the budget's own dates but inside the
	// 30-day window, so it counts.
	if b.Spent != 500 || b.Limit != 400 || b.Percentage != 125 {
		t.Errorf("unexpected budget status: %+v", b)
	}
}

func TestBuildFinancialContext_WindowFollowsLocalCalendar(t *testing.T) {
	kathmandu := time.FixedZone("NPT", 5*3600+45*60)
	now := time.Date(2026, 10, 18, 3, 0, 0, 0, kathmandu)

	raw := &domain.RawFinancialData{
		Expenses: []domain.ExpenseRecord{
			{Title: "Too old", Amount: 100, CategoryID: "food", Date: "2026-09-17"},
			{Title: "Edge", Amount: 40, CategoryID: "food", Date: "2026-09-18"},
			// 2026-09-17 in Kathmandu.
			{Title: "Late night", Amount: 7, CategoryID: "food", Date: "2026-09-17T12:00:00Z"},
			// 2026-09-18 in Kathmandu.
			{Title: "Early", Amount: 3, CategoryID: "food", Date: "2026-09-17T20:00:00Z"},
		},
	}

	fc := service.BuildFinancialContext(raw, now)
	if fc.TotalExpenses != 43 {
		t.Errorf("expected only entries from 2026-09-18 on, got total %v", fc.TotalExpenses)
	}
}

func TestBuildFinancialContext_Empty(t *testing.T) {
	fc := service.BuildFinancialContext(&domain.RawFinancialData{}, fixedNow)

	if fc.TotalIncome != 0 || fc.TotalExpenses != 0 || fc.TotalBalance != 0 {
		t.Errorf("expected zero totals, got %+v", fc)
	}
	if fc.CategoryBreakdown == nil || fc.Budgets == nil || fc.Accounts == nil || fc.RecentTransactions == nil {
		t.Error("expected empty slices, not nil")
	}
}

func TestBuildFinancialContext_RecentNewestFirst(t *testing.T) {
	fc := service.BuildFinancialContext(sampleRaw(), fixedNow)

	if len(fc.RecentTransactions) != 5 {
		t.Fatalf("expected 5 recent entries, got %d", len(fc.RecentTransactions))
	}
	if fc.RecentTransactions[0].Title != "Momo" {
		t.Errorf("expected newest entry first, got %s", fc.RecentTransactions[0].Title)
	}
}

func TestFinancialContextService_DegradesOnFailedSources(t *testing.T) {
	store := memledger.NewSeeded()
	store.AddExpense(domain.ExpenseRecord{Title: "Momo", Amount: 350, Date: time.Now().Format("2006-01-02")})
	store.Fail("ListIncomes", errors.New("timeout"))
	store.Reject("ListBudgets", "budgets unavailable")

	svc := service.NewFinancialContextService(store, zap.NewNop())
	fc := svc.Build(context.Background())

	if fc.TotalExpenses != 350 {
		t.Errorf("expected expenses 350, got %v", fc.TotalExpenses)
	}
	if fc.TotalIncome != 0 || len(fc.Budgets) != 0 {
		t.Errorf("failed sources should be empty: %+v", fc)
	}
	if len(fc.Accounts) != 1 {
		t.Errorf("expected the seeded account, got %d", len(fc.Accounts))
	}
	for _, op := range []string{"ListIncomes", "ListExpenses", "ListBudgets", "ListCategories", "ListAccounts", "ListParties"} {
		if store.Calls(op) != 1 {
			t.Errorf("expected one %s call, got %d", op, store.Calls(op))
		}
	}
}

func TestFinancialContextService_CancelledContextYieldsEmptyLists(t *testing.T) {
	store := memledger.NewSeeded()
	store.AddExpense(domain.ExpenseRecord{Title: "Momo", Amount: 350, Date: time.Now().Format("2006-01-02")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	raw := service.NewFinancialContextService(store, zap.NewNop()).Gather(ctx)
	if raw.Incomes == nil || raw.Expenses == nil || raw.Budgets == nil ||
		raw.Categories == nil || raw.Accounts == nil || raw.Parties == nil {
		t.Fatalf("expected empty lists, not nil: %+v", raw)
	}
	if len(raw.Expenses) != 0 || len(raw.Accounts) != 0 {
		t.Errorf("expected nothing fetched after cancellation, got %+v", raw)
	}
}
