package service_test

import (
	"testing"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/service"
)

func TestExtract_NoDigitsReturnsNil(t *testing.T) {
	e := service.NewFieldExtractor()

	texts := []string{"spent on momo", "received my salary", "paid a lot", ""}
	for _, text := range texts {
		for _, intent := range []domain.Intent{domain.IntentAddExpense, domain.IntentAddIncome, domain.IntentAddPartyTransaction} {
			if got := e.Extract(intent, text); got != nil {
				t.Errorf("Extract(%s, %q) = %+v, want nil", intent, text, got)
			}
		}
	}
}

func TestExtract_Expense(t *testing.T) {
	e := service.NewFieldExtractor()

	tests := []struct {
		text     string
		title    string
		amount   float64
		category string
	}{
		{"spent 350 on momo", "Momo", 350, service.CategoryFood},
		{"dal bhat 180", "Dal Bhat", 180, service.CategoryFood},
		{"paid 45.5 for coffee", "Coffee", 45.5, service.CategoryFood},
		{"taxi ma 600 tiryo", "Taxi", 600, service.CategoryTransport},
		{"bought shoes for 2500", "Shoes", 2500, service.CategoryShopping},
		{"netflix bill 1200", "Netflix", 1200, service.CategoryEntertainment},
		{"spent 999 somewhere", "Expense", 999, service.CategoryFood},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := e.Extract(domain.IntentAddExpense, tt.text)
			if got == nil {
				t.Fatal("expected data, got nil")
			}
			if got.Title != tt.title || got.Amount != tt.amount || got.Category != tt.category {
				t.Errorf("got {%s %v %s}, want {%s %v %s}",
					got.Title, got.Amount, got.Category, tt.title, tt.amount, tt.category)
			}
		})
	}
}

func TestExtract_Income(t *testing.T) {
	e := service.NewFieldExtractor()

	tests := []struct {
		text     string
		title    string
		category string
	}{
		{"received salary 50000", "Salary", service.CategorySalary},
		{"got bonus of 5000", "Bonus", service.CategoryBonus},
		{"earned 8000 from client work", "Freelance Work", service.CategoryFreelance},
		{"earned 100", "Income", service.CategorySalary},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := e.Extract(domain.IntentAddIncome, tt.text)
			if got == nil {
				t.Fatal("expected data, got nil")
			}
			if got.Title != tt.title || got.Category != tt.category {
				t.Errorf("got {%s %s}, want {%s %s}", got.Title, got.Category, tt.title, tt.category)
			}
		})
	}
}

func TestExtract_Party(t *testing.T) {
	e := service.NewFieldExtractor()

	tests := []struct {
		text      string
		name      string
		amount    float64
		direction domain.PartyType
	}{
		{"lent 3000 to Ram", "Ram", 3000, domain.PartyGive},
		{"borrowed 500 from Sita", "Sita", 500, domain.PartyReceive},
		{"gave 1000 to Hari Bahadur yesterday", "Hari Bahadur", 1000, domain.PartyGive},
		{"Shyam lai 700 diyeko", "Shyam", 700, domain.PartyGive},
		{"Gita bata 400 sapati liye", "Gita", 400, domain.PartyReceive},
		{"borrowed 250 from a friend", service.PlaceholderPartyName, 250, domain.PartyReceive},
		{"Lent 3000 To Ram", "Ram", 3000, domain.PartyGive},
		{"Borrowed 800 From Sita Sharma", "Sita Sharma", 800, domain.PartyReceive},
		{"lent 3000 to Ram Yesterday", "Ram", 3000, domain.PartyGive},
		{"gave 200 to Hari On Monday", "Hari", 200, domain.PartyGive},
		{"lent 100 to Today", service.PlaceholderPartyName, 100, domain.PartyGive},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := e.Extract(domain.IntentAddPartyTransaction, tt.text)
			if got == nil {
				t.Fatal("expected data, got nil")
			}
			if got.PartyName != tt.name {
				t.Errorf("party name = %q, want %q", got.PartyName, tt.name)
			}
			if got.Amount != tt.amount {
				t.Errorf("amount = %v, want %v", got.Amount, tt.amount)
			}
			if got.Direction != tt.direction {
				t.Errorf("direction = %s, want %s", got.Direction, tt.direction)
			}
			if got.Phone != service.PlaceholderPartyPhone {
				t.Errorf("phone = %q, want placeholder", got.Phone)
			}
		})
	}
}

func TestExtract_ReadIntentsAndNone(t *testing.T) {
	e := service.NewFieldExtractor()

	if got := e.Extract(domain.IntentShowBalance, "balance"); got == nil {
		t.Error("read intents should yield empty data, got nil")
	}
	if got := e.Extract(domain.IntentNone, "spent 100"); got != nil {
		t.Errorf("none should yield nil, got %+v", got)
	}
}

func TestExtractAmount_FirstNumberWins(t *testing.T) {
	got, ok := service.ExtractAmount("paid 1,500 for 2 items")
	if !ok || got != 1 {
		t.Errorf("ExtractAmount = %v, %v; want 1, true", got, ok)
	}
}
