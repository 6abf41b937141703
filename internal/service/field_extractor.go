package service

import (
	"regexp"
	"strings"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

// Category names of the fixed taxonomy.
const (
	CategoryFood          = "Food & Dining"
	CategoryTransport     = "Transportation"
	CategoryShopping      = "Shopping"
	CategoryEntertainment = "Entertainment"
	CategorySalary        = "Salary"
	CategoryBonus         = "Bonus"
	CategoryFreelance     = "Freelance"
)

// Placeholders for a party whose name could not be extracted.
const (
	PlaceholderPartyName  = "Friend"
	PlaceholderPartyPhone = "0000000000"
)

var (
	amountPattern = regexp.MustCompile(`\d+(\.\d+)?`)
	// "to Ram", "From Sita Sharma"; the name must be capitalised.
	partyNamePattern = regexp.MustCompile(`\b(?i:to|from)\s+([A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)*)`)
	// "Ram lai", "Sita bata"
	partyPostpositionPattern = regexp.MustCompile(`(?i)(\w+)\s+(?:lai|bata)\b`)
)

// keywordCategory maps a keyword hit to a category and an item title.
// An empty title means the category's generic title.
type keywordCategory struct {
	keyword  string
	category string
	title    string
}

// expenseKeywords is scanned in order; the first hit decides.
var expenseKeywords = []keywordCategory{
	{"momo", CategoryFood, "Momo"},
	{"pizza", CategoryFood, "Pizza"},
	{"dal bhat", CategoryFood, "Dal Bhat"},
	{"burger", CategoryFood, "Burger"},
	{"coffee", CategoryFood, "Coffee"},
	{"chiya", CategoryFood, "Tea"},
	{"tea", CategoryFood, "Tea"},
	{"breakfast", CategoryFood, "Breakfast"},
	{"lunch", CategoryFood, "Lunch"},
	{"dinner", CategoryFood, "Dinner"},
	{"khana", CategoryFood, "Khana"},
	{"restaurant", CategoryFood, "Restaurant"},
	{"groceries", CategoryFood, "Groceries"},
	{"taxi", CategoryTransport, "Taxi"},
	{"bus", CategoryTransport, "Bus"},
	{"petrol", CategoryTransport, "Petrol"},
	{"fuel", CategoryTransport, "Fuel"},
	{"uber", CategoryTransport, "Uber"},
	{"pathao", CategoryTransport, "Pathao"},
	{"bike", CategoryTransport, "Bike"},
	{"clothes", CategoryShopping, "Clothes"},
	{"kapada", CategoryShopping, "Clothes"},
	{"shoes", CategoryShopping, "Shoes"},
	{"jutta", CategoryShopping, "Shoes"},
	{"phone", CategoryShopping, "Phone"},
	{"shopping", CategoryShopping, "Shopping"},
	{"movie", CategoryEntertainment, "Movie"},
	{"netflix", CategoryEntertainment, "Netflix"},
	{"concert", CategoryEntertainment, "Concert"},
	{"game", CategoryEntertainment, "Game"},
}

var incomeKeywords = []keywordCategory{
	{"salary", CategorySalary, "Salary"},
	{"talab", CategorySalary, "Salary"},
	{"bonus", CategoryBonus, "Bonus"},
	{"freelance", CategoryFreelance, "Freelance Work"},
	{"project", CategoryFreelance, "Freelance Work"},
	{"client", CategoryFreelance, "Freelance Work"},
}

// nameStopWords end a capitalised name run: "to Ram Yesterday" is Ram.
var nameStopWords = map[string]bool{
	"yesterday": true, "today": true, "tonight": true, "tomorrow": true,
	"last": true, "this": true, "next": true, "ago": true,
	"morning": true, "evening": true, "night": true,
	"for": true, "on": true, "at": true, "in": true, "and": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
	"hijo": true, "aaja": true, "bholi": true,
}

var giveWords = []string{"gave", "give", "lent", "lend", "diyeko", "diye", "diyo"}

// FieldExtractor pulls amount, category, counterparty and direction out
// of a classified message. It is stateless.
type FieldExtractor struct{}

// NewFieldExtractor creates a FieldExtractor.
func NewFieldExtractor() *FieldExtractor {
	return &FieldExtractor{}
}

// Extract returns the fields for intent, or nil when the intent needs an
// amount and the text has none. Read-only intents yield empty data.
func (e *FieldExtractor) Extract(intent domain.Intent, text string) *domain.ActionData {
	if intent == domain.IntentNone {
		return nil
	}
	if !intent.IsWrite() {
		return &domain.ActionData{}
	}

	amount, ok := ExtractAmount(text)
	if !ok {
		return nil
	}
	lower := strings.ToLower(text)

	switch intent {
	case domain.IntentAddExpense:
		category, title := matchCategory(lower, expenseKeywords, CategoryFood, "Expense")
		return &domain.ActionData{Title: title, Amount: amount, Category: category}
	case domain.IntentAddIncome:
		category, title := matchCategory(lower, incomeKeywords, CategorySalary, "Income")
		return &domain.ActionData{Title: title, Amount: amount, Category: category}
	default:
		return &domain.ActionData{
			Amount:    amount,
			PartyName: ExtractPartyName(text),
			Phone:     PlaceholderPartyPhone,
			Direction: extractDirection(lower),
		}
	}
}

// ExtractAmount returns the first run of digits, with an optional decimal
// part, found anywhere in text. No currency or thousands-separator handling.
func ExtractAmount(text string) (float64, bool) {
	m := amountPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// ExtractPartyName finds the counterparty in "to/from Name" or
// "name lai/bata" form, falling back to PlaceholderPartyName.
func ExtractPartyName(text string) string {
	if m := partyNamePattern.FindStringSubmatch(text); m != nil {
		if name := trimNameRun(m[1]); name != "" {
			return name
		}
	}
	if m := partyPostpositionPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return PlaceholderPartyName
}

func trimNameRun(run string) string {
	words := strings.Fields(run)
	for i, w := range words {
		if nameStopWords[strings.ToLower(w)] {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}

func extractDirection(lower string) domain.PartyType {
	for _, w := range giveWords {
		if strings.Contains(lower, w) {
			return domain.PartyGive
		}
	}
	return domain.PartyReceive
}

func matchCategory(lower string, table []keywordCategory, defaultCategory, defaultTitle string) (category, title string) {
	for _, k := range table {
		if strings.Contains(lower, k.keyword) {
			return k.category, k.title
		}
	}
	return defaultCategory, defaultTitle
}
