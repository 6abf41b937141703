package service

import (
	"strings"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
)

// IntentRule is one row of the classifier's dispatch table. A message
// matches when its lower-cased text contains any of the keywords.
type IntentRule struct {
	Intent     domain.Intent `json:"intent"`
	Priority   int           `json:"priority"`
	Confidence float64       `json:"confidence"`
	Keywords   []string      `json:"keywords"`
}

// Matches reports whether lower (already lower-cased) contains one of the
// rule's keywords. Plain substring containment: "owe" also matches "power".
func (r IntentRule) Matches(lower string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IntentRules is the ordered dispatch table. Rules are evaluated top-down
// and the first match wins, so a message with both a party word and an
// expense word is always a party transaction.
var IntentRules = []IntentRule{
	{
		Intent: domain.IntentShowBalance, Priority: 1, Confidence: 0.95,
		Keywords: []string{"balance", "kati paisa", "how much money", "paisa kati", "mero paisa"},
	},
	{
		Intent: domain.IntentShowBudgetStatus, Priority: 2, Confidence: 0.95,
		Keywords: []string{"budget status", "budget left", "budget remaining", "over budget", "how much budget", "budget baki", "budget kati"},
	},
	{
		Intent: domain.IntentAddPartyTransaction, Priority: 3, Confidence: 0.9,
		Keywords: []string{"lent", "lend", "borrowed", "borrow", "gave", "udhar", "sapati", "loan", "diyeko", "rin diye", "rin liye", "owe"},
	},
	{
		Intent: domain.IntentAddExpense, Priority: 4, Confidence: 0.9,
		Keywords: []string{"spent", "paid", "bought", "purchase", "expense", "kharcha", "kharch", "tiryo", "tireko", "kinyo", "kineko", "cost", "bill"},
	},
	{
		Intent: domain.IntentAddIncome, Priority: 5, Confidence: 0.9,
		Keywords: []string{"earned", "received", "salary", "income", "bonus", "freelance", "kamaye", "kamayo", "talab"},
	},
	{
		Intent: domain.IntentViewTransactions, Priority: 6, Confidence: 0.85,
		Keywords: []string{"transactions", "transaction history", "show history", "kaarobar", "karobar"},
	},
	{
		Intent: domain.IntentViewBudget, Priority: 7, Confidence: 0.85,
		Keywords: []string{"view budget", "show budget", "my budget", "budgets"},
	},
	{
		Intent: domain.IntentViewStatistics, Priority: 8, Confidence: 0.8,
		Keywords: []string{"statistics", "stats", "chart", "graph", "report"},
	},
	{
		Intent: domain.IntentViewAccounts, Priority: 9, Confidence: 0.8,
		Keywords: []string{"accounts", "my account", "show account", "khata haru"},
	},
	{
		Intent: domain.IntentViewParties, Priority: 10, Confidence: 0.8,
		Keywords: []string{"parties", "party list", "contacts", "show party"},
	},
	{
		Intent: domain.IntentSetBudget, Priority: 11, Confidence: 0.85,
		Keywords: []string{"set budget", "create budget", "new budget", "budget set", "budget banau"},
	},
	{
		Intent: domain.IntentAnalyzeSpending, Priority: 12, Confidence: 0.85,
		Keywords: []string{"analyze", "analyse", "analysis", "spending pattern", "spending breakdown", "where does my money go", "where did my money go"},
	},
}

// IntentClassifier scores free text against the dispatch table.
type IntentClassifier struct {
	rules []IntentRule
}

// NewIntentClassifier creates a classifier over rules. A nil table uses IntentRules.
func NewIntentClassifier(rules []IntentRule) *IntentClassifier {
	if rules == nil {
		rules = IntentRules
	}
	return &IntentClassifier{rules: rules}
}

// Classify returns the first matching rule's intent and its fixed
// confidence, or {none, 0}.
func (c *IntentClassifier) Classify(text string) domain.Classification {
	lower := strings.ToLower(text)
	for _, r := range c.rules {
		if r.Matches(lower) {
			return domain.Classification{Type: r.Intent, Confidence: r.Confidence}
		}
	}
	return domain.Classification{Type: domain.IntentNone, Confidence: 0}
}

// Rules returns a copy of the table in evaluation order.
func (c *IntentClassifier) Rules() []IntentRule {
	out := make([]IntentRule, len(c.rules))
	copy(out, c.rules)
	return out
}
