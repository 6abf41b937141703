package service

import (
	"context"
	"strings"
	"time"

	"github.com/boddenberg/khata-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/khata-assistant-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const defaultCategoryIcon = "pricetag"

var categoryIcons = map[string]string{
	CategoryFood:          "restaurant",
	CategoryTransport:     "car",
	CategoryShopping:      "cart",
	CategoryEntertainment: "film",
	CategorySalary:        "cash",
	CategoryBonus:         "gift",
	CategoryFreelance:     "briefcase",
}

// CategoryIcon returns the icon for a category name, or the default icon
// when the name is not in the lookup table.
func CategoryIcon(name string) string {
	if icon, ok := categoryIcons[name]; ok {
		return icon
	}
	return defaultCategoryIcon
}

// ResolveDefaultAccount is the account policy for every write: the first
// account the ledger lists. It reports false when there are none.
func ResolveDefaultAccount(accounts []domain.Account) (*domain.Account, bool) {
	if len(accounts) == 0 {
		return nil, false
	}
	a := accounts[0]
	return &a, true
}

// EntityResolver maps extracted names to persisted ledger entities,
// creating them when absent. Nothing is cached between calls.
type EntityResolver struct {
	ledger port.LedgerBackend
	logger *zap.Logger
}

// NewEntityResolver creates an EntityResolver.
func NewEntityResolver(ledger port.LedgerBackend, logger *zap.Logger) *EntityResolver {
	return &EntityResolver{ledger: ledger, logger: logger}
}

// ResolveCategory returns the first category of categoryType whose name
// contains name (case-insensitive), creating one named name otherwise.
func (r *EntityResolver) ResolveCategory(ctx context.Context, name string, categoryType domain.CategoryType) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "EntityResolver.ResolveCategory")
	defer span.End()
	span.SetAttributes(attribute.String("category.name", name), attribute.String("category.type", string(categoryType)))

	if strings.TrimSpace(name) == "" {
		return nil, &domain.ErrValidation{Field: "category", Message: "category name is required"}
	}

	list, err := r.ledger.ListCategories(ctx, categoryType)
	if err != nil {
		return nil, err
	}
	if !list.Success {
		return nil, &domain.ErrBackend{Operation: "listCategories", Message: list.Failure()}
	}

	needle := strings.ToLower(name)
	for _, c := range list.Data {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			cat := c
			return &cat, nil
		}
	}

	created, err := r.ledger.CreateCategory(ctx, &domain.CreateCategoryRequest{
		Name: name,
		Icon: CategoryIcon(name),
		Type: categoryType,
	})
	if err != nil {
		return nil, err
	}
	if !created.Success || created.Data == nil {
		return nil, &domain.ErrBackend{Operation: "createCategory", Message: created.Failure()}
	}

	r.logger.Info("category created",
		zap.String("category_id", created.Data.ID),
		zap.String("name", name),
		zap.String("type", string(categoryType)),
	)
	return created.Data, nil
}

// ResolveAccount returns the default account, or *domain.ErrNoAccount.
func (r *EntityResolver) ResolveAccount(ctx context.Context) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "EntityResolver.ResolveAccount")
	defer span.End()

	list, err := r.ledger.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if !list.Success {
		return nil, &domain.ErrBackend{Operation: "listAccounts", Message: list.Failure()}
	}

	account, ok := ResolveDefaultAccount(list.Data)
	if !ok {
		return nil, &domain.ErrNoAccount{}
	}
	return account, nil
}

// ResolveParty returns the party whose name equals name (case-insensitive),
// creating one with a zero balance otherwise.
func (r *EntityResolver) ResolveParty(ctx context.Context, name, phone string, partyType domain.PartyType) (*domain.Party, error) {
	ctx, span := tracer.Start(ctx, "EntityResolver.ResolveParty")
	defer span.End()
	span.SetAttributes(attribute.String("party.name", name))

	list, err := r.ledger.ListParties(ctx)
	if err != nil {
		return nil, err
	}
	if !list.Success {
		return nil, &domain.ErrBackend{Operation: "listParties", Message: list.Failure()}
	}

	for _, p := range list.Data {
		if strings.EqualFold(p.Name, name) {
			party := p
			return &party, nil
		}
	}

	created, err := r.ledger.CreateParty(ctx, &domain.CreatePartyRequest{
		Name:           name,
		Phone:          phone,
		Type:           partyType,
		Balance:        0,
		OpeningBalance: 0,
		AsOfDate:       time.Now().Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}
	if !created.Success || created.Data == nil {
		return nil, &domain.ErrBackend{Operation: "createParty", Message: created.Failure()}
	}

	r.logger.Info("party created",
		zap.String("party_id", created.Data.ID),
		zap.String("name", name),
		zap.String("type", string(partyType)),
	)
	return created.Data, nil
}
