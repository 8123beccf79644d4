package services

import (
	"context"

	"github.com/ashmitsharp/moneybook-api/internal/models"
)

type defaultCategory struct {
	name     string
	icon     string
	color    string
	children []string
}

var defaultExpenseCategories = []defaultCategory{
	{"Personal", "user", "#6366f1", []string{"Uber/Ola", "Subscription", "Grooming", "Misc"}},
	{"Food & Dining", "utensils", "#f59e0b", []string{"Restaurants", "Groceries", "Zomato/Swiggy"}},
	{"Transport", "car", "#3b82f6", nil},
	{"Utilities", "zap", "#10b981", []string{"Electricity", "Internet", "Water", "Gas", "Mobile Recharge"}},
	{"Shopping", "shopping-bag", "#ec4899", nil},
	{"Entertainment", "film", "#8b5cf6", nil},
	{"Health", "heart", "#ef4444", nil},
	{"Education", "book", "#14b8a6", nil},
	{"Rent", "home", "#f97316", nil},
	{"Interest Paid", "percent", "#dc2626", nil},
	{"Other Expense", "more-horizontal", "#6b7280", nil},
}

var defaultIncomeCategories = []defaultCategory{
	{"Salary", "briefcase", "#22c55e", nil},
	{"Interest Received", "percent", "#10b981", nil},
	{"Investment Returns", "trending-up", "#06b6d4", nil},
	{"Other Income", "more-horizontal", "#84cc16", nil},
}

// SeedDefaults creates the default category tree and a Cash account. Entries
// that already exist (matched by name, type and parent) are left alone, so
// running it twice changes nothing.
func SeedDefaults(ctx context.Context, categories *CategoryService, ledger *Ledger) error {
	existing, err := categories.ListCategories(ctx, "")
	if err != nil {
		return err
	}

	find := func(name string, t models.CategoryType, parentID string) (models.Category, bool) {
		for _, c := range existing {
			if c.Name == name && c.Type == t && c.ParentID == parentID {
				return c, true
			}
		}
		return models.Category{}, false
	}
	ensure := func(in models.CategoryInput) (models.Category, error) {
		if c, ok := find(in.Name, in.Type, in.ParentID); ok {
			return c, nil
		}
		c, err := categories.CreateCategory(ctx, in)
		if err != nil {
			return models.Category{}, err
		}
		existing = append(existing, c)
		return c, nil
	}

	seed := func(t models.CategoryType, defs []defaultCategory) error {
		for _, def := range defs {
			parent, err := ensure(models.CategoryInput{Name: def.name, Type: t, Icon: def.icon, Color: def.color})
			if err != nil {
				return err
			}
			for _, child := range def.children {
				if _, err := ensure(models.CategoryInput{Name: child, Type: t, ParentID: parent.ID}); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := seed(models.CategoryExpense, defaultExpenseCategories); err != nil {
		return err
	}
	if err := seed(models.CategoryIncome, defaultIncomeCategories); err != nil {
		return err
	}

	cash, err := ledger.ListAccounts(ctx, models.AccountCash)
	if err != nil {
		return err
	}
	for _, a := range cash {
		if a.Name == "Cash" {
			return nil
		}
	}
	_, err = ledger.CreateAccount(ctx, models.AccountInput{
		Name:        "Cash",
		AccountType: models.AccountCash,
		Description: "Cash in hand",
	})
	return err
}
