package storage

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Ids of the global categories seeded by migration 000002.
const (
	CategoryGroceries     = "00000000-0000-4000-8000-000000000001"
	CategoryTransport     = "00000000-0000-4000-8000-000000000002"
	CategoryBills         = "00000000-0000-4000-8000-000000000003"
	CategoryShopping      = "00000000-0000-4000-8000-000000000004"
	CategoryEntertainment = "00000000-0000-4000-8000-000000000005"
	CategoryRent          = "00000000-0000-4000-8000-000000000006"
	CategorySalary        = "00000000-0000-4000-8000-000000000007"
	CategoryMisc          = "00000000-0000-4000-8000-000000000008"
)

// DefaultCategories mirrors the seed migration so non-SQL stores start from the same taxonomy.
func DefaultCategories() []core.Category {
	mk := func(id, name string, t core.CategoryType) core.Category {
		return core.Category{ID: id, Owner: core.Global(), Name: name, Type: t, IsDefault: true}
	}
	return []core.Category{
		mk(CategoryGroceries, "Groceries", core.Expense),
		mk(CategoryTransport, "Transport", core.Expense),
		mk(CategoryBills, "Bills", core.Expense),
		mk(CategoryShopping, "Shopping", core.Expense),
		mk(CategoryEntertainment, "Entertainment", core.Expense),
		mk(CategoryRent, "Rent", core.Expense),
		mk(CategorySalary, "Salary", core.Income),
		mk(CategoryMisc, "Misc", core.Expense),
	}
}

// DefaultRules mirrors the seeded global rules in creation order.
func DefaultRules() []core.Rule {
	seed := []struct{ keyword, category string }{
		{"loblaws", CategoryGroceries},
		{"grocery", CategoryGroceries},
		{"uber", CategoryTransport},
		{"lyft", CategoryTransport},
		{"hydro", CategoryBills},
		{"internet", CategoryBills},
		{"amazon", CategoryShopping},
		{"netflix", CategoryEntertainment},
		{"cineplex", CategoryEntertainment},
		{"landlord", CategoryRent},
		{"payroll", CategorySalary},
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rules := make([]core.Rule, 0, len(seed))
	for i, s := range seed {
		rules = append(rules, core.Rule{
			ID:         ruleID(101 + i),
			Owner:      core.Global(),
			Keyword:    s.keyword,
			CategoryID: s.category,
			CreatedAt:  base.Add(time.Duration(i+1) * time.Second),
		})
	}
	return rules
}

func ruleID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}
