package categorize

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

func rule(id string, owner core.Owner, keyword, category string, created time.Time) core.Rule {
	return core.Rule{ID: id, Owner: owner, Keyword: keyword, CategoryID: category, CreatedAt: created}
}

func TestMatch(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rules := []core.Rule{
		rule("r1", core.Global(), "Uber", "transport", base),
		rule("r2", core.Global(), "uber eats", "food", base.Add(time.Minute)),
		rule("r3", core.Global(), "coffee", "cafe", base.Add(2*time.Minute)),
	}

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"first in order wins", SearchText("UBER EATS", "Order #12"), "r1", true},
		{"case insensitive keyword", SearchText("", "morning COFFEE"), "r3", true},
		{"no match", SearchText("Hydro One", "bill"), "", false},
		{"empty text", SearchText("", ""), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Match(rules, tt.text)
			if ok != tt.ok || got.ID != tt.want {
				t.Errorf("Match(%q) = %q, %v; want %q, %v", tt.text, got.ID, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMatchBlankKeywordMatchesEverything(t *testing.T) {
	rules := []core.Rule{rule("blank", core.Global(), "", "misc", time.Now())}
	for _, text := range []string{"", " ", "anything at all"} {
		if got, ok := Match(rules, text); !ok || got.ID != "blank" {
			t.Errorf("Match(%q) = %q, %v; want blank rule", text, got.ID, ok)
		}
	}
}

func seededEngine(t *testing.T, rules ...core.Rule) *Engine {
	t.Helper()
	s := memory.New()
	for _, r := range rules {
		if err := s.CreateRule(context.Background(), r); err != nil {
			t.Fatalf("CreateRule: %v", err)
		}
	}
	return NewEngine(s, applog.Discard())
}

func TestResolveCategory(t *testing.T) {
	user := "11111111-1111-4111-8111-111111111111"
	other := "22222222-2222-4222-8222-222222222222"
	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	e := seededEngine(t,
		rule("u1", core.OwnedBy(user), "uber", storage.CategoryMisc, created),
		rule("o1", core.OwnedBy(other), "hydro", storage.CategoryRent, created),
	)

	tests := []struct {
		name                  string
		merchant, description string
		userID                string
		wantCategory          string
		wantOK                bool
	}{
		{"user rule beats global", "Uber", "Trip downtown", user, storage.CategoryMisc, true},
		{"global fallback for other users", "Uber", "Trip downtown", other, storage.CategoryTransport, true},
		{"global rule matches description", "", "Weekly GROCERY run", user, storage.CategoryGroceries, true},
		{"other user's rules are invisible", "Toronto Hydro", "", user, storage.CategoryBills, true},
		{"own rule beats global hydro", "Toronto Hydro", "", other, storage.CategoryRent, true},
		{"no match", "Corner Store", "snacks", user, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := e.ResolveCategory(context.Background(), tt.merchant, tt.description, tt.userID)
			if err != nil {
				t.Fatalf("ResolveCategory: %v", err)
			}
			if got != tt.wantCategory || ok != tt.wantOK {
				t.Errorf("ResolveCategory = %q, %v; want %q, %v", got, ok, tt.wantCategory, tt.wantOK)
			}
		})
	}
}

func TestResolveCategoryRuleOrderTieBreak(t *testing.T) {
	user := "11111111-1111-4111-8111-111111111111"
	same := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	e := seededEngine(t,
		rule("b-rule", core.OwnedBy(user), "shop", storage.CategoryMisc, same),
		rule("a-rule", core.OwnedBy(user), "shop", storage.CategoryShopping, same),
	)
	got, ok, err := e.ResolveCategory(context.Background(), "Shop", "", user)
	if err != nil || !ok {
		t.Fatalf("ResolveCategory = %q, %v, %v", got, ok, err)
	}
	if got != storage.CategoryShopping {
		t.Errorf("tie broken to %q, want the rule with the smaller id", got)
	}
}

type failingRules struct{}

func (failingRules) ListRules(context.Context, core.Owner) ([]core.Rule, error) {
	return nil, errors.New("db down")
}

func TestResolveCategoryPropagatesReadErrors(t *testing.T) {
	e := NewEngine(failingRules{}, applog.Discard())
	if _, _, err := e.ResolveCategory(context.Background(), "x", "y", "u"); err == nil {
		t.Fatal("expected error")
	}
}
