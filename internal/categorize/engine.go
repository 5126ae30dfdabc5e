// Package categorize assigns a category to a transaction from keyword rules.
package categorize

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// RuleSource is the read side the engine needs. storage.Repository satisfies it.
type RuleSource interface {
	// ListRules returns the rules of one owner ordered by creation time, then id.
	ListRules(ctx context.Context, owner core.Owner) ([]core.Rule, error)
}

type Engine struct {
	rules  RuleSource
	logger *applog.Logger
}

func NewEngine(rules RuleSource, logger *applog.Logger) *Engine {
	if logger == nil {
		logger = applog.Default()
	}
	return &Engine{rules: rules, logger: logger.WithComponent(applog.ComponentCategorize)}
}

// WithRules returns an engine reading rules from src, such as a transaction-scoped repository.
func (e *Engine) WithRules(src RuleSource) *Engine {
	c := *e
	c.rules = src
	return &c
}

// ResolveCategory returns the category of the first matching rule. The user's rules are tried
// before global ones. ok is false when nothing matches; err is only set when rules cannot be read.
func (e *Engine) ResolveCategory(ctx context.Context, merchantName, description, userID string) (categoryID string, ok bool, err error) {
	text := SearchText(merchantName, description)

	for _, owner := range []core.Owner{core.OwnedBy(userID), core.Global()} {
		rules, err := e.rules.ListRules(ctx, owner)
		if err != nil {
			return "", false, fmt.Errorf("load %s rules: %w", owner, err)
		}
		if rule, found := Match(rules, text); found {
			e.logger.DebugContext(ctx, "Rule matched",
				applog.FieldUserID, userID,
				applog.FieldRuleID, rule.ID,
				applog.FieldCategoryID, rule.CategoryID)
			return rule.CategoryID, true, nil
		}
	}
	return "", false, nil
}

// SearchText is the lowercased "merchant description" string rules are matched against.
func SearchText(merchantName, description string) string {
	return strings.ToLower(merchantName + " " + description)
}

// Match returns the first rule, in slice order, whose lowercased keyword occurs in text.
// text must already be lowercased. An empty keyword matches any text.
func Match(rules []core.Rule, text string) (core.Rule, bool) {
	for _, r := range rules {
		if strings.Contains(text, strings.ToLower(r.Keyword)) {
			return r, true
		}
	}
	return core.Rule{}, false
}
