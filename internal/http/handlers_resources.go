package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.svc.Accounts.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSlice(accounts, toAccount))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string          `json:"name"`
		Type           string          `json:"type"`
		CurrentBalance decimal.Decimal `json:"currentBalance"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.svc.Accounts.Create(r.Context(), userID(r), req.Name, core.AccountType(strings.ToUpper(req.Type)), req.CurrentBalance)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toAccount(a))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.svc.Categories.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSlice(categories, toCategory))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.Categories.Create(r.Context(), userID(r), req.Name, core.CategoryType(strings.ToUpper(req.Type)))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toCategory(c))
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.svc.Rules.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSlice(rules, toRule))
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keyword    string `json:"keyword"`
		CategoryID string `json:"categoryId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rule, err := s.svc.Rules.Create(r.Context(), userID(r), req.Keyword, req.CategoryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toRule(rule))
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Rules.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), userID(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSlice(txs, toTransaction))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID    *string         `json:"accountId"`
		CategoryID   *string         `json:"categoryId"`
		Type         string          `json:"type"`
		Amount       decimal.Decimal `json:"amount"`
		Description  string          `json:"description"`
		MerchantName string          `json:"merchantName"`
		Date         *Date           `json:"date"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := services.NewTransaction{
		AccountID:    req.AccountID,
		CategoryID:   req.CategoryID,
		Type:         core.TransactionType(strings.ToUpper(req.Type)),
		Amount:       req.Amount,
		Description:  strings.TrimSpace(req.Description),
		MerchantName: strings.TrimSpace(req.MerchantName),
	}
	if req.Date != nil {
		in.Date = req.Date.Time
	}
	t, err := s.svc.Transactions.Create(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toTransaction(t))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Transactions.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toTransaction(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryID   *string `json:"categoryId"`
		Description  *string `json:"description"`
		MerchantName *string `json:"merchantName"`
		Date         *Date   `json:"date"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch := core.TransactionPatch{CategoryID: req.CategoryID, Description: req.Description, MerchantName: req.MerchantName}
	if req.Date != nil {
		patch.Date = &req.Date.Time
	}
	t, err := s.svc.Transactions.Update(r.Context(), userID(r), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toTransaction(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Transactions.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.svc.Budgets.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSlice(budgets, toBudget))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryID   string          `json:"categoryId"`
		MonthlyLimit decimal.Decimal `json:"monthlyLimit"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.svc.Budgets.Create(r.Context(), userID(r), req.CategoryID, req.MonthlyLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toBudget(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MonthlyLimit *decimal.Decimal `json:"monthlyLimit"`
		IsActive     *bool            `json:"isActive"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.svc.Budgets.Update(r.Context(), userID(r), r.PathValue("id"), core.BudgetPatch{MonthlyLimit: req.MonthlyLimit, IsActive: req.IsActive})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toBudget(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Budgets.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.Goals.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSlice(goals, func(g core.GoalProgress) goalDTO {
		dto := toGoal(g.Goal)
		dto.ProgressPercent = money(g.ProgressPercent)
		return dto
	}))
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		TargetDate    *Date           `json:"targetDate"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := services.NewGoal{Name: req.Name, TargetAmount: req.TargetAmount, CurrentAmount: req.CurrentAmount}
	if req.TargetDate != nil {
		in.TargetDate = &req.TargetDate.Time
	}
	g, err := s.svc.Goals.Create(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toGoal(g))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          *string          `json:"name"`
		TargetAmount  *decimal.Decimal `json:"targetAmount"`
		CurrentAmount *decimal.Decimal `json:"currentAmount"`
		TargetDate    *Date            `json:"targetDate"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch := core.GoalPatch{Name: req.Name, TargetAmount: req.TargetAmount, CurrentAmount: req.CurrentAmount}
	if req.TargetDate != nil {
		patch.TargetDate = &req.TargetDate.Time
	}
	g, err := s.svc.Goals.Update(r.Context(), userID(r), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toGoal(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Goals.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unreadOnly") == "true"
	list, err := s.svc.Notifications.List(r.Context(), userID(r), unreadOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSlice(list, toNotification))
}

func (s *Server) handleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.IDs) == 0 {
		badRequest(w, "ids must not be empty")
		return
	}
	n, err := s.svc.Notifications.MarkRead(r.Context(), userID(r), req.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"updated": n})
}
