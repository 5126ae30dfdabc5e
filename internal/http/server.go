// Package http serves the JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/dashboard"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the use cases the API exposes.
type Services struct {
	Accounts      *services.AccountService
	Categories    *services.CategoryService
	Rules         *services.RuleService
	Transactions  *services.TransactionService
	Budgets       *services.BudgetService
	Goals         *services.GoalService
	Notifications *services.NotificationService
	Dashboard     *dashboard.Engine
	Reports       *report.Generator
}

type Config struct {
	Addr               string
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	svc     Services
	store   Pinger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	logger  *applog.Logger
	started time.Time
	now     func() time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, store Pinger, svc Services, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.Default()
	}
	s := &Server{
		svc:     svc,
		store:   store,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		tracer:  trace.NewMiddleware(extractClientIP, logger),
		logger:  logger.WithComponent(applog.ComponentHTTP),
		started: time.Now(),
		now:     func() time.Time { return time.Now().UTC() },
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.limiter.Middleware(rateLimitKey, s.onRateLimited)(h)
	h = applog.Middleware(logger, trace.GetRequestID)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireUser(h))
	}

	api("GET /api/dashboard/summary", s.handleSummary)

	api("GET /api/accounts", s.handleListAccounts)
	api("POST /api/accounts", s.handleCreateAccount)

	api("GET /api/categories", s.handleListCategories)
	api("POST /api/categories", s.handleCreateCategory)

	api("GET /api/rules", s.handleListRules)
	api("POST /api/rules", s.handleCreateRule)
	api("DELETE /api/rules/{id}", s.handleDeleteRule)

	api("GET /api/transactions", s.handleListTransactions)
	api("POST /api/transactions", s.handleCreateTransaction)
	api("GET /api/transactions/{id}", s.handleGetTransaction)
	api("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	api("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	api("GET /api/budgets", s.handleListBudgets)
	api("POST /api/budgets", s.handleCreateBudget)
	api("PATCH /api/budgets/{id}", s.handleUpdateBudget)
	api("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	api("GET /api/goals", s.handleListGoals)
	api("POST /api/goals", s.handleCreateGoal)
	api("PATCH /api/goals/{id}", s.handleUpdateGoal)
	api("DELETE /api/goals/{id}", s.handleDeleteGoal)

	api("GET /api/notifications", s.handleListNotifications)
	api("POST /api/notifications/read", s.handleMarkNotificationsRead)

	api("GET /api/reports/transactions", s.handleTransactionReport)
	api("GET /api/reports/monthly", s.handleMonthlyReport)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, extractClientIP(r), applog.FieldPath, r.URL.Path)
	writeFailure(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later")
}

// Shutdown stops accepting requests, drains in-flight ones and stops background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
