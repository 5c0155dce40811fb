package main

import (
	"net/http"

	"go.uber.org/zap"

	"fintrax/internal/shared/config"
	"fintrax/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the handler with middleware applied.
func SetupRoutes(deps *Dependencies, cfg *config.Config, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", deps.HealthHandler.HandleHealth)

	// Savings goals
	mux.HandleFunc("/api/goals", deps.GoalHandler.HandleGoals)
	mux.HandleFunc("/api/goals/{a}", deps.GoalHandler.HandleGoal)
	mux.HandleFunc("/api/goals/{a}/{b}", deps.GoalHandler.HandleGoalAction)

	// Ledger
	mux.HandleFunc("/api/transactions", deps.TransactionHandler.HandleTransactions)
	mux.HandleFunc("/api/transactions/{id}", deps.TransactionHandler.HandleTransactionByID)
	mux.HandleFunc("/api/transactions/{owner}/{kind}", deps.TransactionHandler.HandleTransactionsByKind)
	mux.HandleFunc("/api/categories", deps.CategoryHandler.HandleCategories)
	mux.HandleFunc("/api/categories/{key}", deps.CategoryHandler.HandleCategory)

	// Reporting and assistant
	mux.HandleFunc("/api/dashboard/{owner}", deps.DashboardHandler.HandleDashboard)
	mux.HandleFunc("/api/chatbot", deps.ChatbotHandler.HandleChat)
	mux.HandleFunc("/api/events/{owner}", deps.EventsHandler.HandleEvents)

	var handler http.Handler = mux
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(cfg.Telemetry.ServiceName)(middleware.Tracing(handler))
	}
	handler = middleware.CORS(cfg.Server.AllowedHosts)(handler)
	handler = middleware.APIHeaders(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(handler)
		logger.Info("TLS security middleware enabled (HSTS)")
	}

	return handler
}
