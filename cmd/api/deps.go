package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"fintrax/internal/domain/assistant"
	"fintrax/internal/domain/category"
	"fintrax/internal/domain/dashboard"
	"fintrax/internal/domain/events"
	"fintrax/internal/domain/goal"
	"fintrax/internal/domain/transaction"
	"fintrax/internal/infrastructure/amqp"
	"fintrax/internal/infrastructure/llm"
	"fintrax/internal/infrastructure/postgres"
	"fintrax/internal/infrastructure/postgres/listener"
	httphandlers "fintrax/internal/interfaces/http"
	"fintrax/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB       *postgres.DB
	Hub      *events.Hub
	Broker   *amqp.Publisher
	Listener *listener.LedgerListener

	// Handlers
	HealthHandler      *httphandlers.HealthHandler
	GoalHandler        *httphandlers.GoalHandler
	TransactionHandler *httphandlers.TransactionHandler
	CategoryHandler    *httphandlers.CategoryHandler
	DashboardHandler   *httphandlers.DashboardHandler
	ChatbotHandler     *httphandlers.ChatbotHandler
	EventsHandler      *httphandlers.EventsHandler
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	connStr := cfg.Database.ConnectionString()

	if cfg.Database.MigrateOnStart {
		if err := postgres.RunMigrations(connStr); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}

	db, err := postgres.New(connStr, postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.DBName))

	deps := &Dependencies{DB: db, Hub: events.NewHub()}

	// Events committed by any instance come back through LISTEN and reach
	// this instance's SSE subscribers and, when configured, the broker.
	sink := events.Fanout{deps.Hub}
	if cfg.AMQP.Enabled() {
		broker, err := amqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		deps.Broker = broker
		sink = append(sink, broker)
		logger.Info("forwarding ledger events to broker", zap.String("exchange", cfg.AMQP.Exchange))
	}
	deps.Listener = listener.NewLedgerListener(connStr, sink, logger)
	deps.Listener.Start(ctx)

	// Repositories
	transactionRepo := postgres.NewTransactionRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	goalRepo := postgres.NewGoalRepository(db)
	dashboardRepo := postgres.NewDashboardRepository(db)
	ledger := postgres.NewLedger(db)
	notifier := postgres.NewNotifier(db, logger)

	// Domain services
	transactionService := transaction.NewService(transactionRepo, notifier)
	categoryService := category.NewService(categoryRepo, notifier)
	goalService := goal.NewService(goalRepo, ledger, notifier)
	dashboardService := dashboard.NewService(dashboardRepo)

	var chat httphandlers.Assistant
	if cfg.LLM.Enabled() {
		model := llm.NewClient(llm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		})
		chat = assistant.NewService(model, transactionService, categoryService, goalService, dashboardService)
		logger.Info("chatbot enabled", zap.String("model", cfg.LLM.Model))
	} else {
		logger.Info("chatbot disabled: no LLM API key configured")
	}

	// Handlers
	deps.HealthHandler = httphandlers.NewHealthHandler(db)
	deps.GoalHandler = httphandlers.NewGoalHandler(goalService, logger)
	deps.TransactionHandler = httphandlers.NewTransactionHandler(transactionService, logger)
	deps.CategoryHandler = httphandlers.NewCategoryHandler(categoryService, logger)
	deps.DashboardHandler = httphandlers.NewDashboardHandler(dashboardService, logger)
	deps.ChatbotHandler = httphandlers.NewChatbotHandler(chat, logger)
	deps.EventsHandler = httphandlers.NewEventsHandler(deps.Hub, logger)

	return deps, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() error {
	var errs []error
	if d.Listener != nil {
		d.Listener.Stop()
	}
	if d.Hub != nil {
		d.Hub.Close()
	}
	if d.Broker != nil {
		errs = append(errs, d.Broker.Close())
	}
	if d.DB != nil {
		errs = append(errs, d.DB.Close())
	}
	return errors.Join(errs...)
}
