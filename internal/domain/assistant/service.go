package assistant

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fintrax/internal/domain/category"
	"fintrax/internal/domain/dashboard"
	"fintrax/internal/domain/goal"
	"fintrax/internal/domain/transaction"
	"fintrax/internal/shared/apperr"
)

// Model is the language model the assistant consults twice per message:
// once to classify it and once to phrase the answer from gathered facts.
type Model interface {
	Classify(ctx context.Context, req Request) (*Classification, error)
	Compose(ctx context.Context, req Request, facts Facts) (string, error)
}

// Transactions is the slice of the transaction service the assistant uses.
type Transactions interface {
	Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
	Recent(ctx context.Context, filter transaction.RecentFilter) ([]*transaction.Transaction, error)
	CategoryTotal(ctx context.Context, owner string, categoryID int64) (*transaction.CategoryTotal, error)
}

// Categories resolves category names typed by the user.
type Categories interface {
	FindByName(ctx context.Context, owner, name string, kind *transaction.Kind) (*category.Category, error)
}

// Goals is the slice of the goal service the assistant uses.
type Goals interface {
	List(ctx context.Context, owner, stateFilter string) ([]goal.View, error)
	Create(ctx context.Context, params goal.CreateParams) (*goal.View, error)
}

// Totals reads all-time income and expense totals.
type Totals interface {
	Totals(ctx context.Context, owner, period string) (*dashboard.Totals, error)
}

// Service answers natural-language questions about an owner's finances.
type Service struct {
	model        Model
	transactions Transactions
	categories   Categories
	goals        Goals
	totals       Totals
}

// NewService creates a new assistant service
func NewService(model Model, transactions Transactions, categories Categories, goals Goals, totals Totals) *Service {
	return &Service{
		model:        model,
		transactions: transactions,
		categories:   categories,
		goals:        goals,
		totals:       totals,
	}
}

// Ask classifies the message, runs the matching ledger read or write, and
// has the model phrase the result.
func (s *Service) Ask(ctx context.Context, req Request) (*Reply, error) {
	req.Message = strings.TrimSpace(req.Message)
	req.Owner = strings.TrimSpace(req.Owner)
	if req.Message == "" || req.Owner == "" {
		return nil, apperr.Validation("message and owner are required")
	}

	cls, err := s.model.Classify(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: classify: %w", ErrModel, err)
	}

	intent := cls.Intent
	if intent == nil || !intent.RequiresData || intent.Action == ActionNone {
		text := strings.TrimSpace(cls.Text)
		if text == "" {
			text = fallbackNoIntent
		}
		return &Reply{Reply: text}, nil
	}

	facts, early, err := s.gather(ctx, req.Owner, intent)
	if err != nil {
		return nil, err
	}
	if early != "" {
		return &Reply{Reply: early}, nil
	}

	text, err := s.model.Compose(ctx, req, facts)
	if err != nil {
		return nil, fmt.Errorf("%w: compose: %w", ErrModel, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = fallbackNoCompose
	}

	return &Reply{
		Reply:       text,
		Created:     facts.CreatedTransaction != nil,
		CreatedGoal: facts.CreatedGoal != nil,
		Transaction: facts.CreatedTransaction,
		Goal:        facts.CreatedGoal,
	}, nil
}

// gather collects the facts for intent. A non-empty early reply means the
// intent could not be served and should be answered directly.
func (s *Service) gather(ctx context.Context, owner string, intent *Intent) (Facts, string, error) {
	facts := Facts{Action: intent.Action}

	switch intent.Action {
	case ActionIncome, ActionExpenses, ActionBalance, ActionAnalysis:
		totals, err := s.totals.Totals(ctx, owner, "")
		if err != nil {
			return facts, "", err
		}
		switch intent.Action {
		case ActionIncome:
			facts.Income = &totals.Income
		case ActionExpenses:
			facts.Expenses = &totals.Expenses
		case ActionBalance:
			facts.Balance = &totals.Balance
		case ActionAnalysis:
			facts.Income = &totals.Income
			facts.Expenses = &totals.Expenses
			recent, err := s.transactions.Recent(ctx, transaction.RecentFilter{Owner: owner, Limit: analysisSample})
			if err != nil {
				return facts, "", err
			}
			facts.Transactions = recent
		}

	case ActionCategory:
		name := strings.TrimSpace(intent.Category)
		if name == "" {
			return facts, "Debes indicar la categoría.", nil
		}
		cat, err := s.categories.FindByName(ctx, owner, name, nil)
		if errors.Is(err, category.ErrCategoryNotFound) {
			return facts, fmt.Sprintf("No encontré la categoría %q.", name), nil
		}
		if err != nil {
			return facts, "", err
		}
		facts.Category = cat.Name

		total, err := s.transactions.CategoryTotal(ctx, owner, cat.ID)
		if err != nil {
			return facts, "", err
		}
		facts.CategoryTotal = &total.Total

		recent, err := s.transactions.Recent(ctx, transaction.RecentFilter{Owner: owner, CategoryID: &cat.ID, Limit: categorySample})
		if err != nil {
			return facts, "", err
		}
		facts.Transactions = recent

	case ActionListTransactions:
		recent, err := s.transactions.Recent(ctx, transaction.RecentFilter{Owner: owner, Limit: parseLimit(intent.Limit)})
		if err != nil {
			return facts, "", err
		}
		facts.Transactions = recent

	case ActionCreateTransaction:
		return s.createTransaction(ctx, owner, intent, facts)

	case ActionListGoals:
		goals, err := s.goals.List(ctx, owner, "")
		if err != nil {
			return facts, "", err
		}
		facts.Goals = goals

	case ActionCreateGoal:
		name := strings.TrimSpace(intent.GoalName)
		if name == "" {
			return facts, "Debes indicar el nombre de la meta.", nil
		}
		target, ok := parseAmount(intent.GoalAmount)
		if !ok {
			return facts, "El monto de la meta es inválido.", nil
		}
		created, err := s.goals.Create(ctx, goal.CreateParams{Owner: owner, Name: name, TargetAmount: target})
		if err != nil {
			return facts, domainReply(err), passStore(err)
		}
		facts.CreatedGoal = created

	default:
		return facts, "No entendí la acción solicitada.", nil
	}

	return facts, "", nil
}

func (s *Service) createTransaction(ctx context.Context, owner string, intent *Intent, facts Facts) (Facts, string, error) {
	name := strings.TrimSpace(intent.Category)
	if name == "" {
		return facts, "Debes indicar la categoría.", nil
	}
	kind, err := transaction.ParseKind(intent.Kind)
	if err != nil {
		return facts, "Tipo inválido (ingreso/gasto).", nil
	}
	amount, ok := parseAmount(intent.Amount)
	if !ok {
		return facts, "Monto inválido.", nil
	}

	cat, err := s.categories.FindByName(ctx, owner, name, &kind)
	if errors.Is(err, category.ErrCategoryNotFound) {
		return facts, fmt.Sprintf("No existe la categoría %q.", name), nil
	}
	if err != nil {
		return facts, "", err
	}

	txn, err := s.transactions.Create(ctx, transaction.CreateParams{
		Owner:       owner,
		CategoryID:  &cat.ID,
		Kind:        kind,
		Amount:      amount,
		Description: intent.Description,
	})
	if err != nil {
		return facts, domainReply(err), passStore(err)
	}
	txn.CategoryName = cat.Name
	facts.CreatedTransaction = txn
	return facts, "", nil
}

func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	d, err := decimal.NewFromString(s)
	if err != nil || !transaction.ValidAmount(d) {
		return decimal.Zero, false
	}
	return d, true
}

func parseLimit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}

// domainReply turns a domain rejection into a chat answer.
func domainReply(err error) string {
	if apperr.IsDomain(err) {
		return apperr.Message(err)
	}
	return ""
}

// passStore keeps only failures that are not the user's fault.
func passStore(err error) error {
	if apperr.IsDomain(err) {
		return nil
	}
	return err
}
