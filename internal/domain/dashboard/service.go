package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrax/internal/domain/transaction"
	"fintrax/internal/shared/apperr"
)

// Service aggregates the transaction ledger for reporting
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new dashboard service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Summary runs every dashboard query for the period concurrently.
func (s *Service) Summary(ctx context.Context, owner, period string) (*Summary, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, apperr.Validation("owner is required")
	}
	p, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	since := p.Since(s.now())

	sum := Summary{Period: p}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		totals, err := s.repo.Totals(gctx, owner, since)
		if err != nil {
			return err
		}
		sum.Totals = *totals
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.Breakdown(gctx, owner, transaction.KindIncome, since)
		sum.IncomeByCategory = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.Breakdown(gctx, owner, transaction.KindExpense, since)
		sum.ExpenseByCategory = rows
		return err
	})
	g.Go(func() error {
		points, err := s.repo.Monthly(gctx, owner, since)
		sum.Monthly = points
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, apperr.Store(err)
	}

	if sum.IncomeByCategory == nil {
		sum.IncomeByCategory = []CategoryAmount{}
	}
	if sum.ExpenseByCategory == nil {
		sum.ExpenseByCategory = []CategoryAmount{}
	}
	if sum.Monthly == nil {
		sum.Monthly = []MonthlyPoint{}
	}
	sum.ExpensePie = pie(sum.ExpenseByCategory)
	return &sum, nil
}

// Totals returns owner's income, expenses and balance for the period.
func (s *Service) Totals(ctx context.Context, owner, period string) (*Totals, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, apperr.Validation("owner is required")
	}
	p, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.Totals(ctx, owner, p.Since(s.now()))
	if err != nil {
		return nil, apperr.Store(err)
	}
	return totals, nil
}

var hundred = decimal.NewFromInt(100)

func pie(expenses []CategoryAmount) []PieSlice {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Total)
	}

	slices := make([]PieSlice, 0, len(expenses))
	for _, e := range expenses {
		pct := decimal.Zero
		if total.IsPositive() {
			pct = e.Total.Div(total).Mul(hundred).Round(2)
		}
		slices = append(slices, PieSlice{Category: e.Category, Total: e.Total, Percentage: pct})
	}
	return slices
}
