package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrax/internal/domain/transaction"
	"fintrax/internal/shared/apperr"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	TotalsFunc    func(ctx context.Context, owner string, since *time.Time) (*Totals, error)
	BreakdownFunc func(ctx context.Context, owner string, kind transaction.Kind, since *time.Time) ([]CategoryAmount, error)
	MonthlyFunc   func(ctx context.Context, owner string, since *time.Time) ([]MonthlyPoint, error)
}

func (m *MockRepository) Totals(ctx context.Context, owner string, since *time.Time) (*Totals, error) {
	if m.TotalsFunc != nil {
		return m.TotalsFunc(ctx, owner, since)
	}
	return &Totals{}, nil
}

func (m *MockRepository) Breakdown(ctx context.Context, owner string, kind transaction.Kind, since *time.Time) ([]CategoryAmount, error) {
	if m.BreakdownFunc != nil {
		return m.BreakdownFunc(ctx, owner, kind, since)
	}
	return nil, nil
}

func (m *MockRepository) Monthly(ctx context.Context, owner string, since *time.Time) ([]MonthlyPoint, error) {
	if m.MonthlyFunc != nil {
		return m.MonthlyFunc(ctx, owner, since)
	}
	return nil, nil
}

func TestParsePeriod(t *testing.T) {
	now := time.Date(2024, 5, 31, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		in        string
		want      Period
		wantSince *time.Time
		wantErr   bool
	}{
		{"", PeriodAll, nil, false},
		{"all", PeriodAll, nil, false},
		{"1mes", PeriodOneMonth, datePtr(2024, 5, 1), false},
		{"3meses", PeriodThreeMonths, datePtr(2024, 3, 2), false},
		{"6MESES", PeriodSixMonths, datePtr(2023, 12, 1), false},
		{"1año", PeriodOneYear, datePtr(2023, 5, 31), false},
		{"2años", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("period = %q, want %q", got, tt.want)
			}
			since := got.Since(now)
			switch {
			case tt.wantSince == nil && since != nil:
				t.Errorf("since = %v, want nil", since)
			case tt.wantSince != nil && (since == nil || !since.Equal(*tt.wantSince)):
				t.Errorf("since = %v, want %v", since, tt.wantSince)
			}
		})
	}
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestService_Summary(t *testing.T) {
	var mu sync.Mutex
	kinds := map[transaction.Kind]bool{}

	repo := &MockRepository{
		TotalsFunc: func(ctx context.Context, owner string, since *time.Time) (*Totals, error) {
			return &Totals{
				Income:   decimal.NewFromInt(3000),
				Expenses: decimal.NewFromInt(1200),
				Balance:  decimal.NewFromInt(1800),
			}, nil
		},
		BreakdownFunc: func(ctx context.Context, owner string, kind transaction.Kind, since *time.Time) ([]CategoryAmount, error) {
			mu.Lock()
			kinds[kind] = true
			mu.Unlock()
			if kind == transaction.KindIncome {
				return nil, nil
			}
			return []CategoryAmount{
				{Category: "Comida", Total: decimal.NewFromInt(900), Count: 12},
				{Category: "Transporte", Total: decimal.NewFromInt(300), Count: 4},
			}, nil
		},
	}
	svc := NewService(repo)

	sum, err := svc.Summary(context.Background(), "1", "3meses")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !kinds[transaction.KindIncome] || !kinds[transaction.KindExpense] {
		t.Errorf("breakdowns requested = %v, want both kinds", kinds)
	}
	if !sum.Totals.Balance.Equal(decimal.NewFromInt(1800)) {
		t.Errorf("balance = %s", sum.Totals.Balance)
	}
	if sum.IncomeByCategory == nil || sum.Monthly == nil {
		t.Error("empty sections should be empty slices, not nil")
	}
	if len(sum.ExpensePie) != 2 || sum.ExpensePie[0].Percentage.StringFixed(2) != "75.00" {
		t.Errorf("pie = %+v, want Comida at 75.00", sum.ExpensePie)
	}
}

func TestService_Summary_Errors(t *testing.T) {
	svc := NewService(&MockRepository{})
	if _, err := svc.Summary(context.Background(), "1", "semana"); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("err = %v, want ErrInvalidPeriod", err)
	}
	if _, err := svc.Summary(context.Background(), "", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want validation error for missing owner", err)
	}

	failing := NewService(&MockRepository{
		MonthlyFunc: func(ctx context.Context, owner string, since *time.Time) ([]MonthlyPoint, error) {
			return nil, errors.New("timeout")
		},
	})
	if _, err := failing.Summary(context.Background(), "1", ""); !errors.Is(err, apperr.ErrStore) {
		t.Errorf("err = %v, want store error", err)
	}
}

func TestPie_NoExpenses(t *testing.T) {
	if got := pie(nil); len(got) != 0 {
		t.Errorf("pie(nil) = %v, want empty", got)
	}
	got := pie([]CategoryAmount{{Category: "x", Total: decimal.Zero}})
	if !got[0].Percentage.IsZero() {
		t.Errorf("percentage = %s, want 0 when total is zero", got[0].Percentage)
	}
}
