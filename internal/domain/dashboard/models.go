package dashboard

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrax/internal/shared/apperr"
)

// Period is a trailing reporting window.
type Period string

const (
	PeriodAll         Period = "all"
	PeriodOneMonth    Period = "1mes"
	PeriodThreeMonths Period = "3meses"
	PeriodSixMonths   Period = "6meses"
	PeriodOneYear     Period = "1año"
)

var periodMonths = map[Period]int{
	PeriodOneMonth:    1,
	PeriodThreeMonths: 3,
	PeriodSixMonths:   6,
	PeriodOneYear:     12,
}

var ErrInvalidPeriod = apperr.Validation("period must be one of all, 1mes, 3meses, 6meses, 1año")

// ParsePeriod validates a raw period; empty means all history.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if p == "" || p == PeriodAll {
		return PeriodAll, nil
	}
	if _, ok := periodMonths[p]; !ok {
		return "", ErrInvalidPeriod
	}
	return p, nil
}

// Since returns the first day included in the period, or nil for all history.
func (p Period) Since(now time.Time) *time.Time {
	months, ok := periodMonths[p]
	if !ok {
		return nil
	}
	y, m, d := now.Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, -months, 0)
	return &since
}

// Totals is the income/expense position over a period.
type Totals struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

// CategoryAmount is the sum of one category's transactions.
type CategoryAmount struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// MonthlyPoint holds one calendar month of income and expenses.
type MonthlyPoint struct {
	Month    string          `json:"month"`
	Label    string          `json:"label"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// PieSlice is a category's share of total expenses.
type PieSlice struct {
	Category   string          `json:"category"`
	Total      decimal.Decimal `json:"total"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Summary is everything the dashboard renders for one period.
type Summary struct {
	Period            Period           `json:"period"`
	Totals            Totals           `json:"totals"`
	IncomeByCategory  []CategoryAmount `json:"income_by_category"`
	ExpenseByCategory []CategoryAmount `json:"expense_by_category"`
	Monthly           []MonthlyPoint   `json:"monthly"`
	ExpensePie        []PieSlice       `json:"expense_pie"`
}
