package transaction

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrax/internal/shared/apperr"
)

// Kind is the direction of a money movement.
type Kind string

const (
	KindIncome  Kind = "ingreso"
	KindExpense Kind = "gasto"
)

// Valid reports whether k is a known transaction kind.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// ParseKind validates a raw kind value.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// Domain errors
var (
	ErrTransactionNotFound = apperr.NotFound("transaction not found")
	ErrOwnerRequired       = apperr.Validation("owner is required")
	ErrInvalidKind         = apperr.Validation("kind must be ingreso or gasto")
	ErrInvalidAmount       = apperr.Validation("amount must be greater than zero, below 1000000000000 and have at most two decimals")
	ErrUnknownCategory     = apperr.Validation("category does not exist")
	ErrLinkedToGoal        = apperr.Conflict("transaction belongs to a savings goal movement and cannot be changed directly")
)

// Transaction is a single income or expense entry in an owner's ledger.
type Transaction struct {
	ID           int64           `json:"id"`
	Owner        string          `json:"owner"`
	CategoryID   *int64          `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	Kind         Kind            `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Date         time.Time       `json:"date"`
	GoalLinked   bool            `json:"goal_linked"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateParams is the single contract for writing a transaction, used both by
// the transaction service and by goal ledger movements.
type CreateParams struct {
	Owner       string
	CategoryID  *int64
	Kind        Kind
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

// MaxAmount is the exclusive upper bound of a stored money column, NUMERIC(14,2).
var MaxAmount = decimal.New(1, 12)

// ValidAmount reports whether d is positive, fits NUMERIC(14,2) and carries
// no more than two decimals, so it is stored exactly as given.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThan(MaxAmount) && d.Equal(d.Round(2))
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if strings.TrimSpace(p.Owner) == "" {
		return ErrOwnerRequired
	}
	if !p.Kind.Valid() {
		return ErrInvalidKind
	}
	if !ValidAmount(p.Amount) {
		return ErrInvalidAmount
	}
	if p.Date.IsZero() {
		return apperr.Validation("date is required")
	}
	return nil
}

// UpdateParams holds a partial update; nil fields are left untouched.
type UpdateParams struct {
	CategoryID  *int64
	Kind        *Kind
	Amount      *decimal.Decimal
	Description *string
	Date        *time.Time
}

// Validate validates the update parameters
func (p UpdateParams) Validate() error {
	if p.Kind != nil && !p.Kind.Valid() {
		return ErrInvalidKind
	}
	if p.Amount != nil && !ValidAmount(*p.Amount) {
		return ErrInvalidAmount
	}
	if p.Date != nil && p.Date.IsZero() {
		return apperr.Validation("date must not be empty")
	}
	return nil
}

// RecentFilter narrows Recent to an optional kind and category.
type RecentFilter struct {
	Owner      string
	Kind       *Kind
	CategoryID *int64
	Limit      int
}

// CategoryTotal aggregates an owner's transactions in one category.
type CategoryTotal struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}
