package goal

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrax/internal/domain/transaction"
	"fintrax/internal/shared/apperr"
)

// State is the lifecycle state of a savings goal. Transitions are
// unrestricted and only happen through ChangeState.
type State string

const (
	StateActive    State = "activa"
	StatePaused    State = "pausada"
	StateCompleted State = "completada"
)

// Valid reports whether s is a known goal state.
func (s State) Valid() bool {
	switch s {
	case StateActive, StatePaused, StateCompleted:
		return true
	}
	return false
}

// ParseState validates a raw state value.
func ParseState(s string) (State, error) {
	st := State(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrInvalidState
	}
	return st, nil
}

// rank orders goals for listing: active, paused, completed, anything else.
func (s State) rank() int {
	switch s {
	case StateActive:
		return 1
	case StatePaused:
		return 2
	case StateCompleted:
		return 3
	}
	return 4
}

// MovementKind tags a contribution as money moved into or out of a goal.
type MovementKind string

const (
	MovementFund     MovementKind = "aporte"
	MovementWithdraw MovementKind = "retiro"
)

const (
	DefaultIcon     = "😊"
	DefaultColor    = "#3b82f6"
	DefaultPriority = 1
)

// Domain errors
var (
	ErrGoalNotFound      = apperr.NotFound("goal not found")
	ErrOwnerRequired     = apperr.Validation("owner is required")
	ErrNameRequired      = apperr.Validation("goal name is required")
	ErrInvalidTarget     = apperr.Validation("target amount must be greater than zero, below 1000000000000 and have at most two decimals")
	ErrInvalidAmount     = apperr.Validation("amount must be greater than zero, below 1000000000000 and have at most two decimals")
	ErrInvalidState      = apperr.Validation("state must be one of activa, pausada, completada")
	ErrInvalidPriority   = apperr.Validation("priority must not be negative")
	ErrInsufficientFunds = apperr.Validation("withdrawal exceeds the goal's current balance")
	ErrBalanceLimit      = apperr.Validation("goal balance would reach 1000000000000")
)

// Goal is a named savings target owned by a single user.
type Goal struct {
	ID            int64           `json:"id"`
	Owner         string          `json:"owner"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    *time.Time      `json:"target_date,omitempty"`
	Icon          string          `json:"icon"`
	Color         string          `json:"color"`
	Priority      int             `json:"priority"`
	State         State           `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// View is a goal annotated with values derived at read time.
type View struct {
	Goal
	CompletionPercentage *decimal.Decimal `json:"completion_percentage"`
	DaysRemaining        *int             `json:"days_remaining"`
}

// NewView derives completion and days remaining relative to today.
func NewView(g *Goal, today time.Time) View {
	v := View{Goal: *g}
	v.CompletionPercentage = percentage(g.CurrentAmount, g.TargetAmount)
	if g.TargetDate != nil {
		days := daysBetween(today, *g.TargetDate)
		v.DaysRemaining = &days
	}
	return v
}

var hundred = decimal.NewFromInt(100)

// percentage returns part/whole*100 rounded to two places, or nil when the
// whole is not positive.
func percentage(part, whole decimal.Decimal) *decimal.Decimal {
	if !whole.IsPositive() {
		return nil
	}
	p := part.Div(whole).Mul(hundred).Round(2)
	return &p
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Contribution is one audit-trail entry for a goal, joined with the
// description and date of the transaction it mirrors.
type Contribution struct {
	ID                     int64           `json:"id"`
	GoalID                 int64           `json:"goal_id"`
	TransactionID          int64           `json:"transaction_id"`
	Kind                   MovementKind    `json:"kind"`
	Amount                 decimal.Decimal `json:"amount"`
	Note                   string          `json:"note,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	TransactionDescription string          `json:"transaction_description"`
	TransactionDate        time.Time       `json:"transaction_date"`
}

// Summary aggregates all of an owner's goals.
type Summary struct {
	TotalGoals      int              `json:"total_goals"`
	ActiveGoals     int              `json:"active_goals"`
	CompletedGoals  int              `json:"completed_goals"`
	TotalTarget     decimal.Decimal  `json:"total_target"`
	TotalSaved      decimal.Decimal  `json:"total_saved"`
	OverallProgress decimal.Decimal  `json:"overall_progress"`
}

// CreateParams contains parameters for creating a new goal
type CreateParams struct {
	Owner        string
	Name         string
	Description  string
	TargetAmount decimal.Decimal
	TargetDate   *time.Time
	Icon         string
	Color        string
	Priority     *int
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if strings.TrimSpace(p.Owner) == "" {
		return ErrOwnerRequired
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if !transaction.ValidAmount(p.TargetAmount) {
		return ErrInvalidTarget
	}
	if p.Priority != nil && *p.Priority < 0 {
		return ErrInvalidPriority
	}
	return nil
}

// withDefaults fills the presentation fields the caller left empty.
func (p CreateParams) withDefaults() CreateParams {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.Icon == "" {
		p.Icon = DefaultIcon
	}
	if p.Color == "" {
		p.Color = DefaultColor
	}
	if p.Priority == nil {
		priority := DefaultPriority
		p.Priority = &priority
	}
	return p
}

// UpdateParams holds a partial update; nil fields keep their stored value.
// Balance and state are not editable here.
type UpdateParams struct {
	Name         *string
	Description  *string
	TargetAmount *decimal.Decimal
	TargetDate   *time.Time
	Icon         *string
	Color        *string
	Priority     *int
}

// Validate validates the update parameters
func (p UpdateParams) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrNameRequired
	}
	if p.TargetAmount != nil && !transaction.ValidAmount(*p.TargetAmount) {
		return ErrInvalidTarget
	}
	if p.Priority != nil && *p.Priority < 0 {
		return ErrInvalidPriority
	}
	return nil
}

// MovementParams describes money moved into or out of a goal.
type MovementParams struct {
	GoalID int64
	Owner  string
	Amount decimal.Decimal
	Note   string
}

// Validate validates the movement parameters
func (p MovementParams) Validate() error {
	if err := p.validateRef(); err != nil {
		return err
	}
	return p.validateAmount()
}

func (p MovementParams) validateRef() error {
	if strings.TrimSpace(p.Owner) == "" {
		return ErrOwnerRequired
	}
	if p.GoalID <= 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (p MovementParams) validateAmount() error {
	if !transaction.ValidAmount(p.Amount) {
		return ErrInvalidAmount
	}
	return nil
}

// ContributionParams is what the ledger stores for a single movement.
type ContributionParams struct {
	GoalID        int64
	TransactionID int64
	Kind          MovementKind
	Amount        decimal.Decimal
	Note          string
}
