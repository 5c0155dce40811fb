package goal

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrax/internal/domain/events"
	"fintrax/internal/domain/transaction"
)

// Repository defines the interface for goal reads and single-row writes.
// Every lookup is scoped to the owning user; a goal owned by someone else
// is reported as ErrGoalNotFound.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Goal, error)
	GetByID(ctx context.Context, id int64, owner string) (*Goal, error)
	ListByOwner(ctx context.Context, owner string) ([]*Goal, error)
	Update(ctx context.Context, id int64, owner string, params UpdateParams) (*Goal, error)
	SetState(ctx context.Context, id int64, owner string, state State) (*Goal, error)
	// ListContributions returns a goal's history, newest first.
	ListContributions(ctx context.Context, goalID int64) ([]*Contribution, error)
}

// Ledger runs balance-changing operations as one unit of work. If fn returns
// an error, nothing it did is kept; otherwise everything is committed together.
type Ledger interface {
	Atomically(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}

// LedgerTx is the set of writes available inside a ledger unit of work.
type LedgerTx interface {
	// LockGoal loads the goal and holds it against concurrent movements
	// until the unit of work ends.
	LockGoal(ctx context.Context, id int64, owner string) (*Goal, error)
	SetBalance(ctx context.Context, id int64, amount decimal.Decimal) (*Goal, error)
	// SavingsCategoryID returns the system savings category for kind, or nil
	// when none is configured.
	SavingsCategoryID(ctx context.Context, kind transaction.Kind) (*int64, error)
	RecordTransaction(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
	AddContribution(ctx context.Context, params ContributionParams) (*Contribution, error)
	// DeleteContributions removes a goal's history and reports how many rows went.
	DeleteContributions(ctx context.Context, goalID int64) (int, error)
	DeleteGoal(ctx context.Context, id int64) error
	// Publish queues an event that is delivered only if the unit of work commits.
	Publish(ctx context.Context, e events.Event) error
}
