package goal

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"fintrax/internal/domain/events"
	"fintrax/internal/domain/transaction"
	"fintrax/internal/shared/apperr"
)

const (
	fundDescription     = "Aporte a meta: "
	withdrawDescription = "Retiro de meta: "
	refundDescription   = "Devolución por eliminación de meta: "
)

// MovementResult is the outcome of a fund or withdraw call.
type MovementResult struct {
	Goal         *Goal                    `json:"goal"`
	Transaction  *transaction.Transaction `json:"transaction"`
	Contribution *Contribution            `json:"contribution"`
}

// DeleteResult is the outcome of deleting a goal.
type DeleteResult struct {
	Goal                 *Goal                    `json:"goal"`
	RefundedAmount       decimal.Decimal          `json:"refunded_amount"`
	ContributionsRemoved int                      `json:"contributions_removed"`
	Refunded             bool                     `json:"refunded"`
	RefundTransaction    *transaction.Transaction `json:"refund_transaction,omitempty"`
}

// Service is the goal ledger engine. Balance changes always go through the
// Ledger so that the goal row, its mirrored transaction and its history row
// are written together or not at all.
type Service struct {
	repo   Repository
	ledger Ledger
	events events.Publisher
	now    func() time.Time

	movements metric.Int64Counter
	moved     metric.Float64Counter
}

// NewService creates a new goal service
func NewService(repo Repository, ledger Ledger, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}

	meter := otel.Meter("fintrax.goal")
	movements, _ := meter.Int64Counter("fintrax.goal.movements",
		metric.WithDescription("Committed goal ledger movements"),
	)
	moved, _ := meter.Float64Counter("fintrax.goal.amount",
		metric.WithDescription("Money moved through goal ledger movements"),
	)

	return &Service{
		repo:      repo,
		ledger:    ledger,
		events:    publisher,
		now:       time.Now,
		movements: movements,
		moved:     moved,
	}
}

// Create creates a goal with a zero balance in the active state.
func (s *Service) Create(ctx context.Context, params CreateParams) (*View, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	g, err := s.repo.Create(ctx, params.withDefaults())
	if err != nil {
		return nil, apperr.Store(err)
	}

	s.events.Publish(ctx, events.New(g.Owner, events.GoalCreated, g.ID))
	return s.view(g), nil
}

// Get returns a single goal owned by owner.
func (s *Service) Get(ctx context.Context, id int64, owner string) (*View, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}

	g, err := s.repo.GetByID(ctx, id, owner)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return s.view(g), nil
}

// List returns owner's goals, optionally narrowed to one state, ordered
// active first, then paused, then completed; by descending priority inside
// each state and newest first on ties.
func (s *Service) List(ctx context.Context, owner, stateFilter string) ([]View, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}

	var filter State
	if strings.TrimSpace(stateFilter) != "" {
		st, err := ParseState(stateFilter)
		if err != nil {
			return nil, err
		}
		filter = st
	}

	goals, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, apperr.Store(err)
	}

	if filter != "" {
		goals = slices.DeleteFunc(goals, func(g *Goal) bool { return g.State != filter })
	}
	sortGoals(goals)

	today := s.now()
	views := make([]View, 0, len(goals))
	for _, g := range goals {
		views = append(views, NewView(g, today))
	}
	return views, nil
}

func sortGoals(goals []*Goal) {
	slices.SortStableFunc(goals, func(a, b *Goal) int {
		if c := cmp.Compare(a.State.rank(), b.State.rank()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// Update applies a partial update to a goal's descriptive fields.
func (s *Service) Update(ctx context.Context, id int64, owner string, params UpdateParams) (*View, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		params.Name = &name
	}

	g, err := s.repo.Update(ctx, id, owner, params)
	if err != nil {
		return nil, apperr.Store(err)
	}

	s.events.Publish(ctx, events.New(owner, events.GoalUpdated, g.ID))
	return s.view(g), nil
}

// ChangeState moves a goal to any of the known states.
func (s *Service) ChangeState(ctx context.Context, id int64, owner, state string) (*View, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}
	st, err := ParseState(state)
	if err != nil {
		return nil, err
	}

	g, err := s.repo.SetState(ctx, id, owner, st)
	if err != nil {
		return nil, apperr.Store(err)
	}

	s.events.Publish(ctx, events.New(owner, events.GoalStateChanged, g.ID))
	return s.view(g), nil
}

// Fund moves money from the owner's spendable balance into the goal,
// recorded as an expense.
func (s *Service) Fund(ctx context.Context, params MovementParams) (*MovementResult, error) {
	if err := params.validateRef(); err != nil {
		return nil, err
	}
	return s.move(ctx, params, MovementFund)
}

// Withdraw moves money from the goal back to the owner's spendable balance,
// recorded as income.
func (s *Service) Withdraw(ctx context.Context, params MovementParams) (*MovementResult, error) {
	if err := params.validateRef(); err != nil {
		return nil, err
	}
	return s.move(ctx, params, MovementWithdraw)
}

func (s *Service) move(ctx context.Context, params MovementParams, kind MovementKind) (*MovementResult, error) {
	var result MovementResult
	note := strings.TrimSpace(params.Note)

	err := s.ledger.Atomically(ctx, func(ctx context.Context, tx LedgerTx) error {
		// Ownership is settled before the amount, so a foreign goal id is
		// always not found whatever the amount.
		g, err := tx.LockGoal(ctx, params.GoalID, params.Owner)
		if err != nil {
			return err
		}
		if err := params.validateAmount(); err != nil {
			return err
		}

		balance := g.CurrentAmount.Add(params.Amount)
		txnKind := transaction.KindExpense
		description := fundDescription + g.Name
		eventKind := events.GoalFunded
		if kind == MovementWithdraw {
			if params.Amount.GreaterThan(g.CurrentAmount) {
				return ErrInsufficientFunds
			}
			balance = g.CurrentAmount.Sub(params.Amount)
			txnKind = transaction.KindIncome
			description = withdrawDescription + g.Name
			eventKind = events.GoalWithdrawn
		}
		if note != "" {
			description += " - " + note
		}
		if !balance.LessThan(transaction.MaxAmount) {
			return ErrBalanceLimit
		}

		updated, err := tx.SetBalance(ctx, g.ID, balance)
		if err != nil {
			return err
		}

		txn, err := s.record(ctx, tx, params.Owner, txnKind, params.Amount, description)
		if err != nil {
			return err
		}

		contribution, err := tx.AddContribution(ctx, ContributionParams{
			GoalID:        g.ID,
			TransactionID: txn.ID,
			Kind:          kind,
			Amount:        params.Amount,
			Note:          note,
		})
		if err != nil {
			return err
		}

		if err := tx.Publish(ctx, events.New(params.Owner, eventKind, g.ID)); err != nil {
			return err
		}

		result = MovementResult{Goal: updated, Transaction: txn, Contribution: contribution}
		return nil
	})
	if err != nil {
		return nil, apperr.Store(err)
	}

	attrs := metric.WithAttributes(attribute.String("kind", string(kind)))
	s.movements.Add(ctx, 1, attrs)
	s.moved.Add(ctx, params.Amount.InexactFloat64(), attrs)

	return &result, nil
}

// Delete removes a goal, first returning any remaining balance to the
// owner's spendable balance as income. The goal's history goes with it.
func (s *Service) Delete(ctx context.Context, id int64, owner string) (*DeleteResult, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}

	var result DeleteResult
	err := s.ledger.Atomically(ctx, func(ctx context.Context, tx LedgerTx) error {
		g, err := tx.LockGoal(ctx, id, owner)
		if err != nil {
			return err
		}

		result = DeleteResult{Goal: g, RefundedAmount: decimal.Zero}
		if g.CurrentAmount.IsPositive() {
			txn, err := s.record(ctx, tx, owner, transaction.KindIncome, g.CurrentAmount, refundDescription+g.Name)
			if err != nil {
				return err
			}
			result.RefundedAmount = g.CurrentAmount
			result.Refunded = true
			result.RefundTransaction = txn
		}

		removed, err := tx.DeleteContributions(ctx, g.ID)
		if err != nil {
			return err
		}
		result.ContributionsRemoved = removed

		if err := tx.DeleteGoal(ctx, g.ID); err != nil {
			return err
		}

		return tx.Publish(ctx, events.New(owner, events.GoalDeleted, g.ID))
	})
	if err != nil {
		return nil, apperr.Store(err)
	}

	return &result, nil
}

// record writes the ledger transaction that mirrors a goal movement through
// the same contract manual transactions use.
func (s *Service) record(ctx context.Context, tx LedgerTx, owner string, kind transaction.Kind, amount decimal.Decimal, description string) (*transaction.Transaction, error) {
	categoryID, err := tx.SavingsCategoryID(ctx, kind)
	if err != nil {
		return nil, err
	}

	params := transaction.CreateParams{
		Owner:       owner,
		CategoryID:  categoryID,
		Kind:        kind,
		Amount:      amount,
		Description: description,
		Date:        s.now(),
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return tx.RecordTransaction(ctx, params)
}

// History returns a goal's contributions, newest first. A goal the owner does
// not hold is reported as not found rather than as an empty history.
func (s *Service) History(ctx context.Context, id int64, owner string) ([]*Contribution, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}

	if _, err := s.repo.GetByID(ctx, id, owner); err != nil {
		return nil, apperr.Store(err)
	}

	contributions, err := s.repo.ListContributions(ctx, id)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return contributions, nil
}

// Summary aggregates counts and amounts across all of owner's goals.
func (s *Service) Summary(ctx context.Context, owner string) (*Summary, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}

	goals, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, apperr.Store(err)
	}

	sum := Summary{TotalTarget: decimal.Zero, TotalSaved: decimal.Zero}
	for _, g := range goals {
		sum.TotalGoals++
		switch g.State {
		case StateActive:
			sum.ActiveGoals++
		case StateCompleted:
			sum.CompletedGoals++
		}
		sum.TotalTarget = sum.TotalTarget.Add(g.TargetAmount)
		sum.TotalSaved = sum.TotalSaved.Add(g.CurrentAmount)
	}
	sum.OverallProgress = decimal.Zero
	if p := percentage(sum.TotalSaved, sum.TotalTarget); p != nil {
		sum.OverallProgress = *p
	}
	return &sum, nil
}

func (s *Service) view(g *Goal) *View {
	v := NewView(g, s.now())
	return &v
}
