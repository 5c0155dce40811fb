package goal

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrax/internal/domain/events"
	"fintrax/internal/domain/transaction"
)

// memState is everything the in-memory ledger persists. Units of work run
// against a clone that replaces the committed state only on success.
type memState struct {
	goals         map[int64]Goal
	transactions  []transaction.Transaction
	contributions []Contribution
	published     []events.Event
	nextGoalID    int64
	nextTxnID     int64
	nextContribID int64
}

func (s memState) clone() memState {
	c := s
	c.goals = maps.Clone(s.goals)
	c.transactions = slices.Clone(s.transactions)
	c.contributions = slices.Clone(s.contributions)
	c.published = slices.Clone(s.published)
	return c
}

// memStore implements Repository and Ledger in memory.
type memStore struct {
	mu    sync.Mutex
	state memState
	clock time.Time

	savingsCategory map[transaction.Kind]int64

	// failRecord, when set, is returned by RecordTransaction.
	failRecord error
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{goals: make(map[int64]Goal)},
		clock: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		savingsCategory: map[transaction.Kind]int64{
			transaction.KindExpense: 100,
			transaction.KindIncome:  101,
		},
	}
}

// tick returns a strictly increasing timestamp so creation order is observable.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memStore) snapshot() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *memStore) Create(ctx context.Context, params CreateParams) (*Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.nextGoalID++
	now := m.tick()
	g := Goal{
		ID:            m.state.nextGoalID,
		Owner:         params.Owner,
		Name:          params.Name,
		Description:   params.Description,
		TargetAmount:  params.TargetAmount,
		CurrentAmount: decimal.Zero,
		TargetDate:    params.TargetDate,
		Icon:          params.Icon,
		Color:         params.Color,
		Priority:      *params.Priority,
		State:         StateActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.state.goals[g.ID] = g
	return &g, nil
}

func (m *memStore) GetByID(ctx context.Context, id int64, owner string) (*Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.state.goals[id]
	if !ok || g.Owner != owner {
		return nil, ErrGoalNotFound
	}
	return &g, nil
}

func (m *memStore) ListByOwner(ctx context.Context, owner string) ([]*Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var goals []*Goal
	for _, id := range slices.Sorted(maps.Keys(m.state.goals)) {
		g := m.state.goals[id]
		if g.Owner == owner {
			goals = append(goals, &g)
		}
	}
	return goals, nil
}

func (m *memStore) Update(ctx context.Context, id int64, owner string, params UpdateParams) (*Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.state.goals[id]
	if !ok || g.Owner != owner {
		return nil, ErrGoalNotFound
	}
	if params.Name != nil {
		g.Name = *params.Name
	}
	if params.Description != nil {
		g.Description = *params.Description
	}
	if params.TargetAmount != nil {
		g.TargetAmount = *params.TargetAmount
	}
	if params.TargetDate != nil {
		g.TargetDate = params.TargetDate
	}
	if params.Icon != nil {
		g.Icon = *params.Icon
	}
	if params.Color != nil {
		g.Color = *params.Color
	}
	if params.Priority != nil {
		g.Priority = *params.Priority
	}
	g.UpdatedAt = m.tick()
	m.state.goals[id] = g
	return &g, nil
}

func (m *memStore) SetState(ctx context.Context, id int64, owner string, state State) (*Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.state.goals[id]
	if !ok || g.Owner != owner {
		return nil, ErrGoalNotFound
	}
	g.State = state
	m.state.goals[id] = g
	return &g, nil
}

func (m *memStore) ListContributions(ctx context.Context, goalID int64) ([]*Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Contribution
	for i := len(m.state.contributions) - 1; i >= 0; i-- {
		c := m.state.contributions[i]
		if c.GoalID == goalID {
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memStore) Atomically(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(ctx, &memTx{store: m, state: &work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

type memTx struct {
	store *memStore
	state *memState
}

func (t *memTx) LockGoal(ctx context.Context, id int64, owner string) (*Goal, error) {
	g, ok := t.state.goals[id]
	if !ok || g.Owner != owner {
		return nil, ErrGoalNotFound
	}
	return &g, nil
}

func (t *memTx) SetBalance(ctx context.Context, id int64, amount decimal.Decimal) (*Goal, error) {
	if amount.IsNegative() {
		return nil, errors.New("check constraint: balance must not be negative")
	}
	g := t.state.goals[id]
	g.CurrentAmount = amount
	t.state.goals[id] = g
	return &g, nil
}

func (t *memTx) SavingsCategoryID(ctx context.Context, kind transaction.Kind) (*int64, error) {
	id, ok := t.store.savingsCategory[kind]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (t *memTx) RecordTransaction(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	if t.store.failRecord != nil {
		return nil, t.store.failRecord
	}
	t.state.nextTxnID++
	txn := transaction.Transaction{
		ID:          t.state.nextTxnID,
		Owner:       params.Owner,
		CategoryID:  params.CategoryID,
		Kind:        params.Kind,
		Amount:      params.Amount,
		Description: params.Description,
		Date:        params.Date,
	}
	t.state.transactions = append(t.state.transactions, txn)
	return &txn, nil
}

func (t *memTx) AddContribution(ctx context.Context, params ContributionParams) (*Contribution, error) {
	var txn transaction.Transaction
	for _, candidate := range t.state.transactions {
		if candidate.ID == params.TransactionID {
			txn = candidate
		}
	}
	if txn.ID == 0 {
		return nil, errors.New("foreign key: transaction does not exist")
	}

	t.state.nextContribID++
	c := Contribution{
		ID:                     t.state.nextContribID,
		GoalID:                 params.GoalID,
		TransactionID:          params.TransactionID,
		Kind:                   params.Kind,
		Amount:                 params.Amount,
		Note:                   params.Note,
		CreatedAt:              txn.Date,
		TransactionDescription: txn.Description,
		TransactionDate:        txn.Date,
	}
	t.state.contributions = append(t.state.contributions, c)
	return &c, nil
}

func (t *memTx) DeleteContributions(ctx context.Context, goalID int64) (int, error) {
	before := len(t.state.contributions)
	t.state.contributions = slices.DeleteFunc(t.state.contributions, func(c Contribution) bool {
		return c.GoalID == goalID
	})
	return before - len(t.state.contributions), nil
}

func (t *memTx) DeleteGoal(ctx context.Context, id int64) error {
	delete(t.state.goals, id)
	return nil
}

func (t *memTx) Publish(ctx context.Context, e events.Event) error {
	t.state.published = append(t.state.published, e)
	return nil
}

func (m *memStore) ListOwners(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var owners []string
	for _, g := range m.state.goals {
		if !slices.Contains(owners, g.Owner) {
			owners = append(owners, g.Owner)
		}
	}
	slices.Sort(owners)
	return owners, nil
}

func (m *memStore) Balances(ctx context.Context, owner string) ([]Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var balances []Balance
	for _, id := range slices.Sorted(maps.Keys(m.state.goals)) {
		g := m.state.goals[id]
		if g.Owner != owner {
			continue
		}
		b := Balance{GoalID: g.ID, Name: g.Name, Current: g.CurrentAmount, Funded: decimal.Zero, Withdrawn: decimal.Zero}
		for _, c := range m.state.contributions {
			if c.GoalID != g.ID {
				continue
			}
			if c.Kind == MovementFund {
				b.Funded = b.Funded.Add(c.Amount)
			} else {
				b.Withdrawn = b.Withdrawn.Add(c.Amount)
			}
		}
		balances = append(balances, b)
	}
	return balances, nil
}

// corrupt overwrites a stored balance without touching history.
func (m *memStore) corrupt(id int64, balance decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.state.goals[id]
	g.CurrentAmount = balance
	m.state.goals[id] = g
}
