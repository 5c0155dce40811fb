package transaction

import (
	"context"
	"strings"
	"time"

	"fintrax/internal/domain/events"
	"fintrax/internal/shared/apperr"
)

const defaultRecentLimit = 5

// Service contains the business logic for plain transactions
type Service struct {
	repo   Repository
	events events.Publisher
	now    func() time.Time
}

// NewService creates a new transaction service
func NewService(repo Repository, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{repo: repo, events: publisher, now: time.Now}
}

// Create records a new transaction, dating it today when no date is given.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	if params.Date.IsZero() {
		params.Date = s.now()
	}
	params.Description = strings.TrimSpace(params.Description)

	if err := params.Validate(); err != nil {
		return nil, err
	}

	txn, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, apperr.Store(err)
	}

	s.events.Publish(ctx, events.New(txn.Owner, events.TransactionCreated, txn.ID))
	return txn, nil
}

// Get retrieves a transaction owned by owner
func (s *Service) Get(ctx context.Context, id int64, owner string) (*Transaction, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}
	txn, err := s.repo.GetByID(ctx, id, owner)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return txn, nil
}

// ListByKind returns owner's transactions of one kind, newest first.
func (s *Service) ListByKind(ctx context.Context, owner string, kind Kind) ([]*Transaction, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}

	txns, err := s.repo.ListByOwnerAndKind(ctx, owner, kind)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return txns, nil
}

// Update applies a partial update. Transactions mirrored from goal movements
// are rejected so goal balances stay consistent with the ledger.
func (s *Service) Update(ctx context.Context, id int64, owner string, params UpdateParams) (*Transaction, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Description != nil {
		trimmed := strings.TrimSpace(*params.Description)
		params.Description = &trimmed
	}

	if _, err := s.editable(ctx, id, owner); err != nil {
		return nil, err
	}

	txn, err := s.repo.Update(ctx, id, owner, params)
	if err != nil {
		return nil, apperr.Store(err)
	}

	s.events.Publish(ctx, events.New(owner, events.TransactionUpdated, txn.ID))
	return txn, nil
}

// Delete removes a transaction unless it belongs to a goal movement.
func (s *Service) Delete(ctx context.Context, id int64, owner string) error {
	if _, err := s.editable(ctx, id, owner); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, owner); err != nil {
		return apperr.Store(err)
	}

	s.events.Publish(ctx, events.New(owner, events.TransactionDeleted, id))
	return nil
}

// Recent returns the newest transactions for owner, optionally narrowed to a
// kind or category.
func (s *Service) Recent(ctx context.Context, filter RecentFilter) ([]*Transaction, error) {
	if strings.TrimSpace(filter.Owner) == "" {
		return nil, ErrOwnerRequired
	}
	if filter.Kind != nil && !filter.Kind.Valid() {
		return nil, ErrInvalidKind
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultRecentLimit
	}

	txns, err := s.repo.Recent(ctx, filter)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return txns, nil
}

// CategoryTotal sums owner's transactions in a category.
func (s *Service) CategoryTotal(ctx context.Context, owner string, categoryID int64) (*CategoryTotal, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}
	total, err := s.repo.SumByCategory(ctx, owner, categoryID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return total, nil
}

func (s *Service) editable(ctx context.Context, id int64, owner string) (*Transaction, error) {
	txn, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if txn.GoalLinked {
		return nil, ErrLinkedToGoal
	}
	return txn, nil
}
