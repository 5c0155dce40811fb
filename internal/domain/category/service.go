package category

import (
	"context"
	"strings"

	"fintrax/internal/domain/events"
	"fintrax/internal/domain/transaction"
	"fintrax/internal/shared/apperr"
)

// Service contains the business logic for category operations
type Service struct {
	repo   Repository
	events events.Publisher
}

// NewService creates a new category service
func NewService(repo Repository, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{repo: repo, events: publisher}
}

// List returns the categories of kind that owner can use. An empty owner
// lists system categories only.
func (s *Service) List(ctx context.Context, owner string, kind transaction.Kind) ([]*Category, error) {
	if !kind.Valid() {
		return nil, transaction.ErrInvalidKind
	}
	cats, err := s.repo.ListVisible(ctx, strings.TrimSpace(owner), kind)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return cats, nil
}

// Create adds a user category, rejecting duplicate names for the same owner
// and kind.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Category, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	params.Name = strings.TrimSpace(params.Name)

	exists, err := s.repo.ExistsForOwner(ctx, params.Owner, params.Name, params.Kind)
	if err != nil {
		return nil, apperr.Store(err)
	}
	if exists {
		return nil, ErrDuplicateName
	}

	cat, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, apperr.Store(err)
	}

	s.events.Publish(ctx, events.New(params.Owner, events.CategoryCreated, cat.ID))
	return cat, nil
}

// Rename changes the name of one of owner's categories.
func (s *Service) Rename(ctx context.Context, id int64, owner, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	cat, err := s.owned(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(cat.Name, name) {
		exists, err := s.repo.ExistsForOwner(ctx, owner, name, cat.Kind)
		if err != nil {
			return nil, apperr.Store(err)
		}
		if exists {
			return nil, ErrDuplicateName
		}
	}

	updated, err := s.repo.Rename(ctx, id, name)
	if err != nil {
		return nil, apperr.Store(err)
	}

	s.events.Publish(ctx, events.New(owner, events.CategoryUpdated, id))
	return updated, nil
}

// Delete removes one of owner's categories if no transaction uses it.
func (s *Service) Delete(ctx context.Context, id int64, owner string) error {
	if _, err := s.owned(ctx, id, owner); err != nil {
		return err
	}

	count, err := s.repo.CountTransactions(ctx, id)
	if err != nil {
		return apperr.Store(err)
	}
	if count > 0 {
		return &InUseError{Count: count}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Store(err)
	}

	s.events.Publish(ctx, events.New(owner, events.CategoryDeleted, id))
	return nil
}

// FindByName resolves a category name the way a user would type it.
func (s *Service) FindByName(ctx context.Context, owner, name string, kind *transaction.Kind) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	cat, err := s.repo.FindVisibleByName(ctx, owner, name, kind)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return cat, nil
}

// owned loads a category and checks owner may change it. System categories
// are forbidden; other users' categories look missing.
func (s *Service) owned(ctx context.Context, id int64, owner string) (*Category, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}

	cat, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Store(err)
	}
	if cat.IsSystem {
		return nil, ErrSystemCategory
	}
	if cat.Owner == nil || *cat.Owner != owner {
		return nil, ErrCategoryNotFound
	}
	return cat, nil
}
