package category

import (
	"context"

	"fintrax/internal/domain/transaction"
)

// Repository defines the interface for category data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	// ListVisible returns system categories plus owner's own of one kind,
	// system first, then by name.
	ListVisible(ctx context.Context, owner string, kind transaction.Kind) ([]*Category, error)
	// FindVisibleByName looks a name up case-insensitively among system and
	// owner categories. Kind narrows the search when set.
	FindVisibleByName(ctx context.Context, owner, name string, kind *transaction.Kind) (*Category, error)
	// ExistsForOwner reports whether owner already has a category named name
	// (case-insensitive) of kind.
	ExistsForOwner(ctx context.Context, owner, name string, kind transaction.Kind) (bool, error)
	Rename(ctx context.Context, id int64, name string) (*Category, error)
	Delete(ctx context.Context, id int64) error
	CountTransactions(ctx context.Context, id int64) (int, error)
}
