package transaction

import "context"

// Repository defines the interface for transaction data access.
// Every lookup is scoped to the owning user.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Transaction, error)
	GetByID(ctx context.Context, id int64, owner string) (*Transaction, error)
	ListByOwnerAndKind(ctx context.Context, owner string, kind Kind) ([]*Transaction, error)
	Update(ctx context.Context, id int64, owner string, params UpdateParams) (*Transaction, error)
	Delete(ctx context.Context, id int64, owner string) error
	// Recent returns the newest transactions matching the filter.
	Recent(ctx context.Context, filter RecentFilter) ([]*Transaction, error)
	SumByCategory(ctx context.Context, owner string, categoryID int64) (*CategoryTotal, error)
}
