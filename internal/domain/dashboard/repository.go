package dashboard

import (
	"context"
	"time"

	"fintrax/internal/domain/transaction"
)

// Repository defines the read-only reporting queries. A nil since means no
// lower bound.
type Repository interface {
	Totals(ctx context.Context, owner string, since *time.Time) (*Totals, error)
	// Breakdown sums one kind per category, largest first. Uncategorised
	// transactions are grouped under a single label.
	Breakdown(ctx context.Context, owner string, kind transaction.Kind, since *time.Time) ([]CategoryAmount, error)
	// Monthly returns one point per calendar month, oldest first.
	Monthly(ctx context.Context, owner string, since *time.Time) ([]MonthlyPoint, error)
}
