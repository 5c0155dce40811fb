package goal

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrax/internal/shared/apperr"
)

// DefaultReconcileWorkers bounds how many owners are audited at once.
const DefaultReconcileWorkers = 4

// Balance is a goal's stored balance next to the totals of its history.
type Balance struct {
	GoalID    int64
	Name      string
	Current   decimal.Decimal
	Funded    decimal.Decimal
	Withdrawn decimal.Decimal
}

// Expected is what the balance should be according to the history.
func (b Balance) Expected() decimal.Decimal {
	return b.Funded.Sub(b.Withdrawn)
}

// AuditRepository reads balances and their histories for reconciliation.
type AuditRepository interface {
	ListOwners(ctx context.Context) ([]string, error)
	Balances(ctx context.Context, owner string) ([]Balance, error)
}

// Drift is a goal whose stored balance disagrees with its history.
type Drift struct {
	GoalID   int64           `json:"goal_id"`
	Name     string          `json:"name"`
	Stored   decimal.Decimal `json:"stored"`
	Expected decimal.Decimal `json:"expected"`
	Diff     decimal.Decimal `json:"diff"`
}

// ReconcileResult is the audit outcome for one owner.
type ReconcileResult struct {
	Owner        string  `json:"owner"`
	GoalsChecked int     `json:"goals_checked"`
	Drifts       []Drift `json:"drifts"`
	Err          error   `json:"-"`
}

// Reconciler checks that every balance equals funded minus withdrawn. It
// only reports drift; fixing it is left to an operator.
type Reconciler struct {
	repo    AuditRepository
	workers int
}

func NewReconciler(repo AuditRepository, workers int) *Reconciler {
	if workers <= 0 {
		workers = DefaultReconcileWorkers
	}
	return &Reconciler{repo: repo, workers: workers}
}

// Owners lists every owner holding at least one goal.
func (r *Reconciler) Owners(ctx context.Context) ([]string, error) {
	owners, err := r.repo.ListOwners(ctx)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return owners, nil
}

// ReconcileOwner audits all of one owner's goals.
func (r *Reconciler) ReconcileOwner(ctx context.Context, owner string) (*ReconcileResult, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}

	balances, err := r.repo.Balances(ctx, owner)
	if err != nil {
		return nil, apperr.Store(err)
	}

	result := &ReconcileResult{Owner: owner, GoalsChecked: len(balances), Drifts: []Drift{}}
	for _, b := range balances {
		expected := b.Expected()
		if b.Current.Equal(expected) {
			continue
		}
		result.Drifts = append(result.Drifts, Drift{
			GoalID:   b.GoalID,
			Name:     b.Name,
			Stored:   b.Current,
			Expected: expected,
			Diff:     b.Current.Sub(expected),
		})
	}
	return result, nil
}

// ReconcileOwners audits owners concurrently. A failing owner is reported in
// its result and does not stop the others; only cancellation does.
func (r *Reconciler) ReconcileOwners(ctx context.Context, owners []string) (map[string]*ReconcileResult, error) {
	var (
		mu      sync.Mutex
		results = make(map[string]*ReconcileResult, len(owners))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, owner := range owners {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.ReconcileOwner(gctx, owner)
			if err != nil {
				res = &ReconcileResult{Owner: owner, Err: err}
			}
			mu.Lock()
			results[owner] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
