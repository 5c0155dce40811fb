package postgres

import (
	"context"
	"fmt"
	"time"

	"fintrax/internal/domain/dashboard"
	"fintrax/internal/domain/transaction"
)

// UncategorizedLabel groups transactions without a category in breakdowns.
const UncategorizedLabel = "Sin categoría"

// DashboardRepository implements dashboard.Repository for PostgreSQL
type DashboardRepository struct {
	db *DB
}

func NewDashboardRepository(db *DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) Totals(ctx context.Context, owner string, since *time.Time) (*dashboard.Totals, error) {
	query := `
		SELECT
			COALESCE(SUM(monto) FILTER (WHERE tipo = 'ingreso'), 0),
			COALESCE(SUM(monto) FILTER (WHERE tipo = 'gasto'), 0)
		FROM transactions
		WHERE usuario_documento = $1
		  AND ($2::TIMESTAMPTZ IS NULL OR fecha >= $2::TIMESTAMPTZ)
	`

	var t dashboard.Totals
	if err := r.db.QueryRowContext(ctx, query, owner, nullable(since)).Scan(&t.Income, &t.Expenses); err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}
	t.Balance = t.Income.Sub(t.Expenses)
	return &t, nil
}

func (r *DashboardRepository) Breakdown(ctx context.Context, owner string, kind transaction.Kind, since *time.Time) ([]dashboard.CategoryAmount, error) {
	query := `
		SELECT COALESCE(c.nombre, $4::TEXT), SUM(t.monto), COUNT(*)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.categoria_id
		WHERE t.usuario_documento = $1
		  AND t.tipo = $2
		  AND ($3::TIMESTAMPTZ IS NULL OR t.fecha >= $3::TIMESTAMPTZ)
		GROUP BY 1
		ORDER BY 2 DESC, 1
	`

	rows, err := r.db.QueryContext(ctx, query, owner, kind, nullable(since), UncategorizedLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to compute category breakdown: %w", err)
	}
	defer rows.Close()

	var out []dashboard.CategoryAmount
	for rows.Next() {
		var a dashboard.CategoryAmount
		if err := rows.Scan(&a.Category, &a.Total, &a.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category breakdown: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *DashboardRepository) Monthly(ctx context.Context, owner string, since *time.Time) ([]dashboard.MonthlyPoint, error) {
	query := `
		SELECT TO_CHAR(m.month, 'YYYY-MM'), TO_CHAR(m.month, 'Mon YYYY'), m.income, m.expenses
		FROM (
			SELECT
				DATE_TRUNC('month', fecha) AS month,
				COALESCE(SUM(monto) FILTER (WHERE tipo = 'ingreso'), 0) AS income,
				COALESCE(SUM(monto) FILTER (WHERE tipo = 'gasto'), 0) AS expenses
			FROM transactions
			WHERE usuario_documento = $1
			  AND ($2::TIMESTAMPTZ IS NULL OR fecha >= $2::TIMESTAMPTZ)
			GROUP BY DATE_TRUNC('month', fecha)
		) m
		ORDER BY m.month
	`

	rows, err := r.db.QueryContext(ctx, query, owner, nullable(since))
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly evolution: %w", err)
	}
	defer rows.Close()

	var out []dashboard.MonthlyPoint
	for rows.Next() {
		var p dashboard.MonthlyPoint
		if err := rows.Scan(&p.Month, &p.Label, &p.Income, &p.Expenses); err != nil {
			return nil, fmt.Errorf("failed to scan monthly evolution: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
