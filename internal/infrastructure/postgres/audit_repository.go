package postgres

import (
	"context"
	"fmt"

	"fintrax/internal/domain/goal"
)

// GoalAuditRepository implements goal.AuditRepository for PostgreSQL
type GoalAuditRepository struct {
	db *DB
}

func NewGoalAuditRepository(db *DB) *GoalAuditRepository {
	return &GoalAuditRepository{db: db}
}

func (r *GoalAuditRepository) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT usuario_documento
		FROM savings_goals
		ORDER BY usuario_documento`)
	if err != nil {
		return nil, fmt.Errorf("failed to list goal owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("failed to scan goal owner: %w", err)
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

func (r *GoalAuditRepository) Balances(ctx context.Context, owner string) ([]goal.Balance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			m.id,
			m.nombre,
			m.monto_actual,
			COALESCE(SUM(a.monto) FILTER (WHERE a.tipo = 'aporte'), 0),
			COALESCE(SUM(a.monto) FILTER (WHERE a.tipo = 'retiro'), 0)
		FROM savings_goals m
		LEFT JOIN goal_contributions a ON a.meta_id = m.id
		WHERE m.usuario_documento = $1
		GROUP BY m.id, m.nombre, m.monto_actual
		ORDER BY m.id`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load goal balances: %w", err)
	}
	defer rows.Close()

	var balances []goal.Balance
	for rows.Next() {
		var b goal.Balance
		if err := rows.Scan(&b.GoalID, &b.Name, &b.Current, &b.Funded, &b.Withdrawn); err != nil {
			return nil, fmt.Errorf("failed to scan goal balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
