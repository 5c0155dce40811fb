package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrax/internal/domain/events"
	"fintrax/internal/domain/goal"
	"fintrax/internal/domain/transaction"
)

// SavingsCategoryName is the system category goal movements are filed under.
const SavingsCategoryName = "Ahorro"

// Ledger implements goal.Ledger on top of a PostgreSQL transaction. The goal
// row is locked with SELECT ... FOR UPDATE, so movements on the same goal
// serialize while different goals proceed in parallel.
type Ledger struct {
	db *DB
}

func NewLedger(db *DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Atomically(ctx context.Context, fn func(ctx context.Context, tx goal.LedgerTx) error) error {
	return l.db.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		return fn(ctx, &ledgerTx{tx: tx})
	})
}

type ledgerTx struct {
	tx *Tx
}

func (t *ledgerTx) LockGoal(ctx context.Context, id int64, owner string) (*goal.Goal, error) {
	query := `SELECT ` + goalColumns + `
		FROM savings_goals
		WHERE id = $1 AND usuario_documento = $2
		FOR UPDATE`
	return oneGoal(t.tx.QueryRowContext(ctx, query, id, owner), "lock")
}

func (t *ledgerTx) SetBalance(ctx context.Context, id int64, amount decimal.Decimal) (*goal.Goal, error) {
	query := `
		UPDATE savings_goals SET monto_actual = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + goalColumns

	g, err := oneGoal(t.tx.QueryRowContext(ctx, query, id, amount), "set balance of")
	if err != nil {
		return nil, balanceError(err)
	}
	return g, nil
}

// balanceError maps the monto_actual column constraints onto goal errors.
func balanceError(err error) error {
	switch {
	case hasCode(err, checkViolation):
		return goal.ErrInsufficientFunds
	case hasCode(err, numericOutOfRange):
		return goal.ErrBalanceLimit
	}
	return err
}

func (t *ledgerTx) SavingsCategoryID(ctx context.Context, kind transaction.Kind) (*int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `
		SELECT id FROM categories
		WHERE usuario_documento IS NULL AND LOWER(nombre) = LOWER($1) AND tipo = $2
		ORDER BY id
		LIMIT 1
	`, SavingsCategoryName, kind).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up savings category: %w", err)
	}
	return &id, nil
}

func (t *ledgerTx) RecordTransaction(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	txn, err := insertTransaction(ctx, t.tx, params)
	if err != nil {
		return nil, err
	}
	txn.GoalLinked = true
	return txn, nil
}

func (t *ledgerTx) AddContribution(ctx context.Context, params goal.ContributionParams) (*goal.Contribution, error) {
	query := `
		WITH gc AS (
			INSERT INTO goal_contributions (meta_id, transaccion_id, tipo, monto, nota)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''))
			RETURNING *
		)
		SELECT gc.id, gc.meta_id, gc.transaccion_id, gc.tipo, gc.monto, COALESCE(gc.nota, ''),
		       gc.created_at, t.descripcion, t.fecha
		FROM gc
		JOIN transactions t ON t.id = gc.transaccion_id
	`

	c, err := scanContribution(t.tx.QueryRowContext(ctx, query,
		params.GoalID, params.TransactionID, params.Kind, params.Amount, params.Note))
	if err != nil {
		return nil, fmt.Errorf("failed to add contribution: %w", err)
	}
	return c, nil
}

func (t *ledgerTx) DeleteContributions(ctx context.Context, goalID int64) (int, error) {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM goal_contributions WHERE meta_id = $1`, goalID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contributions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete contributions: %w", err)
	}
	return int(n), nil
}

func (t *ledgerTx) DeleteGoal(ctx context.Context, id int64) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if n == 0 {
		return goal.ErrGoalNotFound
	}
	return nil
}

// Publish queues the event with pg_notify. PostgreSQL delivers notifications
// only when the surrounding transaction commits.
func (t *ledgerTx) Publish(ctx context.Context, e events.Event) error {
	return notify(ctx, t.tx, e)
}

func notify(ctx context.Context, q queryer, e events.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := q.ExecContext(ctx, `SELECT pg_notify($1, $2)`, events.Channel, string(payload)); err != nil {
		return fmt.Errorf("failed to notify %s: %w", events.Channel, err)
	}
	return nil
}
