package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrax/internal/domain/transaction"
)

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	t.id, t.usuario_documento, t.categoria_id, COALESCE(c.nombre, ''), t.tipo, t.monto,
	t.descripcion, t.fecha,
	EXISTS (SELECT 1 FROM goal_contributions gc WHERE gc.transaccion_id = t.id),
	t.created_at, t.updated_at`

func scanTransaction(row scanner) (*transaction.Transaction, error) {
	var (
		t          transaction.Transaction
		categoryID sql.NullInt64
	)
	err := row.Scan(
		&t.ID, &t.Owner, &categoryID, &t.CategoryName, &t.Kind, &t.Amount,
		&t.Description, &t.Date, &t.GoalLinked, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	return &t, nil
}

// insertTransaction writes a transaction through q. The category, when set,
// must be a system category or one of the owner's; otherwise no row is
// inserted and ErrUnknownCategory is returned.
func insertTransaction(ctx context.Context, q queryer, params transaction.CreateParams) (*transaction.Transaction, error) {
	query := `
		WITH t AS (
			INSERT INTO transactions (usuario_documento, categoria_id, tipo, monto, descripcion, fecha)
			SELECT $1::TEXT, $2::BIGINT, $3::TEXT, $4::NUMERIC, $5::TEXT, $6::TIMESTAMPTZ
			WHERE $2::BIGINT IS NULL OR EXISTS (
				SELECT 1 FROM categories
				WHERE id = $2::BIGINT AND (usuario_documento IS NULL OR usuario_documento = $1::TEXT)
			)
			RETURNING *
		)
		SELECT t.id, t.usuario_documento, t.categoria_id, COALESCE(c.nombre, ''), t.tipo, t.monto,
		       t.descripcion, t.fecha, false, t.created_at, t.updated_at
		FROM t
		LEFT JOIN categories c ON c.id = t.categoria_id
	`

	txn, err := scanTransaction(q.QueryRowContext(ctx, query,
		params.Owner,
		nullable(params.CategoryID),
		params.Kind,
		params.Amount,
		params.Description,
		params.Date,
	))
	if err != nil {
		return nil, insertError(err)
	}
	return txn, nil
}

// insertError maps a failed transaction insert onto domain errors. No rows
// means the category filter in the insert rejected a foreign category.
func insertError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows), hasCode(err, foreignKeyViolation):
		return transaction.ErrUnknownCategory
	case hasCode(err, checkViolation), hasCode(err, numericOutOfRange):
		return transaction.ErrInvalidAmount
	}
	return fmt.Errorf("failed to insert transaction: %w", err)
}

func (r *TransactionRepository) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	return insertTransaction(ctx, r.db, params)
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64, owner string) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.categoria_id
		WHERE t.id = $1 AND t.usuario_documento = $2
	`

	txn, err := scanTransaction(r.db.QueryRowContext(ctx, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

func (r *TransactionRepository) ListByOwnerAndKind(ctx context.Context, owner string, kind transaction.Kind) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.categoria_id
		WHERE t.usuario_documento = $1 AND t.tipo = $2
		ORDER BY t.fecha DESC, t.id DESC
	`
	return r.list(ctx, query, owner, kind)
}

func (r *TransactionRepository) Recent(ctx context.Context, filter transaction.RecentFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.categoria_id
		WHERE t.usuario_documento = $1
		  AND ($2::TEXT IS NULL OR t.tipo = $2::TEXT)
		  AND ($3::BIGINT IS NULL OR t.categoria_id = $3::BIGINT)
		ORDER BY t.fecha DESC, t.id DESC
		LIMIT $4
	`
	return r.list(ctx, query, filter.Owner, nullable(filter.Kind), nullable(filter.CategoryID), filter.Limit)
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]*transaction.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*transaction.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func (r *TransactionRepository) Update(ctx context.Context, id int64, owner string, params transaction.UpdateParams) (*transaction.Transaction, error) {
	query := `
		UPDATE transactions SET
			categoria_id = COALESCE($3::BIGINT, categoria_id),
			tipo         = COALESCE($4::TEXT, tipo),
			monto        = COALESCE($5::NUMERIC, monto),
			descripcion  = COALESCE($6::TEXT, descripcion),
			fecha        = COALESCE($7::TIMESTAMPTZ, fecha),
			updated_at   = NOW()
		WHERE id = $1 AND usuario_documento = $2
		  AND ($3::BIGINT IS NULL OR EXISTS (
			SELECT 1 FROM categories
			WHERE id = $3::BIGINT AND (usuario_documento IS NULL OR usuario_documento = $2)
		  ))
	`

	result, err := r.db.ExecContext(ctx, query, id, owner,
		nullable(params.CategoryID),
		nullable(params.Kind),
		nullable(params.Amount),
		nullable(params.Description),
		nullable(params.Date),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	if n == 0 {
		if params.CategoryID != nil {
			return nil, transaction.ErrUnknownCategory
		}
		return nil, transaction.ErrTransactionNotFound
	}
	return r.GetByID(ctx, id, owner)
}

// Delete removes an owner's transaction. A transaction still mirrored by a
// goal contribution is refused by the foreign key.
func (r *TransactionRepository) Delete(ctx context.Context, id int64, owner string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = $1 AND usuario_documento = $2`, id, owner)
	if hasCode(err, foreignKeyViolation) {
		return transaction.ErrLinkedToGoal
	}
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n == 0 {
		return transaction.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) SumByCategory(ctx context.Context, owner string, categoryID int64) (*transaction.CategoryTotal, error) {
	var total transaction.CategoryTotal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(monto), 0), COUNT(*)
		FROM transactions
		WHERE usuario_documento = $1 AND categoria_id = $2
	`, owner, categoryID).Scan(&total.Total, &total.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to sum category transactions: %w", err)
	}
	return &total, nil
}
