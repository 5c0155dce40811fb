package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrax/internal/domain/category"
	"fintrax/internal/domain/transaction"
)

// CategoryRepository implements category.Repository for PostgreSQL
type CategoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, usuario_documento, nombre, tipo, created_at`

func scanCategory(row scanner) (*category.Category, error) {
	var (
		c     category.Category
		owner sql.NullString
	)
	if err := row.Scan(&c.ID, &owner, &c.Name, &c.Kind, &c.CreatedAt); err != nil {
		return nil, err
	}
	if owner.Valid {
		c.Owner = &owner.String
	} else {
		c.IsSystem = true
	}
	return &c, nil
}

func oneCategory(row scanner, op string) (*category.Category, error) {
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, category.ErrCategoryNotFound
	}
	if hasCode(err, uniqueViolation) {
		return nil, category.ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s category: %w", op, err)
	}
	return c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, params category.CreateParams) (*category.Category, error) {
	query := `
		INSERT INTO categories (usuario_documento, nombre, tipo)
		VALUES ($1, $2, $3)
		RETURNING ` + categoryColumns
	return oneCategory(r.db.QueryRowContext(ctx, query, params.Owner, params.Name, params.Kind), "create")
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*category.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	return oneCategory(r.db.QueryRowContext(ctx, query, id), "get")
}

func (r *CategoryRepository) ListVisible(ctx context.Context, owner string, kind transaction.Kind) ([]*category.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE tipo = $2 AND (usuario_documento IS NULL OR usuario_documento = $1)
		ORDER BY (usuario_documento IS NULL) DESC, LOWER(nombre), id
	`

	rows, err := r.db.QueryContext(ctx, query, owner, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*category.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// FindVisibleByName prefers the owner's own category over a system one of
// the same name.
func (r *CategoryRepository) FindVisibleByName(ctx context.Context, owner, name string, kind *transaction.Kind) (*category.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE (usuario_documento IS NULL OR usuario_documento = $1)
		  AND LOWER(nombre) = LOWER($2)
		  AND ($3::TEXT IS NULL OR tipo = $3::TEXT)
		ORDER BY (usuario_documento IS NULL), id
		LIMIT 1
	`
	return oneCategory(r.db.QueryRowContext(ctx, query, owner, name, nullable(kind)), "find")
}

func (r *CategoryRepository) ExistsForOwner(ctx context.Context, owner, name string, kind transaction.Kind) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM categories
			WHERE usuario_documento = $1 AND LOWER(nombre) = LOWER($2) AND tipo = $3
		)
	`, owner, name, kind).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return exists, nil
}

func (r *CategoryRepository) Rename(ctx context.Context, id int64, name string) (*category.Category, error) {
	query := `
		UPDATE categories SET nombre = $2
		WHERE id = $1 AND usuario_documento IS NOT NULL
		RETURNING ` + categoryColumns
	return oneCategory(r.db.QueryRowContext(ctx, query, id, name), "rename")
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1 AND usuario_documento IS NOT NULL`, id)
	if hasCode(err, foreignKeyViolation) {
		return category.ErrCategoryInUse
	}
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n == 0 {
		return category.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) CountTransactions(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE categoria_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count category transactions: %w", err)
	}
	return count, nil
}
