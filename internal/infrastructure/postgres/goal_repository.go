package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrax/internal/domain/goal"
)

// GoalRepository implements goal.Repository for PostgreSQL
type GoalRepository struct {
	db *DB
}

func NewGoalRepository(db *DB) *GoalRepository {
	return &GoalRepository{db: db}
}

const goalColumns = `
	id, usuario_documento, nombre, COALESCE(descripcion, ''), monto_objetivo, monto_actual,
	fecha_objetivo, icono, color, prioridad, estado, created_at, updated_at`

func scanGoal(row scanner) (*goal.Goal, error) {
	var (
		g          goal.Goal
		targetDate sql.NullTime
	)
	err := row.Scan(
		&g.ID, &g.Owner, &g.Name, &g.Description, &g.TargetAmount, &g.CurrentAmount,
		&targetDate, &g.Icon, &g.Color, &g.Priority, &g.State, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if targetDate.Valid {
		d := targetDate.Time
		g.TargetDate = &d
	}
	return &g, nil
}

// oneGoal scans a single goal row, mapping no rows to ErrGoalNotFound.
func oneGoal(row scanner, op string) (*goal.Goal, error) {
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goal.ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s goal: %w", op, err)
	}
	return g, nil
}

func (r *GoalRepository) Create(ctx context.Context, params goal.CreateParams) (*goal.Goal, error) {
	query := `
		INSERT INTO savings_goals
			(usuario_documento, nombre, descripcion, monto_objetivo, fecha_objetivo, icono, color, prioridad)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
		RETURNING ` + goalColumns

	return oneGoal(r.db.QueryRowContext(ctx, query,
		params.Owner,
		params.Name,
		params.Description,
		params.TargetAmount,
		nullable(params.TargetDate),
		params.Icon,
		params.Color,
		nullable(params.Priority),
	), "create")
}

func (r *GoalRepository) GetByID(ctx context.Context, id int64, owner string) (*goal.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM savings_goals WHERE id = $1 AND usuario_documento = $2`
	return oneGoal(r.db.QueryRowContext(ctx, query, id, owner), "get")
}

func (r *GoalRepository) ListByOwner(ctx context.Context, owner string) ([]*goal.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM savings_goals WHERE usuario_documento = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []*goal.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *GoalRepository) Update(ctx context.Context, id int64, owner string, params goal.UpdateParams) (*goal.Goal, error) {
	query := `
		UPDATE savings_goals SET
			nombre         = COALESCE($3::TEXT, nombre),
			descripcion    = COALESCE($4::TEXT, descripcion),
			monto_objetivo = COALESCE($5::NUMERIC, monto_objetivo),
			fecha_objetivo = COALESCE($6::DATE, fecha_objetivo),
			icono          = COALESCE($7::TEXT, icono),
			color          = COALESCE($8::TEXT, color),
			prioridad      = COALESCE($9::INTEGER, prioridad),
			updated_at     = NOW()
		WHERE id = $1 AND usuario_documento = $2
		RETURNING ` + goalColumns

	return oneGoal(r.db.QueryRowContext(ctx, query, id, owner,
		nullable(params.Name),
		nullable(params.Description),
		nullable(params.TargetAmount),
		nullable(params.TargetDate),
		nullable(params.Icon),
		nullable(params.Color),
		nullable(params.Priority),
	), "update")
}

func (r *GoalRepository) SetState(ctx context.Context, id int64, owner string, state goal.State) (*goal.Goal, error) {
	query := `
		UPDATE savings_goals SET estado = $3, updated_at = NOW()
		WHERE id = $1 AND usuario_documento = $2
		RETURNING ` + goalColumns

	return oneGoal(r.db.QueryRowContext(ctx, query, id, owner, state), "update state of")
}

func (r *GoalRepository) ListContributions(ctx context.Context, goalID int64) ([]*goal.Contribution, error) {
	query := `
		SELECT gc.id, gc.meta_id, gc.transaccion_id, gc.tipo, gc.monto, COALESCE(gc.nota, ''),
		       gc.created_at, t.descripcion, t.fecha
		FROM goal_contributions gc
		JOIN transactions t ON t.id = gc.transaccion_id
		WHERE gc.meta_id = $1
		ORDER BY gc.created_at DESC, gc.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []*goal.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

func scanContribution(row scanner) (*goal.Contribution, error) {
	var c goal.Contribution
	err := row.Scan(
		&c.ID, &c.GoalID, &c.TransactionID, &c.Kind, &c.Amount, &c.Note,
		&c.CreatedAt, &c.TransactionDescription, &c.TransactionDate,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
