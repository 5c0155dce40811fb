package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fintrax/internal/domain/goal"
)

// GoalService is the slice of the goal ledger the HTTP layer drives.
type GoalService interface {
	Create(ctx context.Context, params goal.CreateParams) (*goal.View, error)
	Get(ctx context.Context, id int64, owner string) (*goal.View, error)
	List(ctx context.Context, owner, stateFilter string) ([]goal.View, error)
	Update(ctx context.Context, id int64, owner string, params goal.UpdateParams) (*goal.View, error)
	ChangeState(ctx context.Context, id int64, owner, state string) (*goal.View, error)
	Fund(ctx context.Context, params goal.MovementParams) (*goal.MovementResult, error)
	Withdraw(ctx context.Context, params goal.MovementParams) (*goal.MovementResult, error)
	Delete(ctx context.Context, id int64, owner string) (*goal.DeleteResult, error)
	History(ctx context.Context, id int64, owner string) ([]*goal.Contribution, error)
	Summary(ctx context.Context, owner string) (*goal.Summary, error)
}

type GoalHandler struct {
	goals  GoalService
	logger *zap.Logger
}

func NewGoalHandler(goals GoalService, logger *zap.Logger) *GoalHandler {
	return &GoalHandler{goals: goals, logger: logger}
}

// Request DTOs

type CreateGoalRequest struct {
	Owner        string          `json:"owner"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	TargetDate   *string         `json:"target_date"`
	Icon         string          `json:"icon"`
	Color        string          `json:"color"`
	Priority     *int            `json:"priority"`
}

type UpdateGoalRequest struct {
	Owner        string           `json:"owner"`
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	TargetDate   *string          `json:"target_date"`
	Icon         *string          `json:"icon"`
	Color        *string          `json:"color"`
	Priority     *int             `json:"priority"`
}

type MovementRequest struct {
	Owner  string          `json:"owner"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

type ChangeStateRequest struct {
	Owner string `json:"owner"`
	State string `json:"state"`
}

// HandleGoals serves /api/goals
func (h *GoalHandler) HandleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		methodNotAllowed(w)
	}
}

// HandleGoal serves /api/goals/{a}. A GET lists the goals of owner {a};
// PUT and DELETE act on goal {a}.
func (h *GoalHandler) HandleGoal(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r, r.PathValue("a"))
	case http.MethodPut:
		h.handleUpdate(w, r, r.PathValue("a"))
	case http.MethodDelete:
		h.handleDelete(w, r, r.PathValue("a"))
	default:
		methodNotAllowed(w)
	}
}

// HandleGoalAction serves /api/goals/{a}/{b}: detail/{id}, summary/{owner},
// and {id}/contribute, {id}/withdraw, {id}/state, {id}/history.
func (h *GoalHandler) HandleGoalAction(w http.ResponseWriter, r *http.Request) {
	a, b := r.PathValue("a"), r.PathValue("b")

	type route struct{ segment, method string }
	switch (route{a, r.Method}) {
	case route{"detail", http.MethodGet}:
		h.handleDetail(w, r, b)
		return
	case route{"summary", http.MethodGet}:
		h.handleSummary(w, r, b)
		return
	}
	if a == "detail" || a == "summary" {
		methodNotAllowed(w)
		return
	}

	switch (route{b, r.Method}) {
	case route{"contribute", http.MethodPost}:
		h.handleMovement(w, r, a, goal.MovementFund)
	case route{"withdraw", http.MethodPost}:
		h.handleMovement(w, r, a, goal.MovementWithdraw)
	case route{"state", http.MethodPut}:
		h.handleChangeState(w, r, a)
	case route{"history", http.MethodGet}:
		h.handleHistory(w, r, a)
	default:
		switch b {
		case "contribute", "withdraw", "state", "history":
			methodNotAllowed(w)
		default:
			respondError(w, http.StatusNotFound, CodeNotFound, "route not found")
		}
	}
}

func (h *GoalHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, h.logger, "create goal", err)
		return
	}

	targetDate, err := parseDate("target_date", req.TargetDate)
	if err != nil {
		fail(w, r, h.logger, "create goal", err)
		return
	}

	view, err := h.goals.Create(r.Context(), goal.CreateParams{
		Owner:        req.Owner,
		Name:         req.Name,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		TargetDate:   targetDate,
		Icon:         req.Icon,
		Color:        req.Color,
		Priority:     req.Priority,
	})
	if err != nil {
		fail(w, r, h.logger, "create goal", err)
		return
	}

	respondMessage(w, http.StatusCreated, view, "goal created")
}

func (h *GoalHandler) handleList(w http.ResponseWriter, r *http.Request, owner string) {
	q := r.URL.Query()
	state := q.Get("estado")
	if state == "" {
		state = q.Get("state")
	}

	views, err := h.goals.List(r.Context(), owner, state)
	if err != nil {
		fail(w, r, h.logger, "list goals", err)
		return
	}
	respond(w, http.StatusOK, views)
}

func (h *GoalHandler) handleDetail(w http.ResponseWriter, r *http.Request, rawID string) {
	id, owner, err := idAndQueryOwner(r, rawID)
	if err != nil {
		fail(w, r, h.logger, "get goal", err)
		return
	}

	view, err := h.goals.Get(r.Context(), id, owner)
	if err != nil {
		fail(w, r, h.logger, "get goal", err)
		return
	}
	respond(w, http.StatusOK, view)
}

func (h *GoalHandler) handleSummary(w http.ResponseWriter, r *http.Request, owner string) {
	summary, err := h.goals.Summary(r.Context(), owner)
	if err != nil {
		fail(w, r, h.logger, "goal summary", err)
		return
	}
	respond(w, http.StatusOK, summary)
}

func (h *GoalHandler) handleUpdate(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := parseID(rawID)
	if err != nil {
		fail(w, r, h.logger, "update goal", err)
		return
	}

	var req UpdateGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, h.logger, "update goal", err)
		return
	}
	owner, err := bodyOrQueryOwner(r, req.Owner)
	if err != nil {
		fail(w, r, h.logger, "update goal", err)
		return
	}
	targetDate, err := parseDate("target_date", req.TargetDate)
	if err != nil {
		fail(w, r, h.logger, "update goal", err)
		return
	}

	view, err := h.goals.Update(r.Context(), id, owner, goal.UpdateParams{
		Name:         req.Name,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		TargetDate:   targetDate,
		Icon:         req.Icon,
		Color:        req.Color,
		Priority:     req.Priority,
	})
	if err != nil {
		fail(w, r, h.logger, "update goal", err)
		return
	}
	respondMessage(w, http.StatusOK, view, "goal updated")
}

func (h *GoalHandler) handleDelete(w http.ResponseWriter, r *http.Request, rawID string) {
	id, owner, err := idAndQueryOwner(r, rawID)
	if err != nil {
		fail(w, r, h.logger, "delete goal", err)
		return
	}

	result, err := h.goals.Delete(r.Context(), id, owner)
	if err != nil {
		fail(w, r, h.logger, "delete goal", err)
		return
	}

	message := "goal deleted"
	if result.Refunded {
		message = "goal deleted and balance returned"
	}
	respondMessage(w, http.StatusOK, result, message)
}

func (h *GoalHandler) handleMovement(w http.ResponseWriter, r *http.Request, rawID string, kind goal.MovementKind) {
	op := "fund goal"
	if kind == goal.MovementWithdraw {
		op = "withdraw from goal"
	}

	id, err := parseID(rawID)
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}

	var req MovementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	owner, err := bodyOrQueryOwner(r, req.Owner)
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}

	params := goal.MovementParams{GoalID: id, Owner: owner, Amount: req.Amount, Note: req.Note}
	var result *goal.MovementResult
	if kind == goal.MovementWithdraw {
		result, err = h.goals.Withdraw(r.Context(), params)
	} else {
		result, err = h.goals.Fund(r.Context(), params)
	}
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	respond(w, http.StatusOK, result)
}

func (h *GoalHandler) handleChangeState(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := parseID(rawID)
	if err != nil {
		fail(w, r, h.logger, "change goal state", err)
		return
	}

	var req ChangeStateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, h.logger, "change goal state", err)
		return
	}
	owner, err := bodyOrQueryOwner(r, req.Owner)
	if err != nil {
		fail(w, r, h.logger, "change goal state", err)
		return
	}

	view, err := h.goals.ChangeState(r.Context(), id, owner, req.State)
	if err != nil {
		fail(w, r, h.logger, "change goal state", err)
		return
	}
	respond(w, http.StatusOK, view)
}

func (h *GoalHandler) handleHistory(w http.ResponseWriter, r *http.Request, rawID string) {
	id, owner, err := idAndQueryOwner(r, rawID)
	if err != nil {
		fail(w, r, h.logger, "goal history", err)
		return
	}

	history, err := h.goals.History(r.Context(), id, owner)
	if err != nil {
		fail(w, r, h.logger, "goal history", err)
		return
	}
	if history == nil {
		history = []*goal.Contribution{}
	}
	respond(w, http.StatusOK, history)
}

func idAndQueryOwner(r *http.Request, rawID string) (int64, string, error) {
	id, err := parseID(rawID)
	if err != nil {
		return 0, "", err
	}
	owner, err := queryOwner(r)
	if err != nil {
		return 0, "", err
	}
	return id, owner, nil
}

// bodyOrQueryOwner prefers the owner sent in the body.
func bodyOrQueryOwner(r *http.Request, bodyOwner string) (string, error) {
	if strings.TrimSpace(bodyOwner) != "" {
		return requireOwner(bodyOwner)
	}
	return queryOwner(r)
}
