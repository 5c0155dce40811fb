package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"fintrax/internal/domain/category"
	"fintrax/internal/domain/transaction"
)

// CategoryService is the slice of the category service the HTTP layer drives.
type CategoryService interface {
	List(ctx context.Context, owner string, kind transaction.Kind) ([]*category.Category, error)
	Create(ctx context.Context, params category.CreateParams) (*category.Category, error)
	Rename(ctx context.Context, id int64, owner, name string) (*category.Category, error)
	Delete(ctx context.Context, id int64, owner string) error
}

type CategoryHandler struct {
	categories CategoryService
	logger     *zap.Logger
}

func NewCategoryHandler(categories CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

type CreateCategoryRequest struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
}

type RenameCategoryRequest struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// HandleCategories serves /api/categories
func (h *CategoryHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		methodNotAllowed(w)
	}
}

// HandleCategory serves /api/categories/{key}. A GET lists the categories of
// kind {key}; PUT and DELETE act on category {key}.
func (h *CategoryHandler) HandleCategory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPut:
		h.handleRename(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *CategoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	kind, err := transaction.ParseKind(r.PathValue("key"))
	if err != nil {
		fail(w, r, h.logger, "list categories", err)
		return
	}

	cats, err := h.categories.List(r.Context(), r.URL.Query().Get("owner"), kind)
	if err != nil {
		fail(w, r, h.logger, "list categories", err)
		return
	}
	if cats == nil {
		cats = []*category.Category{}
	}
	respond(w, http.StatusOK, cats)
}

func (h *CategoryHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, h.logger, "create category", err)
		return
	}

	kind, err := transaction.ParseKind(req.Kind)
	if err != nil {
		fail(w, r, h.logger, "create category", err)
		return
	}

	cat, err := h.categories.Create(r.Context(), category.CreateParams{
		Owner: req.Owner,
		Name:  req.Name,
		Kind:  kind,
	})
	if err != nil {
		fail(w, r, h.logger, "create category", err)
		return
	}
	respondMessage(w, http.StatusCreated, cat, "category created")
}

func (h *CategoryHandler) handleRename(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("key"))
	if err != nil {
		fail(w, r, h.logger, "rename category", err)
		return
	}

	var req RenameCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, h.logger, "rename category", err)
		return
	}
	owner, err := bodyOrQueryOwner(r, req.Owner)
	if err != nil {
		fail(w, r, h.logger, "rename category", err)
		return
	}

	cat, err := h.categories.Rename(r.Context(), id, owner, req.Name)
	if err != nil {
		fail(w, r, h.logger, "rename category", err)
		return
	}
	respondMessage(w, http.StatusOK, cat, "category updated")
}

func (h *CategoryHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, owner, err := idAndQueryOwner(r, r.PathValue("key"))
	if err != nil {
		fail(w, r, h.logger, "delete category", err)
		return
	}

	if err := h.categories.Delete(r.Context(), id, owner); err != nil {
		fail(w, r, h.logger, "delete category", err)
		return
	}
	respondMessage(w, http.StatusOK, map[string]int64{"id": id}, "category deleted")
}
