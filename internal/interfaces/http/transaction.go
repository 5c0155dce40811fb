package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fintrax/internal/domain/transaction"
	"fintrax/internal/shared/apperr"
)

// TransactionService is the slice of the transaction service the HTTP layer drives.
type TransactionService interface {
	Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
	Get(ctx context.Context, id int64, owner string) (*transaction.Transaction, error)
	ListByKind(ctx context.Context, owner string, kind transaction.Kind) ([]*transaction.Transaction, error)
	Update(ctx context.Context, id int64, owner string, params transaction.UpdateParams) (*transaction.Transaction, error)
	Delete(ctx context.Context, id int64, owner string) error
}

type TransactionHandler struct {
	transactions TransactionService
	logger       *zap.Logger
	now          func() time.Time
}

func NewTransactionHandler(transactions TransactionService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, logger: logger, now: time.Now}
}

type CreateTransactionRequest struct {
	Owner       string          `json:"owner"`
	CategoryID  *int64          `json:"category_id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        *string         `json:"date"`
}

type UpdateTransactionRequest struct {
	Owner       string           `json:"owner"`
	CategoryID  *int64           `json:"category_id"`
	Kind        *string          `json:"kind"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	Date        *string          `json:"date"`
}

// HandleTransactions serves /api/transactions
func (h *TransactionHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		methodNotAllowed(w)
	}
}

// HandleTransactionByID serves /api/transactions/{id}
func (h *TransactionHandler) HandleTransactionByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPut:
		h.handleUpdate(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		methodNotAllowed(w)
	}
}

// HandleTransactionsByKind serves /api/transactions/{owner}/{kind}
func (h *TransactionHandler) HandleTransactionsByKind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	kind, err := transaction.ParseKind(r.PathValue("kind"))
	if err != nil {
		fail(w, r, h.logger, "list transactions", err)
		return
	}

	txns, err := h.transactions.ListByKind(r.Context(), r.PathValue("owner"), kind)
	if err != nil {
		fail(w, r, h.logger, "list transactions", err)
		return
	}
	if txns == nil {
		txns = []*transaction.Transaction{}
	}
	respond(w, http.StatusOK, txns)
}

func (h *TransactionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, h.logger, "create transaction", err)
		return
	}

	kind, err := transaction.ParseKind(req.Kind)
	if err != nil {
		fail(w, r, h.logger, "create transaction", err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		fail(w, r, h.logger, "create transaction", err)
		return
	}
	if date == nil {
		today := h.now()
		date = &today
	}

	txn, err := h.transactions.Create(r.Context(), transaction.CreateParams{
		Owner:       req.Owner,
		CategoryID:  req.CategoryID,
		Kind:        kind,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        *date,
	})
	if err != nil {
		fail(w, r, h.logger, "create transaction", err)
		return
	}
	respondMessage(w, http.StatusCreated, txn, "transaction created")
}

func (h *TransactionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, owner, err := idAndQueryOwner(r, r.PathValue("id"))
	if err != nil {
		fail(w, r, h.logger, "get transaction", err)
		return
	}

	txn, err := h.transactions.Get(r.Context(), id, owner)
	if err != nil {
		fail(w, r, h.logger, "get transaction", err)
		return
	}
	respond(w, http.StatusOK, txn)
}

func (h *TransactionHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		fail(w, r, h.logger, "update transaction", err)
		return
	}

	var req UpdateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, h.logger, "update transaction", err)
		return
	}
	owner, err := bodyOrQueryOwner(r, req.Owner)
	if err != nil {
		fail(w, r, h.logger, "update transaction", err)
		return
	}

	params := transaction.UpdateParams{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.Kind != nil {
		kind, err := transaction.ParseKind(*req.Kind)
		if err != nil {
			fail(w, r, h.logger, "update transaction", err)
			return
		}
		params.Kind = &kind
	}
	if req.Date != nil {
		date, err := parseDate("date", req.Date)
		if err != nil {
			fail(w, r, h.logger, "update transaction", err)
			return
		}
		if date == nil {
			fail(w, r, h.logger, "update transaction", apperr.Validation("date must not be empty"))
			return
		}
		params.Date = date
	}

	txn, err := h.transactions.Update(r.Context(), id, owner, params)
	if err != nil {
		fail(w, r, h.logger, "update transaction", err)
		return
	}
	respondMessage(w, http.StatusOK, txn, "transaction updated")
}

func (h *TransactionHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, owner, err := idAndQueryOwner(r, r.PathValue("id"))
	if err != nil {
		fail(w, r, h.logger, "delete transaction", err)
		return
	}

	if err := h.transactions.Delete(r.Context(), id, owner); err != nil {
		fail(w, r, h.logger, "delete transaction", err)
		return
	}
	respondMessage(w, http.StatusOK, map[string]int64{"id": id}, "transaction deleted")
}
