package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fintrax/internal/domain/transaction"
)

// MockTransactionService implements TransactionService for testing
type MockTransactionService struct {
	CreateFunc     func(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
	GetFunc        func(ctx context.Context, id int64, owner string) (*transaction.Transaction, error)
	ListByKindFunc func(ctx context.Context, owner string, kind transaction.Kind) ([]*transaction.Transaction, error)
	UpdateFunc     func(ctx context.Context, id int64, owner string, params transaction.UpdateParams) (*transaction.Transaction, error)
	DeleteFunc     func(ctx context.Context, id int64, owner string) error
}

func (m *MockTransactionService) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, errors.New("unexpected call")
}

func (m *MockTransactionService) Get(ctx context.Context, id int64, owner string) (*transaction.Transaction, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id, owner)
	}
	return nil, errors.New("unexpected call")
}

func (m *MockTransactionService) ListByKind(ctx context.Context, owner string, kind transaction.Kind) ([]*transaction.Transaction, error) {
	if m.ListByKindFunc != nil {
		return m.ListByKindFunc(ctx, owner, kind)
	}
	return nil, errors.New("unexpected call")
}

func (m *MockTransactionService) Update(ctx context.Context, id int64, owner string, params transaction.UpdateParams) (*transaction.Transaction, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, owner, params)
	}
	return nil, errors.New("unexpected call")
}

func (m *MockTransactionService) Delete(ctx context.Context, id int64, owner string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, owner)
	}
	return errors.New("unexpected call")
}

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTransactionMux(svc TransactionService) *http.ServeMux {
	h := NewTransactionHandler(svc, zap.NewNop())
	h.now = func() time.Time { return fixedNow }

	mux := http.NewServeMux()
	mux.HandleFunc("/api/transactions", h.HandleTransactions)
	mux.HandleFunc("/api/transactions/{id}", h.HandleTransactionByID)
	mux.HandleFunc("/api/transactions/{owner}/{kind}", h.HandleTransactionsByKind)
	return mux
}

func TestHandleTransactions_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		wantDate       time.Time
		err            error
		expectedStatus int
	}{
		{
			name:           "Success With Date",
			body:           map[string]any{"owner": "alice", "kind": "gasto", "amount": "80", "category_id": 3, "description": "taxi", "date": "2025-03-01"},
			wantDate:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Date Defaults To Now",
			body:           map[string]any{"owner": "alice", "kind": "ingreso", "amount": 1500},
			wantDate:       fixedNow,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Invalid Kind",
			body:           map[string]any{"owner": "alice", "kind": "transfer", "amount": 10},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown Category",
			body:           map[string]any{"owner": "alice", "kind": "gasto", "amount": 10, "category_id": 999},
			err:            transaction.ErrUnknownCategory,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockTransactionService{
				CreateFunc: func(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					if !params.Date.Equal(tt.wantDate) {
						t.Errorf("Date = %v, want %v", params.Date, tt.wantDate)
					}
					return &transaction.Transaction{ID: 1, Owner: params.Owner, Kind: params.Kind, Amount: params.Amount, Date: params.Date}, nil
				},
			}

			rr := serve(newTransactionMux(svc), http.MethodPost, "/api/transactions", jsonBody(t, tt.body))
			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d (%s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestHandleTransactionsByKind(t *testing.T) {
	svc := &MockTransactionService{
		ListByKindFunc: func(ctx context.Context, owner string, kind transaction.Kind) ([]*transaction.Transaction, error) {
			if owner != "alice" || kind != transaction.KindExpense {
				t.Errorf("ListByKind(%q, %q)", owner, kind)
			}
			return []*transaction.Transaction{
				{ID: 1, Kind: kind, Amount: decimal.NewFromInt(80)},
				{ID: 2, Kind: kind, Amount: decimal.NewFromInt(20)},
			}, nil
		},
	}
	mux := newTransactionMux(svc)

	rr := serve(mux, http.MethodGet, "/api/transactions/alice/gasto", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var txns []transaction.Transaction
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &txns); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if len(txns) != 2 {
		t.Errorf("len = %d, want 2", len(txns))
	}

	rr = serve(mux, http.MethodGet, "/api/transactions/alice/otros", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHandleTransactionByID(t *testing.T) {
	svc := &MockTransactionService{
		GetFunc: func(ctx context.Context, id int64, owner string) (*transaction.Transaction, error) {
			return &transaction.Transaction{ID: id, Owner: owner}, nil
		},
		UpdateFunc: func(ctx context.Context, id int64, owner string, params transaction.UpdateParams) (*transaction.Transaction, error) {
			if id == 8 {
				return nil, transaction.ErrLinkedToGoal
			}
			if params.Kind == nil || *params.Kind != transaction.KindIncome {
				t.Errorf("Kind = %v", params.Kind)
			}
			return &transaction.Transaction{ID: id, Owner: owner}, nil
		},
		DeleteFunc: func(ctx context.Context, id int64, owner string) error {
			if id == 8 {
				return transaction.ErrLinkedToGoal
			}
			if id == 9 {
				return transaction.ErrTransactionNotFound
			}
			return nil
		},
	}
	mux := newTransactionMux(svc)

	tests := []struct {
		name           string
		method         string
		target         string
		body           any
		expectedStatus int
		expectedCode   string
	}{
		{"Get", http.MethodGet, "/api/transactions/5?owner=alice", nil, http.StatusOK, ""},
		{"Get Missing Owner", http.MethodGet, "/api/transactions/5", nil, http.StatusBadRequest, CodeValidation},
		{"Update", http.MethodPut, "/api/transactions/5", map[string]any{"owner": "alice", "kind": "ingreso"}, http.StatusOK, ""},
		{"Update Goal Linked", http.MethodPut, "/api/transactions/8", map[string]any{"owner": "alice", "kind": "ingreso"}, http.StatusConflict, CodeConflict},
		{"Update Empty Date", http.MethodPut, "/api/transactions/5", map[string]any{"owner": "alice", "date": ""}, http.StatusBadRequest, CodeValidation},
		{"Delete", http.MethodDelete, "/api/transactions/5?owner=alice", nil, http.StatusOK, ""},
		{"Delete Goal Linked", http.MethodDelete, "/api/transactions/8?owner=alice", nil, http.StatusConflict, CodeConflict},
		{"Delete Not Found", http.MethodDelete, "/api/transactions/9?owner=alice", nil, http.StatusNotFound, CodeNotFound},
		{"Method Not Allowed", http.MethodPatch, "/api/transactions/5", nil, http.StatusMethodNotAllowed, CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *bytes.Buffer
			if tt.body != nil {
				body = jsonBody(t, tt.body)
			}
			rr := serve(mux, tt.method, tt.target, body)
			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if env := decodeEnvelope(t, rr); env.Code != tt.expectedCode {
				t.Errorf("code = %q, want %q", env.Code, tt.expectedCode)
			}
		})
	}
}
