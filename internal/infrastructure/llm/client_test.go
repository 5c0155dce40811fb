package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrax/internal/domain/assistant"
	"fintrax/internal/domain/goal"
	"fintrax/internal/domain/transaction"
)

func chatServer(t *testing.T, reply string, check func(t *testing.T, r *http.Request, body chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if check != nil {
			check(t, r, body)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
}

func TestClient_Classify(t *testing.T) {
	srv := chatServer(t, `  {"action":"consulta_gastos","requiereSQL":true}  `, func(t *testing.T, r *http.Request, body chatRequest) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		if body.Model != "test-model" {
			t.Errorf("expected model test-model, got %s", body.Model)
		}
		if body.Temperature != classifyTemperature || body.MaxTokens != classifyMaxTokens {
			t.Errorf("unexpected sampling parameters: %+v", body)
		}
		if len(body.Messages) != 2 || body.Messages[1].Content != "¿Cuánto gasté?" {
			t.Errorf("unexpected messages: %+v", body.Messages)
		}
		if !strings.Contains(body.Messages[0].Content, "Ana") {
			t.Error("expected owner name in system prompt")
		}
	})
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "test-model"})
	cls, err := c.Classify(context.Background(), assistant.Request{Message: "¿Cuánto gasté?", Owner: "1", OwnerName: "Ana"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cls.Intent == nil {
		t.Fatal("expected intent")
	}
	if cls.Intent.Action != assistant.ActionExpenses || !cls.Intent.RequiresData {
		t.Errorf("unexpected intent: %+v", cls.Intent)
	}
}

func TestClient_Compose(t *testing.T) {
	srv := chatServer(t, "Ana, tus gastos suman $120.00.", func(t *testing.T, _ *http.Request, body chatRequest) {
		if body.Temperature != composeTemperature || body.MaxTokens != composeMaxTokens {
			t.Errorf("unexpected sampling parameters: %+v", body)
		}
		if !strings.Contains(body.Messages[1].Content, "Gastos: 120.00") {
			t.Errorf("expected facts in user message, got %q", body.Messages[1].Content)
		}
	})
	defer srv.Close()

	expenses := decimal.NewFromInt(120)
	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL})
	text, err := c.Compose(context.Background(),
		assistant.Request{Message: "¿Cuánto gasté?", OwnerName: "Ana"},
		assistant.Facts{Action: assistant.ActionExpenses, Expenses: &expenses},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Ana, tus gastos suman $120.00." {
		t.Errorf("unexpected reply %q", text)
	}
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "structured", body: `{"error":{"message":"invalid key","type":"auth"}}`, wantMsg: "invalid key"},
		{name: "raw", body: `upstream down`, wantMsg: "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{APIKey: "bad", BaseURL: srv.URL})
			_, err := c.Classify(context.Background(), assistant.Request{Message: "hola"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) || !strings.Contains(err.Error(), "401") {
				t.Errorf("unexpected error %q", err)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	if _, err := c.Classify(context.Background(), assistant.Request{Message: "hola"}); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantIntent *assistant.Intent
	}{
		{
			name: "plain text",
			text: "¡Hola! ¿En qué te ayudo?",
		},
		{
			name: "numbers and bool as strings",
			text: `{"action":"crear_transaccion","categoria":"Comida","tipo":"gasto","monto":45.5,"descripcion":"almuerzo","limit":null,"requiereSQL":"true"}`,
			wantIntent: &assistant.Intent{
				Action: assistant.ActionCreateTransaction, Category: "Comida", Kind: "gasto",
				Amount: "45.5", Description: "almuerzo", RequiresData: true,
			},
		},
		{
			name: "goal creation",
			text: `{"action":"crear_meta","nombre_meta":"Viaje","monto_meta":"2000","requiereSQL":true}`,
			wantIntent: &assistant.Intent{
				Action: assistant.ActionCreateGoal, GoalName: "Viaje", GoalAmount: "2000", RequiresData: true,
			},
		},
		{
			name: "limit as number",
			text: `{"action":"listar_transacciones","limit":3,"requiereSQL":true}`,
			wantIntent: &assistant.Intent{
				Action: assistant.ActionListTransactions, Limit: "3", RequiresData: true,
			},
		},
		{
			name: "no data required",
			text: `{"action":"none","requiereSQL":false}`,
			wantIntent: &assistant.Intent{
				Action: assistant.ActionNone,
			},
		},
		{
			name: "broken json",
			text: `{"action": }`,
		},
		{
			name: "json wrapped in prose",
			text: `Claro: {"action":"consulta_balance"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseClassification(tt.text)
			if got.Text != strings.TrimSpace(tt.text) {
				t.Errorf("expected text to be kept, got %q", got.Text)
			}
			if tt.wantIntent == nil {
				if got.Intent != nil {
					t.Errorf("expected no intent, got %+v", got.Intent)
				}
				return
			}
			if got.Intent == nil {
				t.Fatal("expected intent")
			}
			if *got.Intent != *tt.wantIntent {
				t.Errorf("intent = %+v, want %+v", *got.Intent, *tt.wantIntent)
			}
		})
	}
}

func TestRenderFacts(t *testing.T) {
	income := decimal.NewFromInt(1000)
	expenses := decimal.RequireFromString("250.5")
	balance := income.Sub(expenses)
	catID := int64(3)

	facts := assistant.Facts{
		Action:   assistant.ActionAnalysis,
		Income:   &income,
		Expenses: &expenses,
		Balance:  &balance,
		Transactions: []*transaction.Transaction{
			{Kind: transaction.KindExpense, Amount: decimal.NewFromInt(80), CategoryID: &catID, CategoryName: "Transporte", Description: "taxi", Date: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)},
			{Kind: transaction.KindIncome, Amount: decimal.NewFromInt(1000), Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		},
		Goals: []goal.View{
			{Goal: goal.Goal{Name: "Viaje", TargetAmount: decimal.NewFromInt(2000), CurrentAmount: decimal.NewFromInt(500), State: goal.StateActive}},
		},
	}

	got := RenderFacts("¿Cómo voy?", facts)

	for _, want := range []string{
		"Pregunta del usuario: ¿Cómo voy?",
		"Ingresos: 1000.00",
		"Gastos: 250.50",
		"Balance: 749.50",
		"1. GASTO | $80.00 | Transporte | taxi | 03/05/2024",
		"2. INGRESO | $1000.00 | Sin categoría | - | 01/05/2024",
		"1. Viaje | Objetivo: $2000.00 | Ahorrado: $500.00 | Estado: activa",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Total en categoría") {
		t.Error("did not expect a category line")
	}
}
