package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"fintrax/internal/domain/assistant"
	"fintrax/internal/shared/apperr"
)

// MockAssistant implements Assistant for testing
type MockAssistant struct {
	AskFunc func(ctx context.Context, req assistant.Request) (*assistant.Reply, error)
}

func (m *MockAssistant) Ask(ctx context.Context, req assistant.Request) (*assistant.Reply, error) {
	return m.AskFunc(ctx, req)
}

func newChatbotMux(a Assistant) *http.ServeMux {
	h := NewChatbotHandler(a, zap.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chatbot", h.HandleChat)
	return mux
}

func TestHandleChat(t *testing.T) {
	a := &MockAssistant{
		AskFunc: func(ctx context.Context, req assistant.Request) (*assistant.Reply, error) {
			switch req.Message {
			case "":
				return nil, apperr.Validation("message and owner are required")
			case "boom":
				return nil, fmt.Errorf("%w: classify: timeout", assistant.ErrModel)
			}
			if req.OwnerName != "Alicia" {
				t.Errorf("OwnerName = %q", req.OwnerName)
			}
			return &assistant.Reply{Reply: "Tu balance es $1500.00"}, nil
		},
	}
	mux := newChatbotMux(a)

	tests := []struct {
		name           string
		body           any
		expectedStatus int
		expectedCode   string
	}{
		{"Success", map[string]any{"message": "cuál es mi balance", "owner": "alice", "owner_name": "Alicia"}, http.StatusOK, ""},
		{"Empty Message", map[string]any{"message": "", "owner": "alice"}, http.StatusBadRequest, CodeValidation},
		{"Model Failure", map[string]any{"message": "boom", "owner": "alice"}, http.StatusBadGateway, CodeUpstream},
		{"Unknown Field", map[string]any{"message": "hola", "owner": "alice", "history": []string{}}, http.StatusBadRequest, CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(mux, http.MethodPost, "/api/chatbot", jsonBody(t, tt.body))
			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			env := decodeEnvelope(t, rr)
			if env.Code != tt.expectedCode {
				t.Errorf("code = %q, want %q", env.Code, tt.expectedCode)
			}
			if tt.expectedStatus == http.StatusOK {
				var reply assistant.Reply
				if err := json.Unmarshal(env.Data, &reply); err != nil {
					t.Fatalf("failed to decode data: %v", err)
				}
				if reply.Reply == "" {
					t.Error("reply should not be empty")
				}
			}
		})
	}
}

func TestHandleChat_Unconfigured(t *testing.T) {
	rr := serve(newChatbotMux(nil), http.MethodPost, "/api/chatbot", jsonBody(t, map[string]any{"message": "hola", "owner": "alice"}))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	if env := decodeEnvelope(t, rr); env.Code != CodeUnavailable {
		t.Errorf("code = %q, want %q", env.Code, CodeUnavailable)
	}
}

func TestHandleChat_MethodNotAllowed(t *testing.T) {
	rr := serve(newChatbotMux(&MockAssistant{}), http.MethodGet, "/api/chatbot", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
}
