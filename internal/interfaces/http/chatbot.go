package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"fintrax/internal/domain/assistant"
)

type Assistant interface {
	Ask(ctx context.Context, req assistant.Request) (*assistant.Reply, error)
}

// ChatbotHandler answers chat messages. Without an assistant every request
// gets 503.
type ChatbotHandler struct {
	assistant Assistant
	logger    *zap.Logger
}

func NewChatbotHandler(a Assistant, logger *zap.Logger) *ChatbotHandler {
	return &ChatbotHandler{assistant: a, logger: logger}
}

type ChatRequest struct {
	Message   string `json:"message"`
	Owner     string `json:"owner"`
	OwnerName string `json:"owner_name"`
}

// HandleChat serves POST /api/chatbot
func (h *ChatbotHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if h.assistant == nil {
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "the assistant is not configured")
		return
	}

	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, h.logger, "chatbot", err)
		return
	}

	reply, err := h.assistant.Ask(r.Context(), assistant.Request{
		Message:   req.Message,
		Owner:     req.Owner,
		OwnerName: req.OwnerName,
	})
	if err != nil {
		fail(w, r, h.logger, "chatbot", err)
		return
	}
	respond(w, http.StatusOK, reply)
}
