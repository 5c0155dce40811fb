package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"fintrax/internal/domain/dashboard"
)

type DashboardService interface {
	Summary(ctx context.Context, owner, period string) (*dashboard.Summary, error)
}

type DashboardHandler struct {
	dashboard DashboardService
	logger    *zap.Logger
}

func NewDashboardHandler(svc DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: svc, logger: logger}
}

// HandleDashboard serves /api/dashboard/{owner}?period=
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	summary, err := h.dashboard.Summary(r.Context(), r.PathValue("owner"), r.URL.Query().Get("period"))
	if err != nil {
		fail(w, r, h.logger, "dashboard summary", err)
		return
	}
	respond(w, http.StatusOK, summary)
}
