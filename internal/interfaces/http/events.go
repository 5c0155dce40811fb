package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"fintrax/internal/domain/events"
)

const defaultHeartbeat = 25 * time.Second

// Subscriber hands out per-owner event streams.
type Subscriber interface {
	Subscribe(owner string) (<-chan events.Event, func())
}

// EventsHandler streams an owner's ledger events as server-sent events so
// clients know when to refresh dashboards and goal lists.
type EventsHandler struct {
	hub       Subscriber
	logger    *zap.Logger
	heartbeat time.Duration
}

func NewEventsHandler(hub Subscriber, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: logger, heartbeat: defaultHeartbeat}
}

// HandleEvents serves GET /api/events/{owner}
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	owner := strings.TrimSpace(r.PathValue("owner"))
	if owner == "" {
		fail(w, r, h.logger, "subscribe events", errOwnerRequired)
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("failed to clear write deadline", zap.Error(err))
	}

	stream, cancel := h.hub.Subscribe(owner)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "retry: 3000\n\n")
	if err := rc.Flush(); err != nil {
		h.logger.Warn("streaming not supported", zap.Error(err))
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-stream:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				h.logger.Error("failed to encode event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
