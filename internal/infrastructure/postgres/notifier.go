package postgres

import (
	"context"

	"go.uber.org/zap"

	"fintrax/internal/domain/events"
)

// Notifier publishes events outside a ledger unit of work by issuing
// pg_notify on its own. Every instance's listener then sees the event, which
// keeps SSE subscribers on other replicas in sync.
type Notifier struct {
	db     *DB
	logger *zap.Logger
}

func NewNotifier(db *DB, logger *zap.Logger) *Notifier {
	return &Notifier{db: db, logger: logger}
}

func (n *Notifier) Publish(ctx context.Context, e events.Event) {
	if err := notify(ctx, n.db, e); err != nil {
		n.logger.Warn("failed to publish ledger event",
			zap.String("kind", string(e.Kind)),
			zap.String("owner", e.Owner),
			zap.Int64("entity_id", e.EntityID),
			zap.Error(err),
		)
	}
}
