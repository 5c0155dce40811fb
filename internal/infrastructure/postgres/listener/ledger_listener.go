package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"fintrax/internal/domain/events"
)

const (
	reconnectInterval = 5 * time.Second
	pingInterval      = 90 * time.Second
)

var errInvalidPayload = errors.New("notification payload is missing owner or kind")

// LedgerListener relays committed ledger events from the PostgreSQL NOTIFY
// channel to an in-process publisher (SSE hub, message broker).
type LedgerListener struct {
	connStr    string
	sink       events.Publisher
	logger     *zap.Logger
	shutdownCh chan struct{}
	done       chan struct{}
}

func NewLedgerListener(connStr string, sink events.Publisher, logger *zap.Logger) *LedgerListener {
	return &LedgerListener{
		connStr:    connStr,
		sink:       sink,
		logger:     logger.Named("listener"),
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start begins listening for notifications in a background goroutine
func (l *LedgerListener) Start(ctx context.Context) {
	go l.listen(ctx)
	l.logger.Info("ledger notification listener started", zap.String("channel", events.Channel))
}

// Stop gracefully shuts down the listener
func (l *LedgerListener) Stop() {
	close(l.shutdownCh)
	<-l.done
	l.logger.Info("ledger notification listener stopped")
}

func (l *LedgerListener) listen(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		default:
			l.connectAndListen(ctx)
		}

		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(reconnectInterval):
			l.logger.Info("reconnecting to PostgreSQL for notifications")
		}
	}
}

func (l *LedgerListener) connectAndListen(ctx context.Context) {
	listener := pq.NewListener(l.connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			l.logger.Info("connected to notification channel")
		case pq.ListenerEventDisconnected:
			l.logger.Warn("disconnected from notification channel", zap.Error(err))
		case pq.ListenerEventReconnected:
			l.logger.Info("reconnected to notification channel")
		case pq.ListenerEventConnectionAttemptFailed:
			l.logger.Warn("notification connection attempt failed", zap.Error(err))
		}
	})
	defer listener.Close()

	if err := listener.Listen(events.Channel); err != nil {
		l.logger.Error("failed to listen", zap.String("channel", events.Channel), zap.Error(err))
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case n := <-listener.Notify:
			if n == nil {
				// Connection lost; pq.Listener reconnects on its own but
				// notifications sent meanwhile are gone.
				continue
			}
			l.handle(ctx, n)
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					l.logger.Warn("listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

func (l *LedgerListener) handle(ctx context.Context, n *pq.Notification) {
	e, err := Decode(n.Extra)
	if err != nil {
		l.logger.Warn("failed to parse notification payload", zap.Error(err))
		return
	}
	l.sink.Publish(ctx, e)
}

// Decode parses a NOTIFY payload into an event.
func Decode(payload string) (events.Event, error) {
	var e events.Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return events.Event{}, err
	}
	if e.Owner == "" || e.Kind == "" {
		return events.Event{}, errInvalidPayload
	}
	return e, nil
}
