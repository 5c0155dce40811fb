package events

import (
	"context"
	"time"
)

// Kind identifies what changed in an owner's ledger.
type Kind string

const (
	GoalCreated        Kind = "goal.created"
	GoalUpdated        Kind = "goal.updated"
	GoalStateChanged   Kind = "goal.state_changed"
	GoalFunded         Kind = "goal.funded"
	GoalWithdrawn      Kind = "goal.withdrawn"
	GoalDeleted        Kind = "goal.deleted"
	TransactionCreated Kind = "transaction.created"
	TransactionUpdated Kind = "transaction.updated"
	TransactionDeleted Kind = "transaction.deleted"
	CategoryCreated    Kind = "category.created"
	CategoryUpdated    Kind = "category.updated"
	CategoryDeleted    Kind = "category.deleted"
)

// Channel is the Postgres NOTIFY channel ledger events travel on.
const Channel = "ledger_changed"

// Event tells subscribers that an owner's balances or goals moved and any
// cached dashboard view should be refreshed.
type Event struct {
	Owner    string    `json:"owner"`
	Kind     Kind      `json:"kind"`
	EntityID int64     `json:"entity_id"`
	At       time.Time `json:"at"`
}

// New builds an event stamped with the current time.
func New(owner string, kind Kind, entityID int64) Event {
	return Event{Owner: owner, Kind: kind, EntityID: entityID, At: time.Now().UTC()}
}

// Publisher delivers events on a best-effort basis. Implementations log
// their own delivery failures; callers never block on subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Fanout forwards each event to every publisher in order.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) {
	for _, p := range f {
		p.Publish(ctx, e)
	}
}
