package domain

// Event is the interface every event payload applied to an aggregate
// implements. Unlike the event envelope persisted by pkg/eventstore,
// this is the in-memory, typed event an aggregate's LoadFromHistory
// switches on.
type Event interface {
	// EventType returns the wire event type, e.g. "user.created".
	EventType() string

	// AggregateID returns the id of the aggregate the event belongs to.
	AggregateID() string
}

// PayloadUnmarshaler is implemented by events replayed from a durable
// store (pkg/eventstore's envelope), letting LoadFromHistory decode the
// opaque payload into the concrete event struct the switch expects.
// Events recorded fresh by command handlers don't need it — they're
// already the concrete struct.
type PayloadUnmarshaler interface {
	Unmarshal(v interface{}) error
}

// BaseEvent is embeddable by concrete event types to avoid repeating
// the AggregateID/EventType boilerplate (the StandardEvent
// pattern, generalized to distinct structs per event rather than a
// single generic bag so each event can carry a strongly typed payload).
type BaseEvent struct {
	Type string
	ID   string
}

// EventType implements Event.
func (e BaseEvent) EventType() string { return e.Type }

// AggregateID implements Event.
func (e BaseEvent) AggregateID() string { return e.ID }
