// Package eventstore implements C1: the append-only, ordered event log
// that every aggregate's state and every projection is derived from.
package eventstore

import (
	"encoding/json"
	"time"
)

// Event is a single immutable record in the append-only log. Position
// is the globally monotonic order; Sequence is the 1-based, contiguous
// position of the event within its aggregate's stream. The pair
// (AggregateType, AggregateID, Sequence) is unique; Position is unique
// and strictly increasing across the entire store.
type Event struct {
	Position      int64           `json:"position"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	Sequence      int             `json:"sequence"`
	EventType     string          `json:"eventType"`
	Payload       json.RawMessage `json:"payload"`
	Editor        string          `json:"editor"`
	ResourceOwner string          `json:"resourceOwner"`
	InstanceID    string          `json:"instanceId"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// NewPayload marshals v into an Event's opaque payload. Returns an
// error if v is not JSON-serializable.
func NewPayload(v interface{}) (json.RawMessage, error) {
	return json.Marshal(v)
}

// Unmarshal decodes the event's payload into v. Call sites that know
// the concrete event type for EventType should use this; projections
// that don't recognize an EventType should skip it rather than error,
// for forward compatibility.
func (e Event) Unmarshal(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}
