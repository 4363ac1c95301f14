package aggregate

import (
	"time"

	"github.com/coreidentity/authcore/pkg/domain"
)

// SessionAggregateType is the event-store aggregate_type for sessions.
const SessionAggregateType = "session"

// Session state values.
const (
	SessionStateActive     = "ACTIVE"
	SessionStateTerminated = "TERMINATED"
)

// SessionCreated is emitted when a session is born. Sessions are
// always born ACTIVE.
type SessionCreated struct {
	domain.BaseEvent
	UserID    string     `json:"userId"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// SessionExpiryExtended changes the optional expiry, e.g. on
// reauthentication.
type SessionExpiryExtended struct {
	domain.BaseEvent
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// SessionTerminated is the terminal event for a session: logout or
// timeout. Never reversed — sessions are never
// revived."
type SessionTerminated struct {
	domain.BaseEvent
}

// Session is the C2 aggregate backing the session state machine
// described below.
type Session struct {
	domain.Entity

	InstanceID string
	UserID     string
	State      string
	ExpiresAt  *time.Time
	Changed    time.Time
}

// NewSessionAggregate is the Factory the repository uses to build an
// empty instance before folding history onto it.
func NewSessionAggregate(instanceID, id string) *Session {
	return &Session{Entity: domain.NewEntity(id, SessionAggregateType), InstanceID: instanceID}
}

// CreateSession records the birth of a session, always ACTIVE.
func (s *Session) CreateSession(userID string, expiresAt *time.Time) error {
	if s.Sequence() != 0 {
		return domain.NewDomainError(domain.CodeAlreadyExists, "session already created", nil)
	}
	if !domain.IsValidUUID(s.ID()) {
		return domain.NewValidationError("id", "must be a UUID v4", s.ID())
	}
	if userID == "" {
		return domain.NewValidationError("userId", "must not be empty", userID)
	}
	s.apply(&SessionCreated{BaseEvent: domain.BaseEvent{Type: "session.created", ID: s.ID()}, UserID: userID, ExpiresAt: expiresAt})
	return nil
}

// ExtendExpiry updates ExpiresAt. Fails if the session is already
// terminated — a terminated session is never revived.
func (s *Session) ExtendExpiry(expiresAt *time.Time) error {
	if s.State == SessionStateTerminated {
		return domain.NewDomainError(domain.CodePreconditionFailed, "session is terminated", nil)
	}
	s.apply(&SessionExpiryExtended{BaseEvent: domain.BaseEvent{Type: "session.expiry_extended", ID: s.ID()}, ExpiresAt: expiresAt})
	return nil
}

// Terminate transitions the session to TERMINATED. Idempotent: calling
// it on an already-terminated session is a no-op.
func (s *Session) Terminate() error {
	if s.State == SessionStateTerminated {
		return nil
	}
	s.apply(&SessionTerminated{BaseEvent: domain.BaseEvent{Type: "session.terminated", ID: s.ID()}})
	return nil
}

// IsActive implements the property:
// isSessionActive(s) ⇔ s.state=ACTIVE ∧ (s.expiresAt is null ∨ s.expiresAt>now).
// An expired-but-still-ACTIVE session reads as inactive without being
// rewritten, matching the "treated as terminated on read" rule in
// elsewhere.
func (s *Session) IsActive(now time.Time) bool {
	if s.State != SessionStateActive {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

func (s *Session) apply(event domain.Event) {
	s.mutate(event)
	s.Record(event)
}

func (s *Session) mutate(event domain.Event) {
	switch e := event.(type) {
	case *SessionCreated:
		s.UserID = e.UserID
		s.ExpiresAt = e.ExpiresAt
		s.State = SessionStateActive
	case *SessionExpiryExtended:
		s.ExpiresAt = e.ExpiresAt
	case *SessionTerminated:
		s.State = SessionStateTerminated
	}
}

// LoadFromHistory implements domain.AggregateRoot.
func (s *Session) LoadFromHistory(events []domain.Event) {
	ctors := map[string]func() domain.Event{
		"session.created":         func() domain.Event { return &SessionCreated{} },
		"session.expiry_extended": func() domain.Event { return &SessionExpiryExtended{} },
		"session.terminated":      func() domain.Event { return &SessionTerminated{} },
	}
	for _, raw := range events {
		if event := decodeEvent(raw, ctors); event != nil {
			s.mutate(event)
		}
		s.ReplaySequence()
	}
}
