package aggregate

import (
	"time"

	"github.com/segmentio/ksuid"

	"github.com/coreidentity/authcore/pkg/domain"
)

// AuthRequestAggregateType is the event-store aggregate_type for
// in-flight OAuth/OIDC authorization requests.
const AuthRequestAggregateType = "auth_request"

// NewAuthRequestID mints a new AuthRequest id. ksuid's time-sortable
// ids let a cleanup sweep of expired pending requests range-scan by
// id instead of needing a secondary index on creation time.
func NewAuthRequestID() string {
	return ksuid.New().String()
}

// AuthRequestCreated is emitted when a client initiates an
// authorization request.
type AuthRequestCreated struct {
	domain.BaseEvent
	ClientID            string    `json:"clientId"`
	RedirectURI         string    `json:"redirectUri"`
	ResponseType        string    `json:"responseType"`
	Scopes              []string  `json:"scopes"`
	State               string    `json:"state"`
	Nonce               string    `json:"nonce"`
	CodeChallenge       string    `json:"codeChallenge"`
	CodeChallengeMethod string    `json:"codeChallengeMethod"`
	Prompts             []string  `json:"prompts"`
	ExpiresAt           time.Time `json:"expiresAt"`
}

// AuthRequestAuthenticated records that the end user authenticated in
// the context of this request, linking it to a session.
type AuthRequestAuthenticated struct {
	domain.BaseEvent
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

// AuthRequestCodeIssued records that an authorization code was handed
// to the client.
type AuthRequestCodeIssued struct {
	domain.BaseEvent
}

// AuthRequestFailed records a terminal failure (denied consent,
// expired, invalid request) so the request can't be completed twice.
type AuthRequestFailed struct {
	domain.BaseEvent
	Reason string `json:"reason"`
}

// AuthRequest states.
const (
	AuthRequestStatePending       = "PENDING"
	AuthRequestStateAuthenticated = "AUTHENTICATED"
	AuthRequestStateCodeIssued    = "CODE_ISSUED"
	AuthRequestStateFailed        = "FAILED"
)

// AuthRequest is the C2 aggregate for an in-flight OAuth/OIDC
// authorization request.
type AuthRequest struct {
	domain.Entity

	InstanceID          string
	ClientID            string
	RedirectURI         string
	ResponseType        string
	Scopes              []string
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
	Prompts             []string
	ExpiresAt           time.Time
	SessionID           string
	UserID              string
	Status              string
	FailureReason       string
}

// NewAuthRequestAggregate is the Factory the repository uses to build
// an empty instance before folding history onto it.
func NewAuthRequestAggregate(instanceID, id string) *AuthRequest {
	return &AuthRequest{Entity: domain.NewEntity(id, AuthRequestAggregateType), InstanceID: instanceID}
}

// CreateAuthRequest validates and records the creation event.
func (r *AuthRequest) CreateAuthRequest(clientID, redirectURI, responseType string, scopes []string, state, nonce, codeChallenge, codeChallengeMethod string, prompts []string, expiresAt time.Time) error {
	if r.Sequence() != 0 {
		return domain.NewDomainError(domain.CodeAlreadyExists, "auth request already created", nil)
	}
	if clientID == "" {
		return domain.NewValidationError("clientId", "must not be empty", clientID)
	}
	if redirectURI == "" {
		return domain.NewValidationError("redirectUri", "must not be empty", redirectURI)
	}
	r.apply(&AuthRequestCreated{
		BaseEvent:           domain.BaseEvent{Type: "auth_request.created", ID: r.ID()},
		ClientID:            clientID,
		RedirectURI:         redirectURI,
		ResponseType:        responseType,
		Scopes:              scopes,
		State:               state,
		Nonce:               nonce,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
		Prompts:             prompts,
		ExpiresAt:           expiresAt,
	})
	return nil
}

// Authenticate links the request to the session/user that completed
// login.
func (r *AuthRequest) Authenticate(sessionID, userID string) error {
	if r.Status != AuthRequestStatePending {
		return domain.NewDomainError(domain.CodePreconditionFailed, "auth request is not pending", nil)
	}
	r.apply(&AuthRequestAuthenticated{BaseEvent: domain.BaseEvent{Type: "auth_request.authenticated", ID: r.ID()}, SessionID: sessionID, UserID: userID})
	return nil
}

// IssueCode records that an authorization code has been handed out.
// Fails if the request hasn't been authenticated yet, or already has a
// code — an authorization code must be single-use.
func (r *AuthRequest) IssueCode() error {
	if r.Status != AuthRequestStateAuthenticated {
		return domain.NewDomainError(domain.CodePreconditionFailed, "auth request is not authenticated", nil)
	}
	r.apply(&AuthRequestCodeIssued{BaseEvent: domain.BaseEvent{Type: "auth_request.code_issued", ID: r.ID()}})
	return nil
}

// Fail records a terminal failure.
func (r *AuthRequest) Fail(reason string) error {
	if r.Status == AuthRequestStateFailed || r.Status == AuthRequestStateCodeIssued {
		return domain.NewDomainError(domain.CodePreconditionFailed, "auth request already terminal", nil)
	}
	r.apply(&AuthRequestFailed{BaseEvent: domain.BaseEvent{Type: "auth_request.failed", ID: r.ID()}, Reason: reason})
	return nil
}

func (r *AuthRequest) apply(event domain.Event) {
	r.mutate(event)
	r.Record(event)
}

func (r *AuthRequest) mutate(event domain.Event) {
	switch e := event.(type) {
	case *AuthRequestCreated:
		r.ClientID = e.ClientID
		r.RedirectURI = e.RedirectURI
		r.ResponseType = e.ResponseType
		r.Scopes = e.Scopes
		r.State = e.State
		r.Nonce = e.Nonce
		r.CodeChallenge = e.CodeChallenge
		r.CodeChallengeMethod = e.CodeChallengeMethod
		r.Prompts = e.Prompts
		r.ExpiresAt = e.ExpiresAt
		r.Status = AuthRequestStatePending
	case *AuthRequestAuthenticated:
		r.SessionID = e.SessionID
		r.UserID = e.UserID
		r.Status = AuthRequestStateAuthenticated
	case *AuthRequestCodeIssued:
		r.Status = AuthRequestStateCodeIssued
	case *AuthRequestFailed:
		r.FailureReason = e.Reason
		r.Status = AuthRequestStateFailed
	}
}

// LoadFromHistory implements domain.AggregateRoot.
func (r *AuthRequest) LoadFromHistory(events []domain.Event) {
	ctors := map[string]func() domain.Event{
		"auth_request.created":       func() domain.Event { return &AuthRequestCreated{} },
		"auth_request.authenticated": func() domain.Event { return &AuthRequestAuthenticated{} },
		"auth_request.code_issued":   func() domain.Event { return &AuthRequestCodeIssued{} },
		"auth_request.failed":        func() domain.Event { return &AuthRequestFailed{} },
	}
	for _, raw := range events {
		if event := decodeEvent(raw, ctors); event != nil {
			r.mutate(event)
		}
		r.ReplaySequence()
	}
}
