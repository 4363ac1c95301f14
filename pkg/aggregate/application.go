package aggregate

import "github.com/coreidentity/authcore/pkg/domain"

// ApplicationAggregateType is the event-store aggregate_type for OIDC/
// OAuth client applications.
const ApplicationAggregateType = "application"

// ApplicationCreated registers a new OIDC/OAuth client.
type ApplicationCreated struct {
	domain.BaseEvent
	ProjectID     string   `json:"projectId"`
	Name          string   `json:"name"`
	ClientID      string   `json:"clientId"`
	RedirectURIs  []string `json:"redirectUris"`
}

// ApplicationRedirectURIsChanged updates the allow-listed redirect URIs.
type ApplicationRedirectURIsChanged struct {
	domain.BaseEvent
	RedirectURIs []string `json:"redirectUris"`
}

// ApplicationDeactivated disables a client without removing its
// history.
type ApplicationDeactivated struct {
	domain.BaseEvent
}

// ApplicationReactivated re-enables a previously deactivated client.
type ApplicationReactivated struct {
	domain.BaseEvent
}

// Application is the C2 aggregate behind searchApplications /
// getApplicationByClientID.
type Application struct {
	domain.Entity

	InstanceID   string
	ProjectID    string
	Name         string
	ClientID     string
	RedirectURIs []string
	Active       bool
}

// NewApplicationAggregate is the Factory the repository uses to build
// an empty instance before folding history onto it.
func NewApplicationAggregate(instanceID, id string) *Application {
	return &Application{Entity: domain.NewEntity(id, ApplicationAggregateType), InstanceID: instanceID}
}

// CreateApplication validates and records the creation event.
func (a *Application) CreateApplication(projectID, name, clientID string, redirectURIs []string) error {
	if a.Sequence() != 0 {
		return domain.NewDomainError(domain.CodeAlreadyExists, "application already created", nil)
	}
	if clientID == "" {
		return domain.NewValidationError("clientId", "must not be empty", clientID)
	}
	if len(redirectURIs) == 0 {
		return domain.NewValidationError("redirectUris", "must specify at least one", redirectURIs)
	}
	a.apply(&ApplicationCreated{
		BaseEvent:    domain.BaseEvent{Type: "application.created", ID: a.ID()},
		ProjectID:    projectID,
		Name:         name,
		ClientID:     clientID,
		RedirectURIs: redirectURIs,
	})
	return nil
}

// ChangeRedirectURIs replaces the allow-listed redirect URIs.
func (a *Application) ChangeRedirectURIs(redirectURIs []string) error {
	if len(redirectURIs) == 0 {
		return domain.NewValidationError("redirectUris", "must specify at least one", redirectURIs)
	}
	a.apply(&ApplicationRedirectURIsChanged{BaseEvent: domain.BaseEvent{Type: "application.redirect_uris_changed", ID: a.ID()}, RedirectURIs: redirectURIs})
	return nil
}

// Deactivate disables the client. No-op if already inactive.
func (a *Application) Deactivate() error {
	if !a.Active {
		return nil
	}
	a.apply(&ApplicationDeactivated{BaseEvent: domain.BaseEvent{Type: "application.deactivated", ID: a.ID()}})
	return nil
}

// Reactivate re-enables the client. No-op if already active.
func (a *Application) Reactivate() error {
	if a.Active {
		return nil
	}
	a.apply(&ApplicationReactivated{BaseEvent: domain.BaseEvent{Type: "application.reactivated", ID: a.ID()}})
	return nil
}

func (a *Application) apply(event domain.Event) {
	a.mutate(event)
	a.Record(event)
}

func (a *Application) mutate(event domain.Event) {
	switch e := event.(type) {
	case *ApplicationCreated:
		a.ProjectID = e.ProjectID
		a.Name = e.Name
		a.ClientID = e.ClientID
		a.RedirectURIs = e.RedirectURIs
		a.Active = true
	case *ApplicationRedirectURIsChanged:
		a.RedirectURIs = e.RedirectURIs
	case *ApplicationDeactivated:
		a.Active = false
	case *ApplicationReactivated:
		a.Active = true
	}
}

// LoadFromHistory implements domain.AggregateRoot.
func (a *Application) LoadFromHistory(events []domain.Event) {
	ctors := map[string]func() domain.Event{
		"application.created":               func() domain.Event { return &ApplicationCreated{} },
		"application.redirect_uris_changed":  func() domain.Event { return &ApplicationRedirectURIsChanged{} },
		"application.deactivated":            func() domain.Event { return &ApplicationDeactivated{} },
		"application.reactivated":            func() domain.Event { return &ApplicationReactivated{} },
	}
	for _, raw := range events {
		if event := decodeEvent(raw, ctors); event != nil {
			a.mutate(event)
		}
		a.ReplaySequence()
	}
}
