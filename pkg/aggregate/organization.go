package aggregate

import "github.com/coreidentity/authcore/pkg/domain"

// OrganizationAggregateType is the event-store aggregate_type for
// organizations.
const OrganizationAggregateType = "organization"

// Organization state values.
const (
	OrgStateUnspecified = "UNSPECIFIED"
	OrgStateActive      = "ACTIVE"
	OrgStateInactive    = "INACTIVE"
)

// OrganizationCreated is emitted once, when an organization comes into
// existence.
type OrganizationCreated struct {
	domain.BaseEvent
	Name          string `json:"name"`
	PrimaryDomain string `json:"primaryDomain"`
}

// OrganizationRenamed changes the organization's display name.
type OrganizationRenamed struct {
	domain.BaseEvent
	Name string `json:"name"`
}

// OrganizationDeactivated transitions the org to INACTIVE.
type OrganizationDeactivated struct {
	domain.BaseEvent
}

// OrganizationReactivated transitions the org back to ACTIVE.
type OrganizationReactivated struct {
	domain.BaseEvent
}

// Organization is the C2 aggregate behind the Organization read model.
type Organization struct {
	domain.Entity

	InstanceID    string
	Name          string
	State         string
	PrimaryDomain string
}

// NewOrganizationAggregate is the Factory the repository uses to build
// an empty instance before folding history onto it.
func NewOrganizationAggregate(instanceID, id string) *Organization {
	return &Organization{Entity: domain.NewEntity(id, OrganizationAggregateType), InstanceID: instanceID}
}

// CreateOrganization validates and records the creation event. Fails
// with domain.CodeAlreadyExists if the org already has history.
func (o *Organization) CreateOrganization(name, primaryDomain string) error {
	if o.Sequence() != 0 {
		return domain.NewDomainError(domain.CodeAlreadyExists, "organization already created", nil)
	}
	if !domain.IsValidUUID(o.ID()) {
		return domain.NewValidationError("id", "must be a UUID v4", o.ID())
	}
	if name == "" {
		return domain.NewValidationError("name", "must not be empty", name)
	}
	o.apply(&OrganizationCreated{
		BaseEvent:     domain.BaseEvent{Type: "organization.created", ID: o.ID()},
		Name:          name,
		PrimaryDomain: primaryDomain,
	})
	return nil
}

// Rename changes the display name.
func (o *Organization) Rename(name string) error {
	if name == "" {
		return domain.NewValidationError("name", "must not be empty", name)
	}
	if name == o.Name {
		return nil
	}
	o.apply(&OrganizationRenamed{BaseEvent: domain.BaseEvent{Type: "organization.renamed", ID: o.ID()}, Name: name})
	return nil
}

// Deactivate transitions the organization to INACTIVE. No-op if
// already inactive.
func (o *Organization) Deactivate() error {
	if o.State == OrgStateInactive {
		return nil
	}
	o.apply(&OrganizationDeactivated{BaseEvent: domain.BaseEvent{Type: "organization.deactivated", ID: o.ID()}})
	return nil
}

// Reactivate transitions the organization back to ACTIVE. No-op if
// already active.
func (o *Organization) Reactivate() error {
	if o.State == OrgStateActive {
		return nil
	}
	o.apply(&OrganizationReactivated{BaseEvent: domain.BaseEvent{Type: "organization.reactivated", ID: o.ID()}})
	return nil
}

// apply mutates in-memory state and records the event as uncommitted.
func (o *Organization) apply(event domain.Event) {
	o.mutate(event)
	o.Record(event)
}

func (o *Organization) mutate(event domain.Event) {
	switch e := event.(type) {
	case *OrganizationCreated:
		o.Name = e.Name
		o.PrimaryDomain = e.PrimaryDomain
		o.State = OrgStateActive
	case *OrganizationRenamed:
		o.Name = e.Name
	case *OrganizationDeactivated:
		o.State = OrgStateInactive
	case *OrganizationReactivated:
		o.State = OrgStateActive
	}
}

// LoadFromHistory implements domain.AggregateRoot.
func (o *Organization) LoadFromHistory(events []domain.Event) {
	for _, raw := range events {
		event := decodeEvent(raw, map[string]func() domain.Event{
			"organization.created":     func() domain.Event { return &OrganizationCreated{} },
			"organization.renamed":     func() domain.Event { return &OrganizationRenamed{} },
			"organization.deactivated": func() domain.Event { return &OrganizationDeactivated{} },
			"organization.reactivated": func() domain.Event { return &OrganizationReactivated{} },
		})
		if event != nil {
			o.mutate(event)
		}
		o.ReplaySequence()
	}
}

// decodeEvent unmarshals a replayed, opaque-payload event into its
// concrete struct using ctors keyed by EventType. Unrecognized types
// are skipped (forward-compatible with newer projections reading an
// older event log).
func decodeEvent(raw domain.Event, ctors map[string]func() domain.Event) domain.Event {
	ctor, ok := ctors[raw.EventType()]
	if !ok {
		return nil
	}
	typed := ctor()
	unmarshaler, ok := raw.(domain.PayloadUnmarshaler)
	if !ok {
		return typed
	}
	if err := unmarshaler.Unmarshal(typed); err != nil {
		return nil
	}
	return typed
}
