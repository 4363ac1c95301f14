package aggregate

import "github.com/coreidentity/authcore/pkg/domain"

// ProjectAggregateType is the event-store aggregate_type for projects.
const ProjectAggregateType = "project"

// ProjectGranted shares a project with another organization, carrying
// the role keys that organization's users may be granted. Backs the
// supplemental ProjectGrant read model.
type ProjectGranted struct {
	domain.BaseEvent
	GrantedOrgID string   `json:"grantedOrgId"`
	RoleKeys     []string `json:"roleKeys"`
}

// ProjectGrantRevoked withdraws a previously granted project share.
type ProjectGrantRevoked struct {
	domain.BaseEvent
	GrantedOrgID string `json:"grantedOrgId"`
}

// ProjectCreated is emitted when a project first comes into existence.
type ProjectCreated struct {
	domain.BaseEvent
	ResourceOwner string `json:"resourceOwner"`
	Name          string `json:"name"`
}

// Project is the C2 aggregate behind project-scoped grants and
// applications.
type Project struct {
	domain.Entity

	InstanceID    string
	ResourceOwner string
	Name          string
	Grants        map[string][]string // grantedOrgID -> role keys
}

// NewProjectAggregate is the Factory the repository uses to build an
// empty instance before folding history onto it.
func NewProjectAggregate(instanceID, id string) *Project {
	return &Project{Entity: domain.NewEntity(id, ProjectAggregateType), InstanceID: instanceID, Grants: map[string][]string{}}
}

// CreateProject validates and records the creation event.
func (p *Project) CreateProject(resourceOwner, name string) error {
	if p.Sequence() != 0 {
		return domain.NewDomainError(domain.CodeAlreadyExists, "project already created", nil)
	}
	if !domain.IsValidUUID(p.ID()) {
		return domain.NewValidationError("id", "must be a UUID v4", p.ID())
	}
	if name == "" {
		return domain.NewValidationError("name", "must not be empty", name)
	}
	p.apply(&ProjectCreated{BaseEvent: domain.BaseEvent{Type: "project.created", ID: p.ID()}, ResourceOwner: resourceOwner, Name: name})
	return nil
}

// GrantToOrg shares the project with grantedOrgID for the given roles.
func (p *Project) GrantToOrg(grantedOrgID string, roleKeys []string) error {
	if grantedOrgID == "" {
		return domain.NewValidationError("grantedOrgId", "must not be empty", grantedOrgID)
	}
	p.apply(&ProjectGranted{BaseEvent: domain.BaseEvent{Type: "project.granted", ID: p.ID()}, GrantedOrgID: grantedOrgID, RoleKeys: roleKeys})
	return nil
}

// RevokeGrant withdraws a prior grant. No-op if none exists.
func (p *Project) RevokeGrant(grantedOrgID string) error {
	if _, ok := p.Grants[grantedOrgID]; !ok {
		return nil
	}
	p.apply(&ProjectGrantRevoked{BaseEvent: domain.BaseEvent{Type: "project.grant_revoked", ID: p.ID()}, GrantedOrgID: grantedOrgID})
	return nil
}

func (p *Project) apply(event domain.Event) {
	p.mutate(event)
	p.Record(event)
}

func (p *Project) mutate(event domain.Event) {
	switch e := event.(type) {
	case *ProjectCreated:
		p.ResourceOwner = e.ResourceOwner
		p.Name = e.Name
	case *ProjectGranted:
		p.Grants[e.GrantedOrgID] = e.RoleKeys
	case *ProjectGrantRevoked:
		delete(p.Grants, e.GrantedOrgID)
	}
}

// LoadFromHistory implements domain.AggregateRoot.
func (p *Project) LoadFromHistory(events []domain.Event) {
	ctors := map[string]func() domain.Event{
		"project.created":       func() domain.Event { return &ProjectCreated{} },
		"project.granted":       func() domain.Event { return &ProjectGranted{} },
		"project.grant_revoked": func() domain.Event { return &ProjectGrantRevoked{} },
	}
	if p.Grants == nil {
		p.Grants = map[string][]string{}
	}
	for _, raw := range events {
		if event := decodeEvent(raw, ctors); event != nil {
			p.mutate(event)
		}
		p.ReplaySequence()
	}
}
