package projection

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coreidentity/authcore/pkg/aggregate"
	"github.com/coreidentity/authcore/pkg/eventstore"
	"github.com/coreidentity/authcore/pkg/query"
)

// OrgProjector maintains the orgs read table from organization
// aggregate events, adapted from internal/application/user_projector.go's
// UserProjector to generic upserts against
// pkg/query.Organization instead of a hand-written read-model struct
// per field.
type OrgProjector struct{}

// NewOrgProjector builds an OrgProjector.
func NewOrgProjector() *OrgProjector { return &OrgProjector{} }

// Name implements Handler.
func (p *OrgProjector) Name() string { return "org_projector" }

// AggregateTypes implements Handler.
func (p *OrgProjector) AggregateTypes() []string { return []string{aggregate.OrganizationAggregateType} }

// EventTypes implements Handler.
func (p *OrgProjector) EventTypes() []string {
	return []string{
		"organization.created",
		"organization.renamed",
		"organization.deactivated",
		"organization.reactivated",
	}
}

// Apply implements Handler.
func (p *OrgProjector) Apply(ctx context.Context, tx *gorm.DB, event eventstore.Event) error {
	switch event.EventType {
	case "organization.created":
		var payload aggregate.OrganizationCreated
		if err := event.Unmarshal(&payload); err != nil {
			return fmt.Errorf("decoding organization.created: %w", err)
		}
		row := query.Organization{
			ID:            event.AggregateID,
			InstanceID:    event.InstanceID,
			Name:          payload.Name,
			State:         aggregate.OrgStateActive,
			PrimaryDomain: payload.PrimaryDomain,
			Sequence:      event.Sequence,
			CreatedAt:     event.CreatedAt,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "state", "primary_domain", "sequence"}),
		}).Create(&row).Error

	case "organization.renamed":
		var payload aggregate.OrganizationRenamed
		if err := event.Unmarshal(&payload); err != nil {
			return fmt.Errorf("decoding organization.renamed: %w", err)
		}
		return p.update(tx, event, map[string]interface{}{"name": payload.Name, "sequence": event.Sequence})

	case "organization.deactivated":
		return p.update(tx, event, map[string]interface{}{"state": aggregate.OrgStateInactive, "sequence": event.Sequence})

	case "organization.reactivated":
		return p.update(tx, event, map[string]interface{}{"state": aggregate.OrgStateActive, "sequence": event.Sequence})

	default:
		return nil
	}
}

func (p *OrgProjector) update(tx *gorm.DB, event eventstore.Event, fields map[string]interface{}) error {
	return tx.Model(&query.Organization{}).
		Where("id = ? AND instance_id = ?", event.AggregateID, event.InstanceID).
		Updates(fields).Error
}
