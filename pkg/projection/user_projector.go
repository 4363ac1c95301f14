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

// UserProjector maintains the users read table from user aggregate
// events, adapted from internal/application/user_projector.go's
// UserProjector: idempotent upsert on
// creation, targeted field updates on every other event.
type UserProjector struct{}

// NewUserProjector builds a UserProjector.
func NewUserProjector() *UserProjector { return &UserProjector{} }

// Name implements Handler.
func (p *UserProjector) Name() string { return "user_projector" }

// AggregateTypes implements Handler.
func (p *UserProjector) AggregateTypes() []string { return []string{aggregate.UserAggregateType} }

// EventTypes implements Handler.
func (p *UserProjector) EventTypes() []string {
	return []string{
		"user.created",
		"user.email_verified",
		"user.phone_verified",
		"user.password_changed",
		"user.locked",
		"user.unlocked",
		"user.suspended",
		"user.deactivated",
		"user.reactivated",
		"user.deleted",
	}
}

// Apply implements Handler.
func (p *UserProjector) Apply(ctx context.Context, tx *gorm.DB, event eventstore.Event) error {
	switch event.EventType {
	case "user.created":
		var payload aggregate.UserCreated
		if err := event.Unmarshal(&payload); err != nil {
			return fmt.Errorf("decoding user.created: %w", err)
		}
		row := query.User{
			ID:            event.AggregateID,
			InstanceID:    event.InstanceID,
			ResourceOwner: payload.ResourceOwner,
			State:         aggregate.UserStateInitial,
			UserType:      payload.UserType,
			Username:      payload.Username,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"resource_owner", "state", "user_type", "username"}),
		}).Create(&row).Error

	case "user.email_verified":
		var payload aggregate.UserEmailVerified
		if err := event.Unmarshal(&payload); err != nil {
			return fmt.Errorf("decoding user.email_verified: %w", err)
		}
		return p.update(tx, event, map[string]interface{}{"verified_email": payload.Email})

	case "user.phone_verified":
		var payload aggregate.UserPhoneVerified
		if err := event.Unmarshal(&payload); err != nil {
			return fmt.Errorf("decoding user.phone_verified: %w", err)
		}
		return p.update(tx, event, map[string]interface{}{"verified_phone": payload.Phone})

	case "user.password_changed":
		var payload aggregate.UserPasswordChanged
		if err := event.Unmarshal(&payload); err != nil {
			return fmt.Errorf("decoding user.password_changed: %w", err)
		}
		return p.update(tx, event, map[string]interface{}{"password_hash": payload.PasswordHash})

	case "user.locked":
		return p.update(tx, event, map[string]interface{}{"state": aggregate.UserStateLocked})
	case "user.unlocked":
		return p.update(tx, event, map[string]interface{}{"state": aggregate.UserStateActive})
	case "user.suspended":
		return p.update(tx, event, map[string]interface{}{"state": aggregate.UserStateSuspended})
	case "user.deactivated":
		return p.update(tx, event, map[string]interface{}{"state": aggregate.UserStateInactive})
	case "user.reactivated":
		return p.update(tx, event, map[string]interface{}{"state": aggregate.UserStateActive})
	case "user.deleted":
		return p.update(tx, event, map[string]interface{}{"state": aggregate.UserStateDeleted})

	default:
		return nil
	}
}

func (p *UserProjector) update(tx *gorm.DB, event eventstore.Event, fields map[string]interface{}) error {
	return tx.Model(&query.User{}).
		Where("id = ? AND instance_id = ?", event.AggregateID, event.InstanceID).
		Updates(fields).Error
}
