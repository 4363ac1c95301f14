package query

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/domain"
)

// UserGrantState values.
const (
	UserGrantStateActive   = "ACTIVE"
	UserGrantStateInactive = "INACTIVE"
)

// GrantRepository serves user-grant and project-grant lookups.
type GrantRepository struct {
	db *gorm.DB
}

// NewGrantRepository builds a GrantRepository over db.
func NewGrantRepository(db *gorm.DB) *GrantRepository { return &GrantRepository{db: db} }

// CheckUserGrantResult is the return shape of CheckUserGrant.
type CheckUserGrantResult struct {
	Exists  bool
	Grant   *UserGrant
	HasRole bool
	Roles   []string
}

// CheckUserGrant implements `checkUserGrant(user,project,role?)`: only
// ACTIVE grants are considered; when role is "" only existence is
// checked.
func (r *GrantRepository) CheckUserGrant(ctx context.Context, instanceID, userID, projectID, role string) (CheckUserGrantResult, error) {
	var grant UserGrant
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND user_id = ? AND project_id = ? AND state = ?", instanceID, userID, projectID, UserGrantStateActive).
		First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CheckUserGrantResult{Exists: false}, nil
	}
	if err != nil {
		return CheckUserGrantResult{}, err
	}

	result := CheckUserGrantResult{Exists: true, Grant: &grant, Roles: grant.Roles}
	if role == "" {
		result.HasRole = true
		return result, nil
	}
	for _, r := range grant.Roles {
		if r == role {
			result.HasRole = true
			break
		}
	}
	return result, nil
}

// GetUserGrantByID returns a single grant by id.
func (r *GrantRepository) GetUserGrantByID(ctx context.Context, instanceID, id string) (*UserGrant, error) {
	var grant UserGrant
	err := r.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("user_grant", id)
	}
	return &grant, err
}

// SearchUserGrants lists grants scoped to instanceID with pagination.
func (r *GrantRepository) SearchUserGrants(ctx context.Context, instanceID string, page Pagination) (Page[UserGrant], error) {
	return r.listUserGrants(ctx, r.db.WithContext(ctx).Model(&UserGrant{}).Where("instance_id = ?", instanceID), page)
}

// GetUserGrantsByUserID lists every grant for userID.
func (r *GrantRepository) GetUserGrantsByUserID(ctx context.Context, instanceID, userID string, page Pagination) (Page[UserGrant], error) {
	return r.listUserGrants(ctx, r.db.WithContext(ctx).Model(&UserGrant{}).Where("instance_id = ? AND user_id = ?", instanceID, userID), page)
}

// GetUserGrantsByProjectID lists every grant on projectID.
func (r *GrantRepository) GetUserGrantsByProjectID(ctx context.Context, instanceID, projectID string, page Pagination) (Page[UserGrant], error) {
	return r.listUserGrants(ctx, r.db.WithContext(ctx).Model(&UserGrant{}).Where("instance_id = ? AND project_id = ?", instanceID, projectID), page)
}

func (r *GrantRepository) listUserGrants(ctx context.Context, base *gorm.DB, page Pagination) (Page[UserGrant], error) {
	page = page.Clamp()
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return Page[UserGrant]{}, err
	}
	var rows []UserGrant
	if err := base.Offset(page.Offset).Limit(page.Limit).Find(&rows).Error; err != nil {
		return Page[UserGrant]{}, err
	}
	return Page[UserGrant]{Rows: rows, TotalCount: total, Offset: page.Offset, Limit: page.Limit}, nil
}

// SearchProjectGrants lists project shares for projectID. Supplemental
// op backing the ProjectGrant read model.
func (r *GrantRepository) SearchProjectGrants(ctx context.Context, instanceID, projectID string, page Pagination) (Page[ProjectGrant], error) {
	page = page.Clamp()
	base := r.db.WithContext(ctx).Model(&ProjectGrant{}).Where("instance_id = ? AND project_id = ?", instanceID, projectID)
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return Page[ProjectGrant]{}, err
	}
	var rows []ProjectGrant
	if err := base.Offset(page.Offset).Limit(page.Limit).Find(&rows).Error; err != nil {
		return Page[ProjectGrant]{}, err
	}
	return Page[ProjectGrant]{Rows: rows, TotalCount: total, Offset: page.Offset, Limit: page.Limit}, nil
}

// GetProjectGrantByID returns one project grant.
func (r *GrantRepository) GetProjectGrantByID(ctx context.Context, instanceID, id string) (*ProjectGrant, error) {
	var grant ProjectGrant
	err := r.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("project_grant", id)
	}
	return &grant, err
}

// SearchApplications lists OIDC/OAuth clients for projectID.
// Supplemental op.
func (r *GrantRepository) SearchApplications(ctx context.Context, instanceID, projectID string, page Pagination) (Page[Application], error) {
	page = page.Clamp()
	base := r.db.WithContext(ctx).Model(&Application{}).Where("instance_id = ? AND project_id = ?", instanceID, projectID)
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return Page[Application]{}, err
	}
	var rows []Application
	if err := base.Offset(page.Offset).Limit(page.Limit).Find(&rows).Error; err != nil {
		return Page[Application]{}, err
	}
	return Page[Application]{Rows: rows, TotalCount: total, Offset: page.Offset, Limit: page.Limit}, nil
}

// GetApplicationByClientID looks up a client by its OAuth client_id,
// the key the token and authorization endpoints actually have at hand.
func (r *GrantRepository) GetApplicationByClientID(ctx context.Context, instanceID, clientID string) (*Application, error) {
	var app Application
	err := r.db.WithContext(ctx).Where("instance_id = ? AND client_id = ?", instanceID, clientID).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("application", clientID)
	}
	return &app, err
}
