package query

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/domain"
)

// OrgRepository serves organization/domain lookups.
// Grounded on internal/infrastructure/user_read_model_gorm.go's
// UserReadModelGORMRepository, one repository
// per read model instead of hand-rolled SQL per call site.
type OrgRepository struct {
	db *gorm.DB
}

// NewOrgRepository builds an OrgRepository over db.
func NewOrgRepository(db *gorm.DB) *OrgRepository { return &OrgRepository{db: db} }

// OrgFilter composes search predicates by AND (see the Search
// grammar).
type OrgFilter struct {
	NameContains string
	State        string
}

func (f OrgFilter) apply(tx *gorm.DB) *gorm.DB {
	if f.NameContains != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.NameContains)+"%")
	}
	if f.State != "" {
		tx = tx.Where("state = ?", f.State)
	}
	return tx
}

// GetOrgByID returns the org, scoped to instanceID. Returns
// domain.NotFoundError if absent.
func (r *OrgRepository) GetOrgByID(ctx context.Context, instanceID, orgID string) (*Organization, error) {
	var org Organization
	err := r.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, orgID).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("organization", orgID)
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// GetOrgByDomainGlobal looks up an org by a verified domain without
// instance scoping. IsDomainAvailable only checks uniqueness within one
// instance, so if several instances have verified the same domain, the
// first matching row wins.
func (r *OrgRepository) GetOrgByDomainGlobal(ctx context.Context, domainName string) (*Organization, error) {
	var d OrgDomain
	err := r.db.WithContext(ctx).Where("domain = ? AND verified = ?", domainName, true).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("org_domain", domainName)
	}
	if err != nil {
		return nil, err
	}
	return r.GetOrgByID(ctx, d.InstanceID, d.OrgID)
}

// SearchOrgs lists orgs scoped to instanceID, with pagination and
// filtering.
func (r *OrgRepository) SearchOrgs(ctx context.Context, instanceID string, filter OrgFilter, page Pagination) (Page[Organization], error) {
	page = page.Clamp()
	base := r.db.WithContext(ctx).Model(&Organization{}).Where("instance_id = ?", instanceID)
	base = filter.apply(base)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return Page[Organization]{}, err
	}

	var rows []Organization
	order := "created_at " + string(page.SortOrder)
	if err := base.Order(order).Offset(page.Offset).Limit(page.Limit).Find(&rows).Error; err != nil {
		return Page[Organization]{}, err
	}
	return Page[Organization]{Rows: rows, TotalCount: total, Offset: page.Offset, Limit: page.Limit}, nil
}

// GetOrgDomainsByID lists every domain claimed by orgID.
func (r *OrgRepository) GetOrgDomainsByID(ctx context.Context, instanceID, orgID string) ([]OrgDomain, error) {
	var domains []OrgDomain
	err := r.db.WithContext(ctx).Where("instance_id = ? AND org_id = ?", instanceID, orgID).Find(&domains).Error
	return domains, err
}

// IsDomainAvailable reports whether domainName is unclaimed within
// instanceID.
func (r *OrgRepository) IsDomainAvailable(ctx context.Context, instanceID, domainName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&OrgDomain{}).
		Where("instance_id = ? AND domain = ?", instanceID, domainName).Count(&count).Error
	return count == 0, err
}

// GetPrimaryDomainByOrgID returns orgID's primary domain, or
// domain.NotFoundError if none is marked primary.
func (r *OrgRepository) GetPrimaryDomainByOrgID(ctx context.Context, instanceID, orgID string) (*OrgDomain, error) {
	var d OrgDomain
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND org_id = ? AND is_primary = ?", instanceID, orgID, true).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("org_primary_domain", orgID)
	}
	return &d, err
}

// OrgWithDomains bundles an org with all of its domains for a single
// round trip read.
type OrgWithDomains struct {
	Organization Organization
	Domains      []OrgDomain
}

// GetOrgWithDomains joins Organization and OrgDomain, both scoped to
// instanceID, in one call.
func (r *OrgRepository) GetOrgWithDomains(ctx context.Context, instanceID, orgID string) (*OrgWithDomains, error) {
	org, err := r.GetOrgByID(ctx, instanceID, orgID)
	if err != nil {
		return nil, err
	}
	domains, err := r.GetOrgDomainsByID(ctx, instanceID, orgID)
	if err != nil {
		return nil, err
	}
	return &OrgWithDomains{Organization: *org, Domains: domains}, nil
}

// GetOrgMember returns one org-level admin role assignment. Supplemental
// op used by domain availability checks.
func (r *OrgRepository) GetOrgMember(ctx context.Context, instanceID, orgID, userID string) (*OrgMember, error) {
	var m OrgMember
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND org_id = ? AND user_id = ?", instanceID, orgID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NewNotFoundError("org_member", userID)
	}
	return &m, err
}

// SearchOrgMembers lists org-level admin role assignments for orgID.
func (r *OrgRepository) SearchOrgMembers(ctx context.Context, instanceID, orgID string, page Pagination) (Page[OrgMember], error) {
	page = page.Clamp()
	base := r.db.WithContext(ctx).Model(&OrgMember{}).Where("instance_id = ? AND org_id = ?", instanceID, orgID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return Page[OrgMember]{}, err
	}
	var rows []OrgMember
	if err := base.Offset(page.Offset).Limit(page.Limit).Find(&rows).Error; err != nil {
		return Page[OrgMember]{}, err
	}
	return Page[OrgMember]{Rows: rows, TotalCount: total, Offset: page.Offset, Limit: page.Limit}, nil
}
