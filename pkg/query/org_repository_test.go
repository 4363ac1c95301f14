package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreidentity/authcore/pkg/domain"
	"github.com/coreidentity/authcore/pkg/query"
)

func TestOrgRepository_GetOrgByID(t *testing.T) {
	db := newTestDB(t)
	repo := query.NewOrgRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&query.Organization{ID: "org-1", InstanceID: "instance-1", Name: "Acme", State: "ACTIVE"}).Error)

	org, err := repo.GetOrgByID(ctx, "instance-1", "org-1")
	require.NoError(t, err)
	require.Equal(t, "Acme", org.Name)

	_, err = repo.GetOrgByID(ctx, "instance-1", "missing")
	require.Error(t, err)
	var notFound domain.Coder
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, domain.CodeNotFound, notFound.DomainCode())
}

func TestOrgRepository_GetOrgByID_ScopedByInstance(t *testing.T) {
	db := newTestDB(t)
	repo := query.NewOrgRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&query.Organization{ID: "org-1", InstanceID: "instance-1", Name: "Acme", State: "ACTIVE"}).Error)

	_, err := repo.GetOrgByID(ctx, "instance-2", "org-1")
	require.Error(t, err)
}

func TestOrgRepository_SearchOrgs_FiltersAndPaginates(t *testing.T) {
	db := newTestDB(t)
	repo := query.NewOrgRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&query.Organization{ID: "org-1", InstanceID: "instance-1", Name: "Acme Corp", State: "ACTIVE"}).Error)
	require.NoError(t, db.Create(&query.Organization{ID: "org-2", InstanceID: "instance-1", Name: "Widgets Inc", State: "ACTIVE"}).Error)
	require.NoError(t, db.Create(&query.Organization{ID: "org-3", InstanceID: "instance-2", Name: "Other Tenant", State: "ACTIVE"}).Error)

	page, err := repo.SearchOrgs(ctx, "instance-1", query.OrgFilter{NameContains: "acme"}, query.Pagination{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.TotalCount)
	require.Equal(t, "org-1", page.Rows[0].ID)

	all, err := repo.SearchOrgs(ctx, "instance-1", query.OrgFilter{}, query.Pagination{})
	require.NoError(t, err)
	require.Equal(t, int64(2), all.TotalCount)
}

func TestOrgRepository_DomainLookup(t *testing.T) {
	db := newTestDB(t)
	repo := query.NewOrgRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&query.Organization{ID: "org-1", InstanceID: "instance-1", Name: "Acme", State: "ACTIVE"}).Error)
	require.NoError(t, db.Create(&query.OrgDomain{
		OrgID: "org-1", Domain: "acme.example", InstanceID: "instance-1",
		Verified: true, IsPrimary: true,
	}).Error)

	available, err := repo.IsDomainAvailable(ctx, "instance-1", "acme.example")
	require.NoError(t, err)
	require.False(t, available)

	available, err = repo.IsDomainAvailable(ctx, "instance-1", "unclaimed.example")
	require.NoError(t, err)
	require.True(t, available)

	org, err := repo.GetOrgByDomainGlobal(ctx, "acme.example")
	require.NoError(t, err)
	require.Equal(t, "org-1", org.ID)

	primary, err := repo.GetPrimaryDomainByOrgID(ctx, "instance-1", "org-1")
	require.NoError(t, err)
	require.Equal(t, "acme.example", primary.Domain)
}
