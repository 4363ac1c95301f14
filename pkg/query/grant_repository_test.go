package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreidentity/authcore/pkg/query"
)

func TestGrantRepository_CheckUserGrant(t *testing.T) {
	db := newTestDB(t)
	repo := query.NewGrantRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&query.UserGrant{
		ID: "grant-1", InstanceID: "instance-1", UserID: "user-1", ProjectID: "project-1",
		State: query.UserGrantStateActive, Roles: query.StringList{"reader", "admin"},
	}).Error)

	result, err := repo.CheckUserGrant(ctx, "instance-1", "user-1", "project-1", "")
	require.NoError(t, err)
	require.True(t, result.Exists)
	require.True(t, result.HasRole)

	result, err = repo.CheckUserGrant(ctx, "instance-1", "user-1", "project-1", "admin")
	require.NoError(t, err)
	require.True(t, result.HasRole)

	result, err = repo.CheckUserGrant(ctx, "instance-1", "user-1", "project-1", "owner")
	require.NoError(t, err)
	require.True(t, result.Exists)
	require.False(t, result.HasRole)

	result, err = repo.CheckUserGrant(ctx, "instance-1", "user-1", "project-2", "")
	require.NoError(t, err)
	require.False(t, result.Exists)
}

func TestGrantRepository_CheckUserGrant_IgnoresInactive(t *testing.T) {
	db := newTestDB(t)
	repo := query.NewGrantRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&query.UserGrant{
		ID: "grant-1", InstanceID: "instance-1", UserID: "user-1", ProjectID: "project-1",
		State: query.UserGrantStateInactive, Roles: query.StringList{"reader"},
	}).Error)

	result, err := repo.CheckUserGrant(ctx, "instance-1", "user-1", "project-1", "")
	require.NoError(t, err)
	require.False(t, result.Exists)
}

func TestGrantRepository_SearchUserGrants(t *testing.T) {
	db := newTestDB(t)
	repo := query.NewGrantRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&query.UserGrant{ID: "grant-1", InstanceID: "instance-1", UserID: "user-1", ProjectID: "project-1", State: query.UserGrantStateActive}).Error)
	require.NoError(t, db.Create(&query.UserGrant{ID: "grant-2", InstanceID: "instance-1", UserID: "user-2", ProjectID: "project-1", State: query.UserGrantStateActive}).Error)

	page, err := repo.GetUserGrantsByUserID(ctx, "instance-1", "user-1", query.Pagination{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.TotalCount)

	page, err = repo.GetUserGrantsByProjectID(ctx, "instance-1", "project-1", query.Pagination{})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.TotalCount)
}

func TestGrantRepository_ApplicationLookupByClientID(t *testing.T) {
	db := newTestDB(t)
	repo := query.NewGrantRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&query.Application{
		ID: "app-1", InstanceID: "instance-1", ProjectID: "project-1",
		Name: "Web App", ClientID: "client-abc", RedirectURIs: query.StringList{"https://app.example/callback"}, Active: true,
	}).Error)

	app, err := repo.GetApplicationByClientID(ctx, "instance-1", "client-abc")
	require.NoError(t, err)
	require.Equal(t, "app-1", app.ID)

	_, err = repo.GetApplicationByClientID(ctx, "instance-1", "unknown-client")
	require.Error(t, err)
}
