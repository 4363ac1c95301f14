package policy_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/cache"
	"github.com/coreidentity/authcore/pkg/policy"
	"github.com/coreidentity/authcore/pkg/query"
)

func newPolicyTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&query.LoginPolicy{}, &query.PasswordComplexityPolicy{}))
	return db
}

func TestResolver_GetActiveLoginPolicy_FallsBackToInstanceThenNil(t *testing.T) {
	db := newPolicyTestDB(t)
	repo := query.NewPolicyRepository(db)
	c := cache.New(time.Minute, time.Minute)
	defer c.Close()
	r := policy.New(repo, c, time.Minute)
	ctx := context.Background()

	// No rows at all: nil, nil.
	p, err := r.GetActiveLoginPolicy(ctx, "instance-1", "org-1")
	require.NoError(t, err)
	require.Nil(t, p)

	// Instance default exists, org-specific doesn't: falls back.
	require.NoError(t, db.Create(&query.LoginPolicy{
		ResourceOwner: "__instance__", InstanceID: "instance-1", ForceMFA: true,
	}).Error)
	c.Clear()

	p, err = r.GetActiveLoginPolicy(ctx, "instance-1", "org-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.True(t, p.ForceMFA)
	require.True(t, p.IsDefault)
	require.False(t, p.IsOrgPolicy)
}

func TestResolver_GetActiveLoginPolicy_OrgLevelWins(t *testing.T) {
	db := newPolicyTestDB(t)
	repo := query.NewPolicyRepository(db)
	c := cache.New(time.Minute, time.Minute)
	defer c.Close()
	r := policy.New(repo, c, time.Minute)
	ctx := context.Background()

	require.NoError(t, db.Create(&query.LoginPolicy{
		ResourceOwner: "__instance__", InstanceID: "instance-1", ForceMFA: true, AllowRegistration: false,
	}).Error)
	require.NoError(t, db.Create(&query.LoginPolicy{
		ResourceOwner: "org-1", InstanceID: "instance-1", ForceMFA: false, AllowRegistration: true,
	}).Error)

	p, err := r.GetActiveLoginPolicy(ctx, "instance-1", "org-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	// The org row wins wholesale: it must not pick up ForceMFA from the
	// instance default even though the org row itself sets it false.
	require.False(t, p.ForceMFA)
	require.True(t, p.AllowRegistration)
	require.True(t, p.IsOrgPolicy)
	require.False(t, p.IsDefault)
}

func TestResolver_GetEffectivePasswordComplexityPolicy_FallsBackToBuiltIn(t *testing.T) {
	db := newPolicyTestDB(t)
	repo := query.NewPolicyRepository(db)
	c := cache.New(time.Minute, time.Minute)
	defer c.Close()
	r := policy.New(repo, c, time.Minute)
	ctx := context.Background()

	p, err := r.GetEffectivePasswordComplexityPolicy(ctx, "instance-1", "org-1")
	require.NoError(t, err)
	require.Equal(t, query.BuiltInPasswordComplexityPolicy(), p)
}

func TestResolver_InvalidateOrgPolicies_ClearsCache(t *testing.T) {
	db := newPolicyTestDB(t)
	repo := query.NewPolicyRepository(db)
	c := cache.New(time.Minute, time.Minute)
	defer c.Close()
	r := policy.New(repo, c, time.Minute)
	ctx := context.Background()

	_, err := r.GetActiveLoginPolicy(ctx, "instance-1", "org-1")
	require.NoError(t, err)

	require.NoError(t, db.Create(&query.LoginPolicy{ResourceOwner: "org-1", InstanceID: "instance-1", ForceMFA: true}).Error)
	r.InvalidateOrgPolicies("instance-1", "org-1")

	p, err := r.GetActiveLoginPolicy(ctx, "instance-1", "org-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.True(t, p.ForceMFA)
}
