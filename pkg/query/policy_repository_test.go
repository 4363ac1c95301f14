package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreidentity/authcore/pkg/query"
)

func TestPolicyRepository_GetLoginPolicy_NilWhenAbsent(t *testing.T) {
	db := newTestDB(t)
	repo := query.NewPolicyRepository(db)

	p, err := repo.GetLoginPolicy(context.Background(), "instance-1", "org-1")
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestPolicyRepository_GetLoginPolicy_ReturnsRow(t *testing.T) {
	db := newTestDB(t)
	repo := query.NewPolicyRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&query.LoginPolicy{
		ResourceOwner: "org-1", InstanceID: "instance-1", ForceMFA: true,
	}).Error)

	p, err := repo.GetLoginPolicy(ctx, "instance-1", "org-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.True(t, p.ForceMFA)
}

func TestPolicyRepository_InstanceFeatures_DefaultsToDisabled(t *testing.T) {
	db := newTestDB(t)
	repo := query.NewPolicyRepository(db)
	ctx := context.Background()

	enabled, err := repo.IsInstanceFeatureEnabled(ctx, "instance-1", "new_console")
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestPolicyRepository_InstanceFeatures_ReadsStoredFlag(t *testing.T) {
	db := newTestDB(t)
	repo := query.NewPolicyRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&query.InstanceFeatures{
		InstanceID: "instance-1", Features: query.BoolMap{"new_console": true},
	}).Error)

	enabled, err := repo.IsInstanceFeatureEnabled(ctx, "instance-1", "new_console")
	require.NoError(t, err)
	require.True(t, enabled)

	enabled, err = repo.IsInstanceFeatureEnabled(ctx, "instance-1", "unset_flag")
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestPolicyRepository_ImprovedPerformance_ReadsTypoWireKey(t *testing.T) {
	db := newTestDB(t)
	repo := query.NewPolicyRepository(db)
	ctx := context.Background()

	// The persisted key keeps its historical typo; callers never see it
	// except through BoolMap.ImprovedPerformance.
	require.NoError(t, db.Create(&query.InstanceFeatures{
		InstanceID: "instance-1", Features: query.BoolMap{"improveredPerformance": true},
	}).Error)

	enabled, err := repo.IsImprovedPerformanceEnabled(ctx, "instance-1")
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestBoolMap_ImprovedPerformance_RoundTrip(t *testing.T) {
	m := query.BoolMap{}
	require.False(t, m.ImprovedPerformance())

	m.SetImprovedPerformance(true)
	require.True(t, m.ImprovedPerformance())
	require.True(t, m["improveredPerformance"])
}

func TestValidatePassword(t *testing.T) {
	policy := query.BuiltInPasswordComplexityPolicy()

	valid, errs := query.ValidatePassword("Abcdef12", policy)
	require.True(t, valid)
	require.Empty(t, errs)

	valid, errs = query.ValidatePassword("short1A", policy)
	require.False(t, valid)
	require.NotEmpty(t, errs)

	valid, errs = query.ValidatePassword("alllowercase1", policy)
	require.False(t, valid)
	require.Contains(t, errs, "password must contain an uppercase letter")
}

func TestValidatePassword_RequiresSymbolWhenPolicyDemands(t *testing.T) {
	policy := query.BuiltInPasswordComplexityPolicy()
	policy.RequireSymbol = true

	valid, errs := query.ValidatePassword("Abcdef12", policy)
	require.False(t, valid)
	require.Contains(t, errs, "password must contain a symbol")

	valid, _ = query.ValidatePassword("Abcdef12!", policy)
	require.True(t, valid)
}
