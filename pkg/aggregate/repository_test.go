package aggregate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/coreidentity/authcore/pkg/aggregate"
	"github.com/coreidentity/authcore/pkg/domain"
	"github.com/coreidentity/authcore/pkg/eventstore/memorystore"
	"github.com/coreidentity/authcore/pkg/security"
)

type noopRepoLogger struct{}

func (noopRepoLogger) Debug(string, ...interface{})  {}
func (noopRepoLogger) Info(string, ...interface{})   {}
func (noopRepoLogger) Warn(string, ...interface{})   {}
func (noopRepoLogger) Error(string, ...interface{})  {}
func (noopRepoLogger) Fatal(string, ...interface{})  {}
func (noopRepoLogger) Debugf(string, ...interface{}) {}
func (noopRepoLogger) Infof(string, ...interface{})  {}
func (noopRepoLogger) Warnf(string, ...interface{})  {}
func (noopRepoLogger) Errorf(string, ...interface{}) {}
func (noopRepoLogger) Fatalf(string, ...interface{}) {}

const repoTestOrgID = "55555555-5555-4555-8555-555555555555"

func TestRepository_Save_ConcurrencyConflictMapsToAlreadyExists(t *testing.T) {
	store := memorystore.New()
	repo := aggregate.New[*aggregate.Organization](store, aggregate.OrganizationAggregateType, aggregate.NewOrganizationAggregate, noopRepoLogger{})
	ctx := context.Background()

	org := aggregate.NewOrganizationAggregate("instance-1", repoTestOrgID)
	require.NoError(t, org.CreateOrganization("Acme", "acme.example"))
	require.NoError(t, repo.Save(ctx, "instance-1", repoTestOrgID, org))

	// A second aggregate instance that thinks it is still at sequence 0
	// races against the one already saved above.
	stale := aggregate.NewOrganizationAggregate("instance-1", repoTestOrgID)
	require.NoError(t, stale.CreateOrganization("Acme Duplicate", "acme2.example"))

	err := repo.Save(ctx, "instance-1", repoTestOrgID, stale)
	require.Error(t, err)

	var coder domain.Coder
	require.True(t, errors.As(err, &coder))
	require.Equal(t, domain.CodeConcurrencyConflict, coder.DomainCode())
	require.Equal(t, codes.AlreadyExists, security.MapToStatus(coder.DomainCode()))
}
