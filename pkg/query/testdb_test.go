package query_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/query"
)

// newTestDB opens an in-memory sqlite database and migrates every
// read-model table, mirroring the integration-test pattern
// of standing up a throwaway GORM connection per test
// (test/integration/eventstore_integration_test.go), adapted to the
// pure-Go sqlite driver this module uses for dev/test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&query.Organization{},
		&query.OrgDomain{},
		&query.OrgMember{},
		&query.User{},
		&query.Session{},
		&query.Token{},
		&query.AuthRequest{},
		&query.UserGrant{},
		&query.ProjectGrant{},
		&query.Application{},
		&query.LoginPolicy{},
		&query.PasswordComplexityPolicy{},
		&query.InstanceFeatures{},
		&query.SystemFeatures{},
	))
	return db
}
