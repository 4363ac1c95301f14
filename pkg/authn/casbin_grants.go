package authn

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"

	"github.com/coreidentity/authcore/pkg/query"
)

// grantModel is a plain RBAC model: `g` expresses role inheritance
// (a user grant's role keys), `p` expresses which role may act on
// which project. checkUserGrant only ever needs "does user have role R
// on project P", so the model skips actions/resources beyond that.
const grantModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

// GrantChecker adapts casbin's RBAC enforcer as the engine behind
// checkUserGrant: grant rows fetched from the query layer are loaded
// into a per-request enforcer scoped to a single (instance, user) pair
// rather than one shared global enforcer, so tenants never share
// policy state.
type GrantChecker struct {
	grants *query.GrantRepository
}

// NewGrantChecker builds a GrantChecker backed by the query layer's
// user-grant repository.
func NewGrantChecker(grants *query.GrantRepository) *GrantChecker {
	return &GrantChecker{grants: grants}
}

// CheckUserGrant implements checkUserGrant(user, project, role): loads
// the user's active grants for the project, builds a scoped enforcer
// from them, and asks whether the role is satisfied by role
// membership. An empty role means "any active grant exists".
func (g *GrantChecker) CheckUserGrant(ctx context.Context, instanceID, userID, projectID, role string) (bool, error) {
	result, err := g.grants.CheckUserGrant(ctx, instanceID, userID, projectID, "")
	if err != nil {
		return false, err
	}
	if !result.Exists {
		return false, nil
	}
	if role == "" {
		return true, nil
	}

	m, err := model.NewModelFromString(grantModel)
	if err != nil {
		return false, fmt.Errorf("building grant model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return false, fmt.Errorf("building grant enforcer: %w", err)
	}

	for _, roleKey := range result.Roles {
		if _, err := enforcer.AddGroupingPolicy(userID, roleKey); err != nil {
			return false, fmt.Errorf("loading grant role %q: %w", roleKey, err)
		}
	}
	if _, err := enforcer.AddPolicy(role, projectID); err != nil {
		return false, fmt.Errorf("loading grant policy: %w", err)
	}

	return enforcer.Enforce(userID, projectID)
}
