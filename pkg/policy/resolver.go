// Package policy implements the C5 policy resolver: a thin composition
// over pkg/query that memoizes the resolved effective policy per
// (instance, org, policyKind) with a short TTL and serves the
// org → instance → built-in fallback this resolver implements. The
// winning level supplies the whole policy — levels are never mixed
// field-by-field.
package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/coreidentity/authcore/pkg/cache"
	"github.com/coreidentity/authcore/pkg/query"
)

// instanceRoot is the sentinel resource_owner rows fall back to at the
// instance level — the instance's own default policy is stored keyed
// by this value rather than a real org id.
const instanceRoot = "__instance__"

// Resolver resolves effective login and password-complexity policies.
type Resolver struct {
	policies *query.PolicyRepository
	cache    *cache.Cache
	ttl      time.Duration
}

// New builds a Resolver. cache is shared with the rest of the process
// — the resolver only ever uses it to memoize policy reads, never to
// store anything authoritative (the cache is
// last-writer-wins and never authoritative").
func New(policies *query.PolicyRepository, c *cache.Cache, ttl time.Duration) *Resolver {
	return &Resolver{policies: policies, cache: c, ttl: ttl}
}

func loginPolicyKey(instanceID, org string) string {
	return fmt.Sprintf("policy:login:%s:%s", instanceID, org)
}

func passwordPolicyKey(instanceID, org string) string {
	return fmt.Sprintf("policy:password:%s:%s", instanceID, org)
}

// GetActiveLoginPolicy implements `getActiveLoginPolicy(org, instance)`:
// org-specific if present, else the instance default, else nil. The
// returned policy's IsOrgPolicy/IsDefault report which level actually
// supplied it.
func (r *Resolver) GetActiveLoginPolicy(ctx context.Context, instanceID, org string) (*query.LoginPolicy, error) {
	key := loginPolicyKey(instanceID, org)
	if cached, ok := r.cache.Get(key); ok {
		if cached == nil {
			return nil, nil
		}
		p := cached.(query.LoginPolicy)
		return &p, nil
	}

	p, err := r.policies.GetLoginPolicy(ctx, instanceID, org)
	if err != nil {
		return nil, err
	}
	if p != nil {
		p.IsOrgPolicy = true
	} else {
		p, err = r.policies.GetLoginPolicy(ctx, instanceID, instanceRoot)
		if err != nil {
			return nil, err
		}
		if p != nil {
			p.IsDefault = true
		}
	}

	if p == nil {
		r.cache.Set(key, nil, r.ttl, false)
		return nil, nil
	}
	r.cache.Set(key, *p, r.ttl, false)
	return p, nil
}

// GetEffectivePasswordComplexityPolicy implements the
// org-specific → instance default → built-in default fallback.
func (r *Resolver) GetEffectivePasswordComplexityPolicy(ctx context.Context, instanceID, org string) (query.PasswordComplexityPolicy, error) {
	key := passwordPolicyKey(instanceID, org)
	if cached, ok := r.cache.Get(key); ok {
		return cached.(query.PasswordComplexityPolicy), nil
	}

	p, err := r.policies.GetPasswordComplexityPolicy(ctx, instanceID, org)
	if err != nil {
		return query.PasswordComplexityPolicy{}, err
	}
	if p == nil {
		p, err = r.policies.GetPasswordComplexityPolicy(ctx, instanceID, instanceRoot)
		if err != nil {
			return query.PasswordComplexityPolicy{}, err
		}
	}

	var effective query.PasswordComplexityPolicy
	if p != nil {
		effective = *p
	} else {
		effective = query.BuiltInPasswordComplexityPolicy()
	}

	r.cache.Set(key, effective, r.ttl, false)
	return effective, nil
}

// InvalidateOrgPolicies clears the memoized policies for org, to be
// called when a policy-changing aggregate event is projected.
func (r *Resolver) InvalidateOrgPolicies(instanceID, org string) {
	r.cache.Delete(loginPolicyKey(instanceID, org))
	r.cache.Delete(passwordPolicyKey(instanceID, org))
}

// InvalidateInstancePolicies clears the memoized instance-level
// defaults; since they're a fallback target for every org, every org's
// entries for this instance also need to drop, so this clears the
// whole (instance, *) partition by pattern.
func (r *Resolver) InvalidateInstancePolicies(instanceID string) {
	r.cache.MDel(r.cache.Keys(fmt.Sprintf("policy:*:%s:*", instanceID)))
}
