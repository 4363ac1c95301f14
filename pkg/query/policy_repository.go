package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gorm.io/gorm"
)

// PolicyRepository serves login/password-complexity policy and
// feature-flag lookups. The org→instance→built-in
// fallback itself lives in pkg/policy, which composes this repository
// with the cache; this type only ever returns rows that actually
// exist.
type PolicyRepository struct {
	db *gorm.DB
}

// NewPolicyRepository builds a PolicyRepository over db.
func NewPolicyRepository(db *gorm.DB) *PolicyRepository { return &PolicyRepository{db: db} }

// GetLoginPolicy returns resourceOwner's own login policy row, or nil
// if none exists (the caller falls back to the next level).
func (r *PolicyRepository) GetLoginPolicy(ctx context.Context, instanceID, resourceOwner string) (*LoginPolicy, error) {
	var p LoginPolicy
	err := r.db.WithContext(ctx).Where("instance_id = ? AND resource_owner = ?", instanceID, resourceOwner).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

// GetPasswordComplexityPolicy returns resourceOwner's own password
// policy row, or nil if none exists.
func (r *PolicyRepository) GetPasswordComplexityPolicy(ctx context.Context, instanceID, resourceOwner string) (*PasswordComplexityPolicy, error) {
	var p PasswordComplexityPolicy
	err := r.db.WithContext(ctx).Where("instance_id = ? AND resource_owner = ?", instanceID, resourceOwner).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

// BuiltInPasswordComplexityPolicy is the hard-coded floor used when
// neither an org nor an instance row exists ("min length
// 8, upper+lower+digit required, symbol optional").
func BuiltInPasswordComplexityPolicy() PasswordComplexityPolicy {
	return PasswordComplexityPolicy{
		MinLength:     8,
		RequireUpper:  true,
		RequireLower:  true,
		RequireNumber: true,
		RequireSymbol: false,
	}
}

// ValidatePassword implements `validatePassword(pwd, policy)`: one
// error per failed rule.
func ValidatePassword(pwd string, policy PasswordComplexityPolicy) (valid bool, errs []string) {
	if len(pwd) < policy.MinLength {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters", policy.MinLength))
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range pwd {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		case strings.ContainsRune("!@#$%^&*()-_=+[]{}|;:,.<>?/~`", r):
			hasSymbol = true
		}
	}
	if policy.RequireUpper && !hasUpper {
		errs = append(errs, "password must contain an uppercase letter")
	}
	if policy.RequireLower && !hasLower {
		errs = append(errs, "password must contain a lowercase letter")
	}
	if policy.RequireNumber && !hasNumber {
		errs = append(errs, "password must contain a digit")
	}
	if policy.RequireSymbol && !hasSymbol {
		errs = append(errs, "password must contain a symbol")
	}
	return len(errs) == 0, errs
}

// GetInstanceFeatures returns instanceID's feature row, or an
// all-disabled default if none exists ("missing rows
// resolve to all-disabled").
func (r *PolicyRepository) GetInstanceFeatures(ctx context.Context, instanceID string) (InstanceFeatures, error) {
	var f InstanceFeatures
	err := r.db.WithContext(ctx).Where("instance_id = ?", instanceID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return InstanceFeatures{InstanceID: instanceID, Features: BoolMap{}}, nil
	}
	return f, err
}

// GetSystemFeatures returns the single process-wide feature row, or an
// all-disabled default if none exists.
func (r *PolicyRepository) GetSystemFeatures(ctx context.Context) (SystemFeatures, error) {
	var f SystemFeatures
	err := r.db.WithContext(ctx).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return SystemFeatures{Features: BoolMap{}}, nil
	}
	return f, err
}

// IsInstanceFeatureEnabled checks one named flag, defaulting to false
// when the instance row or the key is absent.
func (r *PolicyRepository) IsInstanceFeatureEnabled(ctx context.Context, instanceID, name string) (bool, error) {
	f, err := r.GetInstanceFeatures(ctx, instanceID)
	if err != nil {
		return false, err
	}
	return f.Features[name], nil
}

// IsImprovedPerformanceEnabled checks instanceID's improved-performance
// flag through its corrected accessor rather than the raw, typo'd
// BoolMap key.
func (r *PolicyRepository) IsImprovedPerformanceEnabled(ctx context.Context, instanceID string) (bool, error) {
	f, err := r.GetInstanceFeatures(ctx, instanceID)
	if err != nil {
		return false, err
	}
	return f.Features.ImprovedPerformance(), nil
}
