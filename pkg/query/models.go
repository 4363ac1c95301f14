// Package query implements C4: read-only, tenant-scoped lookups over
// the projection tables pkg/projection maintains. Generalizes
// internal/infrastructure/user_read_model_gorm.go's
// GORM-repository-per-read-model pattern to every read entity in
// the write side.
package query

import "time"

// Organization is the read model behind getOrgByID/searchOrgs.
type Organization struct {
	ID            string `gorm:"primaryKey"`
	InstanceID    string `gorm:"index:idx_org_instance"`
	Name          string
	State         string
	PrimaryDomain string
	Sequence      int
	CreatedAt     time.Time
}

// TableName implements gorm's Tabler.
func (Organization) TableName() string { return "orgs" }

// OrgDomain is the read model behind getOrgDomainsByID /
// isDomainAvailable / getPrimaryDomainByOrgID.
type OrgDomain struct {
	OrgID            string `gorm:"primaryKey"`
	Domain           string `gorm:"primaryKey"`
	InstanceID       string `gorm:"index:idx_orgdomain_instance"`
	Verified         bool
	IsPrimary        bool
	ValidationMethod string
	ValidationCode   string
}

// TableName implements gorm's Tabler.
func (OrgDomain) TableName() string { return "org_domains" }

// OrgMember is a supplemental read model: org-level admin role
// assignment, distinct from project UserGrants.
type OrgMember struct {
	OrgID      string `gorm:"primaryKey"`
	UserID     string `gorm:"primaryKey"`
	InstanceID string `gorm:"index:idx_orgmember_instance"`
	Roles      StringList
}

// TableName implements gorm's Tabler.
func (OrgMember) TableName() string { return "org_members" }

// User is the read model behind user lookups.
type User struct {
	ID            string `gorm:"primaryKey"`
	InstanceID    string `gorm:"index:idx_user_instance"`
	ResourceOwner string `gorm:"index:idx_user_resource_owner"`
	State         string
	UserType      string
	Username      string
	VerifiedEmail string
	VerifiedPhone string
	PasswordHash  string `json:"-"`
	Sequence      int
}

// TableName implements gorm's Tabler.
func (User) TableName() string { return "users" }

// Session is the read model behind session lookups.
type Session struct {
	ID         string `gorm:"primaryKey"`
	InstanceID string `gorm:"index:idx_session_instance"`
	UserID     string `gorm:"index:idx_session_user"`
	State      string
	CreatedAt  time.Time
	ChangedAt  time.Time
	ExpiresAt  *time.Time
	Sequence   int
}

// TableName implements gorm's Tabler.
func (Session) TableName() string { return "sessions" }

// Token is the read model behind token introspection.
type Token struct {
	ID                     string `gorm:"primaryKey"`
	InstanceID             string `gorm:"index:idx_token_instance"`
	UserID                 string `gorm:"index:idx_token_user"`
	ApplicationID          string
	TokenType              string // ACCESS, REFRESH, ID
	Scopes                 StringList
	Audiences              StringList
	ExpiresAt              time.Time
	IdleExpiresAt          *time.Time
	AuthenticationMethods  StringList
	Revoked                bool
}

// TableName implements gorm's Tabler.
func (Token) TableName() string { return "tokens" }

// AuthRequest is the read model behind in-flight authorization
// requests.
type AuthRequest struct {
	ID                  string `gorm:"primaryKey"`
	InstanceID          string `gorm:"index:idx_authrequest_instance"`
	ClientID            string
	RedirectURI          string
	ResponseType        string
	Scopes              StringList
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
	Prompts             StringList
	Status              string
	CreatedAt           time.Time
	ExpiresAt           time.Time
}

// TableName implements gorm's Tabler.
func (AuthRequest) TableName() string { return "auth_requests" }

// UserGrant is the read model behind checkUserGrant/searchUserGrants.
type UserGrant struct {
	ID            string `gorm:"primaryKey"`
	InstanceID    string `gorm:"index:idx_usergrant_instance"`
	UserID        string `gorm:"index:idx_usergrant_user"`
	ProjectID     string `gorm:"index:idx_usergrant_project"`
	ProjectGrantID string
	State         string // ACTIVE, INACTIVE
	Roles         StringList
}

// TableName implements gorm's Tabler.
func (UserGrant) TableName() string { return "user_grants" }

// ProjectGrant is the supplemental read model behind
// searchProjectGrants/getProjectGrantByID.
type ProjectGrant struct {
	ID           string `gorm:"primaryKey"`
	InstanceID   string `gorm:"index:idx_projectgrant_instance"`
	ProjectID    string `gorm:"index:idx_projectgrant_project"`
	GrantedOrgID string `gorm:"index:idx_projectgrant_grantedorg"`
	RoleKeys     StringList
}

// TableName implements gorm's Tabler.
func (ProjectGrant) TableName() string { return "project_grants" }

// Application is the supplemental read model behind
// searchApplications/getApplicationByClientID.
type Application struct {
	ID           string `gorm:"primaryKey"`
	InstanceID   string `gorm:"index:idx_application_instance"`
	ProjectID    string `gorm:"index:idx_application_project"`
	Name         string
	ClientID     string `gorm:"uniqueIndex:idx_application_clientid"`
	RedirectURIs StringList
	Active       bool
}

// TableName implements gorm's Tabler.
func (Application) TableName() string { return "applications" }

// LoginPolicy is the read model behind effective login policy
// resolution (org level; instance/built-in defaults live in
// pkg/policy). IsDefault/IsOrgPolicy are not persisted columns — they
// are set by pkg/policy.Resolver to report which level actually
// supplied the row, never by the projection that writes it.
type LoginPolicy struct {
	ResourceOwner           string `gorm:"primaryKey"`
	InstanceID              string `gorm:"index:idx_loginpolicy_instance"`
	AllowUsernamePassword   bool
	AllowRegistration       bool
	AllowExternalIDP        bool
	ForceMFA                bool
	ForceMFALocalOnly       bool
	PasswordCheckLifetime   time.Duration
	MultiFactorCheckLifetime time.Duration
	SecondFactorTypes       StringList
	MultiFactorTypes        StringList
	LinkedIDPs              StringList

	IsDefault   bool `gorm:"-"`
	IsOrgPolicy bool `gorm:"-"`
}

// TableName implements gorm's Tabler.
func (LoginPolicy) TableName() string { return "login_policies" }

// PasswordComplexityPolicy is the read model behind password
// complexity requirements.
type PasswordComplexityPolicy struct {
	ResourceOwner  string `gorm:"primaryKey"`
	InstanceID     string `gorm:"index:idx_pwpolicy_instance"`
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireNumber  bool
	RequireSymbol  bool
}

// TableName implements gorm's Tabler.
func (PasswordComplexityPolicy) TableName() string { return "password_complexity_policies" }

// InstanceFeatures/SystemFeatures are named booleans keyed by instance
// or globally.
type InstanceFeatures struct {
	InstanceID string `gorm:"primaryKey"`
	Features   BoolMap
}

// TableName implements gorm's Tabler.
func (InstanceFeatures) TableName() string { return "instance_features" }

// SystemFeatures holds process-wide feature defaults shared across
// instances.
type SystemFeatures struct {
	ID       uint `gorm:"primaryKey"`
	Features BoolMap
}

// TableName implements gorm's Tabler.
func (SystemFeatures) TableName() string { return "system_features" }
