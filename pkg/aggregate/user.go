package aggregate

import "github.com/coreidentity/authcore/pkg/domain"

// UserAggregateType is the event-store aggregate_type for users.
const UserAggregateType = "user"

// User state values.
const (
	UserStateUnspecified = "UNSPECIFIED"
	UserStateActive      = "ACTIVE"
	UserStateInactive    = "INACTIVE"
	UserStateDeleted     = "DELETED"
	UserStateLocked      = "LOCKED"
	UserStateSuspended   = "SUSPENDED"
	UserStateInitial     = "INITIAL"
)

// User type values.
const (
	UserTypeHuman   = "HUMAN"
	UserTypeMachine = "MACHINE"
)

// UserCreated is emitted when a user first comes into existence.
type UserCreated struct {
	domain.BaseEvent
	ResourceOwner string `json:"resourceOwner"`
	Username      string `json:"username"`
	UserType      string `json:"userType"`
}

// UserEmailVerified records a verified email address.
type UserEmailVerified struct {
	domain.BaseEvent
	Email string `json:"email"`
}

// UserPhoneVerified records a verified phone number.
type UserPhoneVerified struct {
	domain.BaseEvent
	Phone string `json:"phone"`
}

// UserLocked transitions the user to LOCKED, e.g. after repeated auth
// failures.
type UserLocked struct {
	domain.BaseEvent
}

// UserUnlocked transitions the user back to ACTIVE from LOCKED.
type UserUnlocked struct {
	domain.BaseEvent
}

// UserSuspended transitions the user to SUSPENDED, e.g. by an
// administrator.
type UserSuspended struct {
	domain.BaseEvent
}

// UserDeactivated transitions the user to INACTIVE.
type UserDeactivated struct {
	domain.BaseEvent
}

// UserReactivated transitions the user back to ACTIVE.
type UserReactivated struct {
	domain.BaseEvent
}

// UserDeleted is the terminal event for a user. Once applied,
// deletion is a terminal event, not a row removal.
type UserDeleted struct {
	domain.BaseEvent
}

// UserPasswordChanged records a new credential hash. The event only
// ever carries the bcrypt hash, never the plaintext.
type UserPasswordChanged struct {
	domain.BaseEvent
	PasswordHash string `json:"passwordHash"`
}

// User is the C2 aggregate behind the User read model.
type User struct {
	domain.Entity

	InstanceID      string
	ResourceOwner   string
	Username        string
	UserType        string
	State           string
	VerifiedEmail   string
	VerifiedPhone   string
	PasswordHash    string
}

// NewUserAggregate is the Factory the repository uses to build an
// empty instance before folding history onto it.
func NewUserAggregate(instanceID, id string) *User {
	return &User{Entity: domain.NewEntity(id, UserAggregateType), InstanceID: instanceID}
}

// CreateUser validates and records the creation event.
func (u *User) CreateUser(resourceOwner, username, userType string) error {
	if u.Sequence() != 0 {
		return domain.NewDomainError(domain.CodeAlreadyExists, "user already created", nil)
	}
	if !domain.IsValidUUID(u.ID()) {
		return domain.NewValidationError("id", "must be a UUID v4", u.ID())
	}
	if username == "" {
		return domain.NewValidationError("username", "must not be empty", username)
	}
	if userType != UserTypeHuman && userType != UserTypeMachine {
		return domain.NewValidationError("userType", "must be HUMAN or MACHINE", userType)
	}
	u.apply(&UserCreated{
		BaseEvent:     domain.BaseEvent{Type: "user.created", ID: u.ID()},
		ResourceOwner: resourceOwner,
		Username:      username,
		UserType:      userType,
	})
	return nil
}

// VerifyEmail records a verified email, replacing any previous one.
func (u *User) VerifyEmail(email string) error {
	if u.State == UserStateDeleted {
		return domain.NewDomainError(domain.CodePreconditionFailed, "user is deleted", nil)
	}
	if email == "" {
		return domain.NewValidationError("email", "must not be empty", email)
	}
	u.apply(&UserEmailVerified{BaseEvent: domain.BaseEvent{Type: "user.email_verified", ID: u.ID()}, Email: email})
	return nil
}

// VerifyPhone records a verified phone number.
func (u *User) VerifyPhone(phone string) error {
	if u.State == UserStateDeleted {
		return domain.NewDomainError(domain.CodePreconditionFailed, "user is deleted", nil)
	}
	u.apply(&UserPhoneVerified{BaseEvent: domain.BaseEvent{Type: "user.phone_verified", ID: u.ID()}, Phone: phone})
	return nil
}

// Lock transitions the user to LOCKED. No-op if already locked.
func (u *User) Lock() error {
	if u.State == UserStateDeleted {
		return domain.NewDomainError(domain.CodePreconditionFailed, "user is deleted", nil)
	}
	if u.State == UserStateLocked {
		return nil
	}
	u.apply(&UserLocked{BaseEvent: domain.BaseEvent{Type: "user.locked", ID: u.ID()}})
	return nil
}

// Unlock transitions a LOCKED user back to ACTIVE.
func (u *User) Unlock() error {
	if u.State != UserStateLocked {
		return domain.NewDomainError(domain.CodePreconditionFailed, "user is not locked", nil)
	}
	u.apply(&UserUnlocked{BaseEvent: domain.BaseEvent{Type: "user.unlocked", ID: u.ID()}})
	return nil
}

// Suspend transitions the user to SUSPENDED.
func (u *User) Suspend() error {
	if u.State == UserStateDeleted {
		return domain.NewDomainError(domain.CodePreconditionFailed, "user is deleted", nil)
	}
	if u.State == UserStateSuspended {
		return nil
	}
	u.apply(&UserSuspended{BaseEvent: domain.BaseEvent{Type: "user.suspended", ID: u.ID()}})
	return nil
}

// Deactivate transitions the user to INACTIVE.
func (u *User) Deactivate() error {
	if u.State == UserStateDeleted {
		return domain.NewDomainError(domain.CodePreconditionFailed, "user is deleted", nil)
	}
	if u.State == UserStateInactive {
		return nil
	}
	u.apply(&UserDeactivated{BaseEvent: domain.BaseEvent{Type: "user.deactivated", ID: u.ID()}})
	return nil
}

// Reactivate transitions the user back to ACTIVE.
func (u *User) Reactivate() error {
	if u.State == UserStateDeleted {
		return domain.NewDomainError(domain.CodePreconditionFailed, "user is deleted", nil)
	}
	if u.State == UserStateActive {
		return nil
	}
	u.apply(&UserReactivated{BaseEvent: domain.BaseEvent{Type: "user.reactivated", ID: u.ID()}})
	return nil
}

// SetPassword records a new credential hash. Callers hash the
// plaintext (pkg/security.HashPassword) before calling this; the
// aggregate never sees or stores plaintext.
func (u *User) SetPassword(passwordHash string) error {
	if u.State == UserStateDeleted {
		return domain.NewDomainError(domain.CodePreconditionFailed, "user is deleted", nil)
	}
	if passwordHash == "" {
		return domain.NewValidationError("passwordHash", "must not be empty", passwordHash)
	}
	u.apply(&UserPasswordChanged{BaseEvent: domain.BaseEvent{Type: "user.password_changed", ID: u.ID()}, PasswordHash: passwordHash})
	return nil
}

// Delete records the terminal deletion event. Idempotent: deleting a
// deleted user is a no-op, consistent with the session-termination
// idempotence the rest of this package relies on.
func (u *User) Delete() error {
	if u.State == UserStateDeleted {
		return nil
	}
	u.apply(&UserDeleted{BaseEvent: domain.BaseEvent{Type: "user.deleted", ID: u.ID()}})
	return nil
}

func (u *User) apply(event domain.Event) {
	u.mutate(event)
	u.Record(event)
}

func (u *User) mutate(event domain.Event) {
	switch e := event.(type) {
	case *UserCreated:
		u.ResourceOwner = e.ResourceOwner
		u.Username = e.Username
		u.UserType = e.UserType
		u.State = UserStateInitial
	case *UserEmailVerified:
		u.VerifiedEmail = e.Email
	case *UserPhoneVerified:
		u.VerifiedPhone = e.Phone
	case *UserPasswordChanged:
		u.PasswordHash = e.PasswordHash
	case *UserLocked:
		u.State = UserStateLocked
	case *UserUnlocked:
		u.State = UserStateActive
	case *UserSuspended:
		u.State = UserStateSuspended
	case *UserDeactivated:
		u.State = UserStateInactive
	case *UserReactivated:
		u.State = UserStateActive
	case *UserDeleted:
		u.State = UserStateDeleted
	}
}

// LoadFromHistory implements domain.AggregateRoot.
func (u *User) LoadFromHistory(events []domain.Event) {
	ctors := map[string]func() domain.Event{
		"user.created":        func() domain.Event { return &UserCreated{} },
		"user.email_verified": func() domain.Event { return &UserEmailVerified{} },
		"user.phone_verified": func() domain.Event { return &UserPhoneVerified{} },
		"user.password_changed": func() domain.Event { return &UserPasswordChanged{} },
		"user.locked":         func() domain.Event { return &UserLocked{} },
		"user.unlocked":       func() domain.Event { return &UserUnlocked{} },
		"user.suspended":      func() domain.Event { return &UserSuspended{} },
		"user.deactivated":    func() domain.Event { return &UserDeactivated{} },
		"user.reactivated":    func() domain.Event { return &UserReactivated{} },
		"user.deleted":        func() domain.Event { return &UserDeleted{} },
	}
	for _, raw := range events {
		if event := decodeEvent(raw, ctors); event != nil {
			u.mutate(event)
		}
		u.ReplaySequence()
	}
}
