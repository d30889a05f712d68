package authcore

import (
	"context"
	"strings"
	"time"
)

// Role is the closed set of marketplace account roles.
type Role string

const (
	// RoleClient is the default role for self-registered accounts.
	RoleClient Role = "client"
	// RoleFreelancer identifies service-provider accounts.
	RoleFreelancer Role = "freelancer"
	// RoleAgent identifies agency accounts acting for freelancers.
	RoleAgent Role = "agent"
	// RoleAdmin identifies operator accounts.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin identifies the platform-owner account.
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether r is one of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleFreelancer, RoleAgent, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of a credential record.
type AccountStatus uint8

const (
	// AccountPending marks an administrator-provisioned account that has
	// not completed its forced first-login password change.
	AccountPending AccountStatus = iota
	// AccountInactive marks a self-registered account awaiting OTP
	// verification.
	AccountInactive
	// AccountActive marks a fully usable account.
	AccountActive
)

// String implements fmt.Stringer for status values in logs and responses.
func (s AccountStatus) String() string {
	switch s {
	case AccountPending:
		return "pending"
	case AccountInactive:
		return "inactive"
	case AccountActive:
		return "active"
	default:
		return "unknown"
	}
}

// OTPChallenge is a pending email one-time code. A nil pointer on the
// record means no challenge is pending; code and expiry are never present
// without each other.
type OTPChallenge struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the challenge has passed its expiry. A check at
// exactly ExpiresAt is still valid; only now > ExpiresAt expires it.
func (c *OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ResetChallenge is a pending password-reset token. Only the SHA-256 hash
// of the emailed token is stored; the plaintext exists solely inside the
// reset URL sent to the user.
type ResetChallenge struct {
	TokenHash string
	ExpiresAt time.Time
}

// UserRecord is the credential record: the single source of truth mutated
// by every authentication flow. The password hash and challenge fields
// never leave the engine; callers receive PublicUser views.
type UserRecord struct {
	ID            string
	DisplayID     string
	Email         string
	PasswordHash  string
	Role          Role
	Status        AccountStatus
	Phone         string
	EmailVerified bool
	FirstLogin    bool
	OTP           *OTPChallenge
	Reset         *ResetChallenge
	CreatedAt     time.Time
}

// PublicUser is the caller-visible projection of a credential record. It
// structurally cannot carry the password hash or pending secrets.
type PublicUser struct {
	ID            string `json:"id"`
	DisplayID     string `json:"displayId"`
	Email         string `json:"email"`
	Role          Role   `json:"role"`
	Status        string `json:"status"`
	EmailVerified bool   `json:"isEmailVerified"`
	FirstLogin    bool   `json:"isFirstLogin"`
}

func publicView(u *UserRecord) PublicUser {
	return PublicUser{
		ID:            u.ID,
		DisplayID:     u.DisplayID,
		Email:         u.Email,
		Role:          u.Role,
		Status:        u.Status.String(),
		EmailVerified: u.EmailVerified,
		FirstLogin:    u.FirstLogin,
	}
}

// NormalizeEmail lowers and trims an email address. Every lookup and store
// of an email goes through this, so case variants collide as intended.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserStore is the credential-store interface callers implement over their
// document database. Implementations must enforce uniqueness of email and
// display id and report violations with ErrEmailExists / ErrDisplayIDExists;
// lookups that match nothing return ErrUserNotFound.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
	FindByID(ctx context.Context, id string) (*UserRecord, error)
	// FindByResetTokenHash matches hash AND not-yet-expired in a single
	// predicate so there is no separate, timeable expiry check. A token
	// presented exactly at its expiry is still a match; only
	// now.After(expiresAt) misses.
	FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*UserRecord, error)
	// LastDisplayNumber returns the highest allocated display-id sequence
	// number for a prefix, 0 when none exist.
	LastDisplayNumber(ctx context.Context, prefix string) (int, error)
	Create(ctx context.Context, user *UserRecord) error
	Update(ctx context.Context, user *UserRecord) error
	Delete(ctx context.Context, id string) error
}

// Mailer delivers the engine's outbound email. Every call runs under the
// configured send timeout; a returned error triggers the calling flow's
// rollback path unless the flow is documented best-effort.
type Mailer interface {
	SendVerificationOTP(ctx context.Context, email, code string, expiresAt time.Time) error
	SendPasswordChangeOTP(ctx context.Context, email, code string, expiresAt time.Time) error
	SendPasswordChanged(ctx context.Context, email string) error
	SendResetLink(ctx context.Context, email, resetURL string) error
	SendTemporaryPassword(ctx context.Context, email, displayID, password string) error
}

// NotificationKind labels a side-channel notification event.
type NotificationKind string

const (
	// NotificationPasswordChanged is emitted after any successful password
	// change or reset.
	NotificationPasswordChanged NotificationKind = "password_changed"
	// NotificationAccountActivated is emitted when a first-login account
	// completes its forced password change.
	NotificationAccountActivated NotificationKind = "account_activated"
)

// Notification is the payload handed to the external Notifier.
type Notification struct {
	UserID  string
	Kind    NotificationKind
	Message string
}

// Notifier is the external real-time/persisted notification channel.
// Delivery is always best-effort: the engine dispatches asynchronously and
// swallows failures, so implementations may block or fail freely without
// affecting authentication outcomes.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// RegisterInput is the input for Engine.Register.
type RegisterInput struct {
	Email    string
	Password string
	Phone    string
}

// RegisterResult is returned by Engine.Register. No tokens are issued at
// registration; the account must verify its OTP first.
type RegisterResult struct {
	Email                string
	RequiresVerification bool
}

// ProvisionInput is the input for Engine.ProvisionUser.
type ProvisionInput struct {
	Email string
	Role  Role
}

// AuthResult carries freshly issued credentials and the public user view.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         PublicUser
	FirstLogin   bool
}

// RefreshResult is returned by Engine.Refresh. The refresh token itself is
// not rotated; only a new access token is issued.
type RefreshResult struct {
	AccessToken string
	User        PublicUser
}
