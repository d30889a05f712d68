package authcore

import "errors"

var (
	// ErrMissingFields is returned when a flow's required input is absent
	// or empty.
	ErrMissingFields = errors.New("missing required fields")
	// ErrInvalidCredentials is the generic login failure. It deliberately
	// does not distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive is returned when a non-first-login account that
	// is not active attempts to authenticate.
	ErrAccountInactive = errors.New("account is inactive")
	// ErrEmailNotVerified is returned when an unverified client logs in.
	// The caller should offer an OTP resend.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrUserNotFound is returned by store lookups that match no record,
	// and surfaced directly in flows where email disclosure is accepted.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when registration or provisioning targets
	// an email that is already registered.
	ErrEmailExists = errors.New("email already registered")
	// ErrDisplayIDExists is reported by UserStore implementations on a
	// display-id uniqueness violation; the allocator retries on it.
	ErrDisplayIDExists = errors.New("display id already taken")
	// ErrDisplayIDExhausted is returned when the bounded collision-retry
	// loop runs out of attempts.
	ErrDisplayIDExhausted = errors.New("display id allocation retries exhausted")
	// ErrRoleInvalid is returned for a role outside the closed set.
	ErrRoleInvalid = errors.New("invalid role")
	// ErrOTPNotFound is returned when no OTP challenge is pending.
	ErrOTPNotFound = errors.New("no otp requested")
	// ErrOTPExpired is returned when the pending OTP's window has passed.
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPInvalid is returned when the presented code does not match.
	ErrOTPInvalid = errors.New("invalid otp")
	// ErrAlreadyVerified short-circuits an OTP resend for an account that
	// is already active and verified.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrCurrentPassword is returned when the presented current password
	// does not match during an authenticated password-change flow.
	ErrCurrentPassword = errors.New("current password is incorrect")
	// ErrPasswordReuse rejects a "new" password equal to the current one.
	ErrPasswordReuse = errors.New("new password must differ from current password")
	// ErrPasswordTooShort rejects passwords below the configured minimum.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrPasswordMismatch rejects a confirmation that differs from the new
	// password.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrNotFirstLogin rejects the single-use first-login change on an
	// account whose flag has already been consumed.
	ErrNotFirstLogin = errors.New("not a first-login account")
	// ErrResetTokenInvalid covers unknown, expired, and already-used reset
	// tokens alike.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	// ErrRefreshInvalid covers every refresh rejection: missing, malformed,
	// expired, revoked, or superseded tokens all look the same.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrMailSend wraps a dependent mail-service failure after the flow's
	// compensating rollback has run.
	ErrMailSend = errors.New("email could not be sent")
	// ErrEngineNotReady is returned when the engine is missing wiring.
	ErrEngineNotReady = errors.New("engine not initialized")
)
