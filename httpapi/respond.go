package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/workhive/authcore"
)

// statusFor maps engine sentinels to the HTTP contract. Anything
// unmapped becomes a generic 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, authcore.ErrMissingFields),
		errors.Is(err, authcore.ErrEmailExists),
		errors.Is(err, authcore.ErrOTPNotFound),
		errors.Is(err, authcore.ErrOTPExpired),
		errors.Is(err, authcore.ErrOTPInvalid),
		errors.Is(err, authcore.ErrAlreadyVerified),
		errors.Is(err, authcore.ErrCurrentPassword),
		errors.Is(err, authcore.ErrPasswordReuse),
		errors.Is(err, authcore.ErrPasswordTooShort),
		errors.Is(err, authcore.ErrPasswordMismatch),
		errors.Is(err, authcore.ErrNotFirstLogin),
		errors.Is(err, authcore.ErrResetTokenInvalid),
		errors.Is(err, authcore.ErrRoleInvalid):
		return http.StatusBadRequest
	case errors.Is(err, authcore.ErrInvalidCredentials),
		errors.Is(err, authcore.ErrRefreshInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, authcore.ErrAccountInactive),
		errors.Is(err, authcore.ErrEmailNotVerified):
		return http.StatusForbidden
	case errors.Is(err, authcore.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns client-safe text for a sentinel. Unmapped errors
// collapse to a generic message so internals never leak.
func messageFor(err error) string {
	switch {
	case errors.Is(err, authcore.ErrMissingFields):
		return "required fields are missing"
	case errors.Is(err, authcore.ErrEmailExists):
		return "email already registered"
	case errors.Is(err, authcore.ErrOTPNotFound):
		return "OTP not found"
	case errors.Is(err, authcore.ErrOTPExpired):
		return "OTP expired"
	case errors.Is(err, authcore.ErrOTPInvalid):
		return "invalid OTP"
	case errors.Is(err, authcore.ErrAlreadyVerified):
		return "email already verified"
	case errors.Is(err, authcore.ErrCurrentPassword):
		return "current password is incorrect"
	case errors.Is(err, authcore.ErrPasswordReuse):
		return "new password must differ from the current password"
	case errors.Is(err, authcore.ErrPasswordTooShort):
		return "password must be at least 6 characters"
	case errors.Is(err, authcore.ErrPasswordMismatch):
		return "passwords do not match"
	case errors.Is(err, authcore.ErrNotFirstLogin):
		return "not a first-login account"
	case errors.Is(err, authcore.ErrResetTokenInvalid):
		return "invalid or expired token"
	case errors.Is(err, authcore.ErrRoleInvalid):
		return "invalid role"
	case errors.Is(err, authcore.ErrInvalidCredentials):
		return "invalid credentials"
	case errors.Is(err, authcore.ErrRefreshInvalid):
		return "refresh token not found or revoked"
	case errors.Is(err, authcore.ErrAccountInactive):
		return "account inactive"
	case errors.Is(err, authcore.ErrEmailNotVerified):
		return "email not verified; request a new verification code"
	case errors.Is(err, authcore.ErrUserNotFound):
		return "user not found"
	case errors.Is(err, authcore.ErrMailSend):
		return "failed to send email"
	default:
		return "internal server error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeMessage(w, statusFor(err), messageFor(err))
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
