package authcore

import (
	"context"
	"crypto/subtle"
	"log"
	"time"

	"github.com/workhive/authcore/internal"
)

// SendPasswordChangeOTP starts the OTP-gated password change for an
// authenticated user. The current password must be presented again; a
// fresh code is then persisted and emailed.
//
// Records from before display IDs existed get one backfilled here. If the
// email fails, the pending challenge is cleared before the error is
// returned so no unusable code lingers on the record.
func (e *Engine) SendPasswordChangeOTP(ctx context.Context, userID, currentPassword string) error {
	if e.hasher == nil {
		return ErrEngineNotReady
	}
	if userID == "" || currentPassword == "" {
		return ErrMissingFields
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	ok, err := e.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil || !ok {
		return ErrCurrentPassword
	}

	if err := e.backfillDisplayID(ctx, user); err != nil {
		return err
	}

	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return err
	}
	user.OTP = &OTPChallenge{
		Code:      code,
		ExpiresAt: time.Now().Add(e.config.OTP.TTL),
	}
	if err := e.users.Update(ctx, user); err != nil {
		return err
	}

	err = e.sendMail(ctx, func(ctx context.Context) error {
		return e.mailer.SendPasswordChangeOTP(ctx, user.Email, code, user.OTP.ExpiresAt)
	})
	if err != nil {
		user.OTP = nil
		if updErr := e.users.Update(ctx, user); updErr != nil {
			log.Printf("authcore: clearing password-change code for user %s failed: %v", user.ID, updErr)
		}
		return ErrMailSend
	}

	return nil
}

// ChangePassword completes the OTP-gated password change. The new
// password must differ from the current one and the presented code must
// be the live, unexpired challenge. The challenge is cleared on success
// so a code is never accepted twice.
//
// The confirmation email and in-app notification are best-effort; their
// failure is logged, never returned.
func (e *Engine) ChangePassword(ctx context.Context, userID, newPassword, otpCode string) error {
	if e.hasher == nil {
		return ErrEngineNotReady
	}
	if userID == "" || newPassword == "" || otpCode == "" {
		return ErrMissingFields
	}
	if len(newPassword) < e.config.Password.MinLength {
		return ErrPasswordTooShort
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	if same, err := e.hasher.Verify(newPassword, user.PasswordHash); err == nil && same {
		return ErrPasswordReuse
	}

	if user.OTP == nil {
		return ErrOTPNotFound
	}
	if user.OTP.Expired(time.Now()) {
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(user.OTP.Code), []byte(otpCode)) != 1 {
		return ErrOTPInvalid
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.OTP = nil
	if err := e.users.Update(ctx, user); err != nil {
		return err
	}

	if mailErr := e.sendMail(ctx, func(ctx context.Context) error {
		return e.mailer.SendPasswordChanged(ctx, user.Email)
	}); mailErr != nil {
		log.Printf("authcore: password-changed email for user %s failed: %v", user.ID, mailErr)
	}
	e.notify.Dispatch(ctx, Notification{
		UserID: user.ID,
		Kind:   NotificationPasswordChanged,
	})

	e.metricInc(MetricPasswordChanged)
	return nil
}
