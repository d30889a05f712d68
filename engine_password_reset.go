package authcore

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/workhive/authcore/internal"
)

// ForgotPassword starts the reset flow for a registered email. Only the
// token's hash is persisted; the plaintext goes into the emailed reset
// URL and is never stored.
//
// The reset URL is built from the configured frontend base URL, falling
// back to requestHost when unconfigured. If the email fails, the pending
// token is cleared and the send error is returned wrapped in ErrMailSend;
// unlike the other flows, the underlying message is meant to reach the
// caller.
func (e *Engine) ForgotPassword(ctx context.Context, email, requestHost string) error {
	if e.hasher == nil {
		return ErrEngineNotReady
	}
	email = NormalizeEmail(email)
	if email == "" {
		return ErrMissingFields
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return ErrUserNotFound
	}

	plaintext, err := internal.NewResetToken()
	if err != nil {
		return err
	}

	user.Reset = &ResetChallenge{
		TokenHash: internal.HashToken(plaintext),
		ExpiresAt: time.Now().Add(e.config.Reset.TTL),
	}
	if err := e.users.Update(ctx, user); err != nil {
		return err
	}

	resetURL := e.resetURL(requestHost, plaintext)

	err = e.sendMail(ctx, func(ctx context.Context) error {
		return e.mailer.SendResetLink(ctx, user.Email, resetURL)
	})
	if err != nil {
		user.Reset = nil
		if updErr := e.users.Update(ctx, user); updErr != nil {
			log.Printf("authcore: clearing reset token for user %s failed: %v", user.ID, updErr)
		}
		return fmt.Errorf("%w: %v", ErrMailSend, err)
	}

	e.metricInc(MetricResetRequested)
	return nil
}

// ResetPassword consumes an emailed reset token and sets a new password.
// The lookup hashes the presented token and matches hash and expiry in a
// single store query; any miss, including an expired token, reports
// ErrResetTokenInvalid. On success the token fields are cleared and a
// session is opened, so a completed reset doubles as a login.
func (e *Engine) ResetPassword(ctx context.Context, tokenPlaintext, newPassword string) (*AuthResult, error) {
	if e.hasher == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	if tokenPlaintext == "" || newPassword == "" {
		return nil, ErrMissingFields
	}
	if len(newPassword) < e.config.Password.MinLength {
		return nil, ErrPasswordTooShort
	}

	user, err := e.users.FindByResetTokenHash(ctx, internal.HashToken(tokenPlaintext), time.Now())
	if err != nil {
		return nil, ErrResetTokenInvalid
	}

	if same, err := e.hasher.Verify(newPassword, user.PasswordHash); err == nil && same {
		return nil, ErrPasswordReuse
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = hash
	user.Reset = nil
	if err := e.users.Update(ctx, user); err != nil {
		return nil, err
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

	result, err := e.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricResetCompleted)
	return result, nil
}

func (e *Engine) resetURL(requestHost, tokenPlaintext string) string {
	base := strings.TrimSuffix(e.config.Reset.FrontendBaseURL, "/")
	if base == "" {
		base = strings.TrimSuffix(requestHost, "/")
	}
	return base + "/reset-password/" + tokenPlaintext
}
