package authcore

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/workhive/authcore/internal"
)

// Register creates a pending client account and emails a verification
// code. The account stays unusable until VerifyOTP succeeds.
//
// If the verification email cannot be sent, the freshly created record is
// deleted again and ErrMailSend is returned, so the email address is not
// left claimed by an account its owner never heard about.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	email := NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if len(in.Password) < e.config.Password.MinLength {
		return nil, ErrPasswordTooShort
	}

	// Only a definitive not-found means the address is free; a store
	// outage must not be mistaken for an available email.
	switch _, err := e.users.FindByEmail(ctx, email); {
	case err == nil:
		return nil, ErrEmailExists
	case !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	hash, err := e.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return nil, err
	}

	nowT := time.Now()
	user := &UserRecord{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         RoleClient,
		Status:       AccountInactive,
		Phone:        in.Phone,
		OTP: &OTPChallenge{
			Code:      code,
			ExpiresAt: nowT.Add(e.config.OTP.TTL),
		},
		CreatedAt: nowT,
	}

	if err := e.createWithDisplayID(ctx, user); err != nil {
		return nil, err
	}

	err = e.sendMail(ctx, func(ctx context.Context) error {
		return e.mailer.SendVerificationOTP(ctx, user.Email, code, user.OTP.ExpiresAt)
	})
	if err != nil {
		if delErr := e.users.Delete(ctx, user.ID); delErr != nil {
			log.Printf("authcore: rollback delete of user %s failed: %v", user.ID, delErr)
		}
		e.metricInc(MetricRegisterRolledBack)
		return nil, ErrMailSend
	}

	e.metricInc(MetricRegisterSuccess)
	return &RegisterResult{
		Email:                user.Email,
		RequiresVerification: true,
	}, nil
}

// VerifyOTP consumes a registration verification code. On success the
// account is activated, the challenge is cleared so the code cannot be
// replayed, and a session is opened.
func (e *Engine) VerifyOTP(ctx context.Context, email, code string) (*AuthResult, error) {
	if e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	email = NormalizeEmail(email)
	if email == "" || code == "" {
		return nil, ErrMissingFields
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.OTP == nil {
		e.metricInc(MetricOTPRejected)
		return nil, ErrOTPNotFound
	}
	if user.OTP.Expired(time.Now()) {
		e.metricInc(MetricOTPRejected)
		return nil, ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(user.OTP.Code), []byte(code)) != 1 {
		e.metricInc(MetricOTPRejected)
		return nil, ErrOTPInvalid
	}

	user.EmailVerified = true
	user.Status = AccountActive
	user.OTP = nil
	if err := e.users.Update(ctx, user); err != nil {
		return nil, err
	}

	e.notify.Dispatch(ctx, Notification{
		UserID: user.ID,
		Kind:   NotificationAccountActivated,
	})

	result, err := e.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricOTPVerified)
	return result, nil
}

// ResendOTP replaces a pending account's verification code and emails the
// new one. If the email fails, the previous challenge is restored so a
// code the user may already hold keeps working, and ErrMailSend is
// returned.
func (e *Engine) ResendOTP(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return ErrMissingFields
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return ErrUserNotFound
	}
	if user.Status == AccountActive && user.EmailVerified {
		return ErrAlreadyVerified
	}

	prior := user.OTP

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
		return e.mailer.SendVerificationOTP(ctx, user.Email, code, user.OTP.ExpiresAt)
	})
	if err != nil {
		user.OTP = prior
		if updErr := e.users.Update(ctx, user); updErr != nil {
			log.Printf("authcore: restoring verification code for user %s failed: %v", user.ID, updErr)
		}
		return ErrMailSend
	}

	e.metricInc(MetricOTPResent)
	return nil
}
