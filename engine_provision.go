package authcore

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/workhive/authcore/internal"
)

// ProvisionUser creates an account on behalf of an administrator. The
// account gets a generated temporary password, status pending and the
// first-login flag set; the owner must change the password on first login
// before the account becomes active.
//
// The temporary password is emailed to the new owner. If that email
// fails, the record is deleted again and ErrMailSend is returned.
func (e *Engine) ProvisionUser(ctx context.Context, in ProvisionInput) (*PublicUser, error) {
	if e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, ErrMissingFields
	}
	if !in.Role.Valid() {
		return nil, ErrRoleInvalid
	}

	switch _, err := e.users.FindByEmail(ctx, email); {
	case err == nil:
		return nil, ErrEmailExists
	case !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	temp, err := internal.NewTempPassword(
		e.config.TempPassword.Length,
		e.config.TempPassword.UseUpper,
		e.config.TempPassword.UseLower,
		e.config.TempPassword.UseDigits,
	)
	if err != nil {
		return nil, err
	}

	hash, err := e.hasher.Hash(temp)
	if err != nil {
		return nil, err
	}

	user := &UserRecord{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       AccountPending,
		FirstLogin:   true,
		CreatedAt:    time.Now(),
	}

	if err := e.createWithDisplayID(ctx, user); err != nil {
		return nil, err
	}

	err = e.sendMail(ctx, func(ctx context.Context) error {
		return e.mailer.SendTemporaryPassword(ctx, user.Email, user.DisplayID, temp)
	})
	if err != nil {
		if delErr := e.users.Delete(ctx, user.ID); delErr != nil {
			log.Printf("authcore: rollback delete of user %s failed: %v", user.ID, delErr)
		}
		return nil, ErrMailSend
	}

	e.metricInc(MetricProvisioned)
	view := publicView(user)
	return &view, nil
}

// FirstLoginChangePassword completes the forced password change for an
// administrator-provisioned account. It is single-use: the first
// successful call clears the first-login flag and a second call is
// rejected with ErrNotFirstLogin.
func (e *Engine) FirstLoginChangePassword(ctx context.Context, userID, newPassword, confirmPassword string) (*PublicUser, error) {
	if e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" || newPassword == "" || confirmPassword == "" {
		return nil, ErrMissingFields
	}
	if newPassword != confirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len(newPassword) < e.config.Password.MinLength {
		return nil, ErrPasswordTooShort
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.FirstLogin {
		return nil, ErrNotFirstLogin
	}

	if same, err := e.hasher.Verify(newPassword, user.PasswordHash); err == nil && same {
		return nil, ErrPasswordReuse
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = hash
	user.FirstLogin = false
	user.Status = AccountActive
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
		Kind:   NotificationAccountActivated,
	})

	e.metricInc(MetricFirstLoginChanged)
	view := publicView(user)
	return &view, nil
}
