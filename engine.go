package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/workhive/authcore/password"
	"github.com/workhive/authcore/registry"
	"github.com/workhive/authcore/token"
)

// Engine is the authentication core. It owns credential verification,
// token issuance and the refresh-token registry; user persistence and
// email delivery stay behind the UserStore and Mailer interfaces.
//
// An Engine is safe for concurrent use after Build.
type Engine struct {
	config        Config
	users         UserStore
	mailer        Mailer
	hasher        *password.Argon2
	tokens        *token.Manager
	refreshTokens *registry.Store
	notify        *notifyDispatcher
	metrics       *Metrics
}

// Close releases background resources. It drains and stops the
// notification dispatcher; new dispatches after Close are dropped.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.notify != nil {
		e.notify.Close()
	}
}

// NotificationsDropped reports how many notifications were discarded
// because the dispatcher buffer was full.
func (e *Engine) NotificationsDropped() uint64 {
	if e == nil || e.notify == nil {
		return 0
	}
	return e.notify.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the flow counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login verifies credentials and opens a session.
//
// Credential failures of any shape (unknown email, wrong password,
// missing input) collapse into ErrInvalidCredentials so callers cannot
// probe which emails exist. After credentials pass, clients with an
// unverified email are rejected with ErrEmailNotVerified, then any other
// non-active account with ErrAccountInactive; a first-login account is
// exempt from both so it can reach the forced password change.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*AuthResult, error) {
	if e.hasher == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	email = NormalizeEmail(email)
	if email == "" || plaintext == "" {
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		return nil, ErrInvalidCredentials
	}

	// Unverified clients are reported before the inactive check: a fresh
	// self-registration is both, and only "email not verified" tells the
	// user what to do about it (resend the code).
	if user.Role == RoleClient && !user.EmailVerified && !user.FirstLogin {
		e.metricInc(MetricLoginFailure)
		return nil, ErrEmailNotVerified
	}
	if user.Status != AccountActive && !user.FirstLogin {
		e.metricInc(MetricLoginFailure)
		return nil, ErrAccountInactive
	}

	result, err := e.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricLoginSuccess)
	return result, nil
}

// Refresh exchanges a refresh token for a fresh access token. The token
// must parse, and must be the exact value currently registered for its
// subject; a token displaced by a newer login fails even though its own
// expiry has not passed. No rotation happens: the presented refresh token
// stays valid and registered.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	if refreshToken == "" {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}

	subject, err := e.tokens.ParseRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}

	stored, err := e.refreshTokens.Get(ctx, subject)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		if errors.Is(err, registry.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if stored != refreshToken {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}

	user, err := e.users.FindByID(ctx, subject)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}
	if user.Status != AccountActive && !user.FirstLogin {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrAccountInactive
	}

	access, err := e.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	return &RefreshResult{
		AccessToken: access,
		User:        publicView(user),
	}, nil
}

// Logout revokes the registry entry for the presented refresh token. An
// unparseable token or an already-empty registry slot is not an error;
// logout is idempotent.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e.tokens == nil {
		return ErrEngineNotReady
	}
	if refreshToken == "" {
		return nil
	}
	subject, err := e.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil
	}
	if err := e.refreshTokens.Revoke(ctx, subject); err != nil {
		return err
	}
	e.metricInc(MetricLogout)
	return nil
}

// RevokeSession deletes the registry entry for a user ID directly. The
// transport layer uses it for authenticated logout, where the current
// user is already known from the access token.
func (e *Engine) RevokeSession(ctx context.Context, userID string) error {
	if e == nil || e.refreshTokens == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrMissingFields
	}
	if err := e.refreshTokens.Revoke(ctx, userID); err != nil {
		return err
	}
	e.metricInc(MetricLogout)
	return nil
}

// CookieSettings returns the refresh-cookie attributes the transport
// layer must apply identically on set and clear.
func (e *Engine) CookieSettings() CookieConfig {
	return e.config.Cookie
}

// RefreshTTL returns the configured refresh-token lifetime.
func (e *Engine) RefreshTTL() time.Duration {
	return e.config.Token.RefreshTTL
}

// ValidateAccess parses an access token and returns the subject user ID.
func (e *Engine) ValidateAccess(accessToken string) (string, error) {
	if e == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}
	subject, err := e.tokens.ParseAccess(accessToken)
	if err != nil {
		return "", err
	}
	return subject, nil
}

// openSession issues both tokens and registers the refresh token,
// displacing any previous session for the user. The registry write is
// last: a failed write must not leave a refresh token the registry will
// later reject.
func (e *Engine) openSession(ctx context.Context, user *UserRecord) (*AuthResult, error) {
	access, err := e.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := e.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	if err := e.refreshTokens.Put(ctx, user.ID, refresh, e.config.Token.RefreshTTL); err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         publicView(user),
		FirstLogin:   user.FirstLogin,
	}, nil
}

// sendMail runs one Mailer call under the configured send timeout.
func (e *Engine) sendMail(ctx context.Context, send func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.config.Mail.SendTimeout)
	defer cancel()
	return send(ctx)
}
