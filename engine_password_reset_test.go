package authcore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/workhive/authcore/internal"
)

func resetTokenFromLink(t *testing.T, url string) string {
	t.Helper()
	i := strings.LastIndex(url, "/")
	if i < 0 || i == len(url)-1 {
		t.Fatalf("no token in reset URL %q", url)
	}
	return url[i+1:]
}

func TestForgotPasswordStoresHashOnly(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	mailer := &mockMailer{}
	engine := newTestEngine(t, rdb, store, mailer, nil)
	user := seedUser(t, engine, store, activeUser("alice@example.com", "CL-0001"), "secret1")

	if err := engine.ForgotPassword(context.Background(), "alice@example.com", "http://fallback.test"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}

	if len(mailer.resetLinks) != 1 {
		t.Fatalf("expected one reset email, got %d", len(mailer.resetLinks))
	}
	link := mailer.resetLinks[0].url
	if !strings.HasPrefix(link, "https://app.workhive.test/reset-password/") {
		t.Fatalf("expected the configured frontend base, got %q", link)
	}
	plaintext := resetTokenFromLink(t, link)
	if len(plaintext) != 64 {
		t.Fatalf("expected a 64-hex-char token, got %d chars", len(plaintext))
	}

	persisted := store.get(t, user.ID)
	if persisted.Reset == nil {
		t.Fatal("expected a pending reset challenge")
	}
	if persisted.Reset.TokenHash == plaintext {
		t.Fatal("plaintext token must never be persisted")
	}
	if persisted.Reset.TokenHash != internal.HashToken(plaintext) {
		t.Fatal("stored hash does not match the emailed token")
	}
}

func TestForgotPasswordFallsBackToRequestHost(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	mailer := &mockMailer{}

	cfg := testConfig()
	cfg.Reset.FrontendBaseURL = ""
	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(store).
		WithMailer(mailer).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	seedUser(t, engine, store, activeUser("alice@example.com", "CL-0001"), "secret1")

	if err := engine.ForgotPassword(context.Background(), "alice@example.com", "http://api.internal:8080/"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	if !strings.HasPrefix(mailer.resetLinks[0].url, "http://api.internal:8080/reset-password/") {
		t.Fatalf("expected request-host fallback, got %q", mailer.resetLinks[0].url)
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store, &mockMailer{}, nil)

	if err := engine.ForgotPassword(context.Background(), "ghost@example.com", ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := engine.ForgotPassword(context.Background(), "", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestForgotPasswordClearsTokenAndSurfacesSendError(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	mailer := &mockMailer{resetLinkErr: errors.New("relay refused connection")}
	engine := newTestEngine(t, rdb, store, mailer, nil)
	user := seedUser(t, engine, store, activeUser("alice@example.com", "CL-0001"), "secret1")

	err := engine.ForgotPassword(context.Background(), "alice@example.com", "")
	if !errors.Is(err, ErrMailSend) {
		t.Fatalf("expected ErrMailSend, got %v", err)
	}
	// This flow deliberately forwards the underlying send error.
	if !strings.Contains(err.Error(), "relay refused connection") {
		t.Fatalf("expected the send error to be surfaced, got %q", err.Error())
	}
	if store.get(t, user.ID).Reset != nil {
		t.Fatal("reset challenge must be cleared after a failed send")
	}
}

func TestResetPasswordDoublesAsLogin(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	mailer := &mockMailer{}
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, rdb, store, mailer, notifier)
	user := seedUser(t, engine, store, activeUser("alice@example.com", "CL-0001"), "secret1")

	if err := engine.ForgotPassword(context.Background(), "alice@example.com", ""); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	plaintext := resetTokenFromLink(t, mailer.resetLinks[0].url)

	res, err := engine.ResetPassword(context.Background(), plaintext, "fresh-password")
	if err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("expected a full token pair from reset")
	}
	if res.User.ID != user.ID {
		t.Fatalf("unexpected user in result: %+v", res.User)
	}

	stored, err := engine.refreshTokens.Get(context.Background(), user.ID)
	if err != nil || stored != res.RefreshToken {
		t.Fatalf("registry entry missing or mismatched: %v", err)
	}

	persisted := store.get(t, user.ID)
	if persisted.Reset != nil {
		t.Fatal("reset challenge must be cleared after use")
	}
	if _, err := engine.Login(context.Background(), "alice@example.com", "fresh-password"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}

	// Reusing the same reset URL must fail: fields were cleared.
	if _, err := engine.ResetPassword(context.Background(), plaintext, "even-newer-pw"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid on reuse, got %v", err)
	}
}

func TestResetPasswordRejections(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	mailer := &mockMailer{}
	engine := newTestEngine(t, rdb, store, mailer, nil)
	user := seedUser(t, engine, store, activeUser("alice@example.com", "CL-0001"), "secret1")

	if _, err := engine.ResetPassword(context.Background(), "deadbeef", "fresh-password"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid for unknown token, got %v", err)
	}
	if _, err := engine.ResetPassword(context.Background(), "", "fresh-password"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if _, err := engine.ResetPassword(context.Background(), "deadbeef", "tiny"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}

	if err := engine.ForgotPassword(context.Background(), "alice@example.com", ""); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	plaintext := resetTokenFromLink(t, mailer.resetLinks[0].url)

	// Same password as before: rejected, token stays live.
	if _, err := engine.ResetPassword(context.Background(), plaintext, "secret1"); !errors.Is(err, ErrPasswordReuse) {
		t.Fatalf("expected ErrPasswordReuse, got %v", err)
	}
	if store.get(t, user.ID).Reset == nil {
		t.Fatal("a rejected reset must not consume the token")
	}

	// Expired token: the single-predicate lookup misses it.
	persisted := store.get(t, user.ID)
	persisted.Reset.ExpiresAt = time.Now().Add(-time.Second)
	if err := store.Update(context.Background(), persisted); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := engine.ResetPassword(context.Background(), plaintext, "fresh-password"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid for expired token, got %v", err)
	}
}
