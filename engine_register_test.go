package authcore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRegisterCreatesPendingVerificationAccount(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	mailer := &mockMailer{}
	engine := newTestEngine(t, rdb, store, mailer, nil)

	res, err := engine.Register(context.Background(), RegisterInput{
		Email:    "A@B.com",
		Password: "secret1",
		Phone:    "123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if res.Email != "a@b.com" || !res.RequiresVerification {
		t.Fatalf("unexpected result: %+v", res)
	}

	sent := mailer.lastVerificationOTP(t)
	if sent.email != "a@b.com" {
		t.Fatalf("OTP emailed to %s", sent.email)
	}
	if len(sent.code) != 6 {
		t.Fatalf("expected a 6-digit code, got %q", sent.code)
	}

	user, err := store.FindByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if user.Status != AccountInactive || user.EmailVerified {
		t.Fatalf("expected inactive unverified account, got status=%s verified=%v", user.Status, user.EmailVerified)
	}
	if user.Role != RoleClient {
		t.Fatalf("expected client role, got %s", user.Role)
	}
	if user.DisplayID != "CL-0001" {
		t.Fatalf("expected display ID CL-0001, got %s", user.DisplayID)
	}
	if user.OTP == nil || user.OTP.Code != sent.code {
		t.Fatal("persisted challenge does not match the emailed code")
	}

	// No tokens before verification: login is refused.
	if _, err := engine.Login(context.Background(), "a@b.com", "secret1"); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified before verification, got %v", err)
	}
}

func TestRegisterRejectsDuplicateAndMissingInput(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store, &mockMailer{}, nil)

	if _, err := engine.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Case variants of a registered email collide.
	if _, err := engine.Register(context.Background(), RegisterInput{Email: "A@B.COM", Password: "other12"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if _, err := engine.Register(context.Background(), RegisterInput{Email: "", Password: "secret1"}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if _, err := engine.Register(context.Background(), RegisterInput{Email: "c@d.com", Password: ""}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if _, err := engine.Register(context.Background(), RegisterInput{Email: "c@d.com", Password: "short"}); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestRegisterSurfacesStoreOutage(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store, &mockMailer{}, nil)

	outage := errors.New("store unreachable")
	store.findEmailErr = outage

	// A failed duplicate-email lookup is an outage, not an available
	// address; the flow must stop before creating anything.
	_, err := engine.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "secret1"})
	if !errors.Is(err, outage) {
		t.Fatalf("expected the store error surfaced, got %v", err)
	}
	if store.createCalls != 0 {
		t.Fatalf("expected no create attempt during outage, got %d", store.createCalls)
	}
}

func TestRegisterRollsBackWhenEmailFails(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	mailer := &mockMailer{verificationErr: errors.New("smtp down")}
	engine := newTestEngine(t, rdb, store, mailer, nil)

	_, err := engine.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "secret1"})
	if !errors.Is(err, ErrMailSend) {
		t.Fatalf("expected ErrMailSend, got %v", err)
	}

	// The store must look exactly as before the attempt.
	if _, err := store.FindByEmail(context.Background(), "a@b.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatal("expected the rolled-back account to be gone")
	}
	if store.deleteCalls != 1 {
		t.Fatalf("expected one rollback delete, got %d", store.deleteCalls)
	}

	// The address is reusable afterwards.
	mailer.verificationErr = nil
	if _, err := engine.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("re-register after rollback failed: %v", err)
	}
}

func TestVerifyOTPActivatesAndIssuesTokens(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	mailer := &mockMailer{}
	notifier := &recordingNotifier{}
	engine := newTestEngine(t, rdb, store, mailer, notifier)

	if _, err := engine.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	code := mailer.lastVerificationOTP(t).code

	res, err := engine.VerifyOTP(context.Background(), "a@b.com", code)
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("expected tokens after verification")
	}

	user, _ := store.FindByEmail(context.Background(), "a@b.com")
	if user.Status != AccountActive || !user.EmailVerified {
		t.Fatalf("expected active verified account, got status=%s verified=%v", user.Status, user.EmailVerified)
	}
	if user.OTP != nil {
		t.Fatal("challenge must be cleared after use")
	}

	stored, err := engine.refreshTokens.Get(context.Background(), user.ID)
	if err != nil || stored != res.RefreshToken {
		t.Fatalf("registry entry missing or mismatched: %v", err)
	}

	// Single-use: the challenge is cleared, so a replay sees no OTP.
	if _, err := engine.VerifyOTP(context.Background(), "a@b.com", code); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected ErrOTPNotFound on replay, got %v", err)
	}

	engine.Close()
	events := notifier.recorded()
	if len(events) != 1 || events[0].Kind != NotificationAccountActivated {
		t.Fatalf("expected one account-activated notification, got %+v", events)
	}
}

func TestVerifyOTPRejections(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	mailer := &mockMailer{}
	engine := newTestEngine(t, rdb, store, mailer, nil)

	if _, err := engine.VerifyOTP(context.Background(), "ghost@b.com", "123456"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := engine.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	code := mailer.lastVerificationOTP(t).code

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, err := engine.VerifyOTP(context.Background(), "a@b.com", wrong); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid, got %v", err)
	}

	// A record with no pending challenge at all.
	user, _ := store.FindByEmail(context.Background(), "a@b.com")
	user.OTP = nil
	if err := store.Update(context.Background(), user); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := engine.VerifyOTP(context.Background(), "a@b.com", code); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected ErrOTPNotFound, got %v", err)
	}
}

func TestVerifyOTPExpiryBoundary(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	mailer := &mockMailer{}
	engine := newTestEngine(t, rdb, store, mailer, nil)

	if _, err := engine.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	code := mailer.lastVerificationOTP(t).code
	user, _ := store.FindByEmail(context.Background(), "a@b.com")

	// Just inside the window: still accepted.
	user.OTP = &OTPChallenge{Code: code, ExpiresAt: time.Now().Add(50 * time.Millisecond)}
	if err := store.Update(context.Background(), user); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := engine.VerifyOTP(context.Background(), "a@b.com", code); err != nil {
		t.Fatalf("expected code inside the window to verify, got %v", err)
	}

	// Past expiry: rejected as expired, not invalid.
	seedUser(t, engine, store, UserRecord{
		Email:  "b@b.com",
		Role:   RoleClient,
		Status: AccountInactive,
		OTP:    &OTPChallenge{Code: "654321", ExpiresAt: time.Now().Add(-time.Millisecond)},
	}, "secret1")
	if _, err := engine.VerifyOTP(context.Background(), "b@b.com", "654321"); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
}

func TestResendOTPReplacesCode(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	mailer := &mockMailer{}
	engine := newTestEngine(t, rdb, store, mailer, nil)

	if _, err := engine.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	first := mailer.lastVerificationOTP(t).code

	if err := engine.ResendOTP(context.Background(), "a@b.com"); err != nil {
		t.Fatalf("ResendOTP failed: %v", err)
	}
	second := mailer.lastVerificationOTP(t).code

	user, _ := store.FindByEmail(context.Background(), "a@b.com")
	if user.OTP == nil || user.OTP.Code != second {
		t.Fatal("store must hold the re-issued code")
	}
	if first == second {
		// Astronomically unlikely for two random codes; treat as a bug.
		t.Fatal("re-issued code equals the original")
	}
	if _, err := engine.VerifyOTP(context.Background(), "a@b.com", first); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected the displaced code to be rejected, got %v", err)
	}
	if _, err := engine.VerifyOTP(context.Background(), "a@b.com", second); err != nil {
		t.Fatalf("re-issued code failed to verify: %v", err)
	}
}

func TestResendOTPRestoresPriorChallengeWhenEmailFails(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	mailer := &mockMailer{}
	engine := newTestEngine(t, rdb, store, mailer, nil)

	if _, err := engine.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	original := mailer.lastVerificationOTP(t).code

	mailer.verificationErr = errors.New("smtp down")
	if err := engine.ResendOTP(context.Background(), "a@b.com"); !errors.Is(err, ErrMailSend) {
		t.Fatalf("expected ErrMailSend, got %v", err)
	}

	user, _ := store.FindByEmail(context.Background(), "a@b.com")
	if user.OTP == nil || user.OTP.Code != original {
		t.Fatal("prior challenge must be restored after a failed resend")
	}
	mailer.verificationErr = nil
	if _, err := engine.VerifyOTP(context.Background(), "a@b.com", original); err != nil {
		t.Fatalf("original code failed to verify after restore: %v", err)
	}
}

func TestResendOTPAlreadyVerified(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store, &mockMailer{}, nil)
	seedUser(t, engine, store, activeUser("done@b.com", "CL-0009"), "secret1")

	if err := engine.ResendOTP(context.Background(), "done@b.com"); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
	if err := engine.ResendOTP(context.Background(), "ghost@b.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRegisterScenarioEndToEnd(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockUserStore()
	mailer := &mockMailer{}
	engine := newTestEngine(t, rdb, store, mailer, nil)

	res, err := engine.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "secret1", Phone: "123"})
	if err != nil || !res.RequiresVerification {
		t.Fatalf("Register: res=%+v err=%v", res, err)
	}

	if _, err := engine.Login(context.Background(), "a@b.com", "secret1"); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("login before verification: %v", err)
	}

	code := mailer.lastVerificationOTP(t).code
	if !strings.ContainsAny(code, "0123456789") || len(code) != 6 {
		t.Fatalf("unexpected code %q", code)
	}

	auth, err := engine.VerifyOTP(context.Background(), "a@b.com", code)
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if auth.User.Status != "active" || !auth.User.EmailVerified {
		t.Fatalf("user view after verify: %+v", auth.User)
	}

	if _, err := engine.Login(context.Background(), "a@b.com", "secret1"); err != nil {
		t.Fatalf("login after verification: %v", err)
	}
}
