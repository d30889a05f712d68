package authcore

import (
	"bytes"
	"errors"
	"time"
)

// Config is the engine's composed configuration. Zero values are not
// usable; start from DefaultConfig and override.
type Config struct {
	Token        TokenConfig
	OTP          OTPConfig
	Reset        ResetConfig
	TempPassword TempPasswordConfig
	Registry     RegistryConfig
	Cookie       CookieConfig
	Mail         MailConfig
	Password     PasswordConfig
	Notify       NotifyConfig
	Metrics      MetricsConfig
}

// TokenConfig holds issuance policy for access and refresh tokens. The two
// secrets must differ; the refresh TTL also bounds the registry entry.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
}

// OTPConfig controls email one-time codes.
type OTPConfig struct {
	Digits int
	TTL    time.Duration
}

// ResetConfig controls the forgot/reset-password flow. FrontendBaseURL is
// the base of the emailed reset link; when empty the request's own host is
// used as fallback.
type ResetConfig struct {
	TTL             time.Duration
	FrontendBaseURL string
}

// TempPasswordConfig controls temporary passwords for administrator
// provisioning. At least one character class must stay enabled.
type TempPasswordConfig struct {
	Length    int
	UseUpper  bool
	UseLower  bool
	UseDigits bool
}

// RegistryConfig holds the Redis key prefix for refresh-token entries.
type RegistryConfig struct {
	Prefix string
}

// CookieConfig controls the refresh-token cookie set by the transport
// layer. Set and clear must use identical attributes or browsers silently
// fail to clear the cookie.
type CookieConfig struct {
	Name       string
	Path       string
	Production bool
}

// MailConfig bounds outbound email dispatch so a slow mail server cannot
// hang an auth request.
type MailConfig struct {
	SendTimeout time.Duration
}

// PasswordConfig holds Argon2id parameters plus the engine-level minimum
// plaintext length.
type PasswordConfig struct {
	Memory      uint32 // KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int
}

// NotifyConfig sizes the best-effort notification dispatcher.
type NotifyConfig struct {
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process flow counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the production defaults: 15m/7d token TTLs,
// 6-digit 10-minute OTPs, 10-minute reset tokens, and 12-character
// temporary passwords from all three character classes.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		OTP: OTPConfig{
			Digits: 6,
			TTL:    10 * time.Minute,
		},
		Reset: ResetConfig{
			TTL: 10 * time.Minute,
		},
		TempPassword: TempPasswordConfig{
			Length:    12,
			UseUpper:  true,
			UseLower:  true,
			UseDigits: true,
		},
		Registry: RegistryConfig{
			Prefix: "rt",
		},
		Cookie: CookieConfig{
			Name: "refreshToken",
			Path: "/",
		},
		Mail: MailConfig{
			SendTimeout: 10 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   6,
		},
		Notify: NotifyConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.AccessSecret = cloneBytes(cfg.Token.AccessSecret)
	out.Token.RefreshSecret = cloneBytes(cfg.Token.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate rejects inconsistent configuration before any flow can observe
// it.
func (c *Config) Validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("Token RefreshTTL must exceed AccessTTL")
	}
	if len(c.Token.AccessSecret) == 0 || len(c.Token.RefreshSecret) == 0 {
		return errors.New("Token secrets are required")
	}
	if bytes.Equal(c.Token.AccessSecret, c.Token.RefreshSecret) {
		return errors.New("Token access and refresh secrets must differ")
	}

	if c.OTP.Digits < 6 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 6 and 10")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}

	if c.Reset.TTL <= 0 {
		return errors.New("Reset TTL must be > 0")
	}

	if c.TempPassword.Length < 8 {
		return errors.New("TempPassword Length must be >= 8")
	}
	if !c.TempPassword.UseUpper && !c.TempPassword.UseLower && !c.TempPassword.UseDigits {
		return errors.New("TempPassword requires at least one character class")
	}

	if c.Cookie.Name == "" {
		return errors.New("Cookie Name is required")
	}
	if c.Cookie.Path == "" {
		return errors.New("Cookie Path is required")
	}

	if c.Mail.SendTimeout <= 0 {
		return errors.New("Mail SendTimeout must be > 0")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 6 {
		return errors.New("Password MinLength must be >= 6")
	}

	if c.Notify.BufferSize <= 0 {
		return errors.New("Notify BufferSize must be > 0")
	}

	return nil
}
