package token

import (
	"bytes"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects which of the two signing secrets applies to a token.
type Kind int

const (
	// KindAccess identifies short-lived API credentials.
	KindAccess Kind = iota
	// KindRefresh identifies the longer-lived credentials accepted only by
	// the refresh flow.
	KindRefresh
)

// ErrTokenInvalid is returned for any token that fails signature, expiry,
// or claim validation. Callers get no finer distinction: an expired token
// and a tampered one look identical.
var ErrTokenInvalid = errors.New("invalid token")

// Config holds issuance policy for both token kinds. Access and refresh
// tokens are signed with distinct secrets so compromise of one does not
// compromise the other.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
}

// Manager mints and parses HS256-signed tokens carrying the user id as the
// sole subject claim. Instances are immutable and safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token TTLs must be > 0")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, errors.New("refresh TTL must exceed access TTL")
	}
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("both signing secrets are required")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	return &Manager{config: cfg}, nil
}

// IssueAccess mints a short-lived access token for userID.
func (m *Manager) IssueAccess(userID string) (string, error) {
	return m.issue(userID, KindAccess)
}

// IssueRefresh mints a refresh token for userID. A valid signature alone
// never suffices at the refresh endpoint; the engine additionally checks
// the token against the server-side registry.
func (m *Manager) IssueRefresh(userID string) (string, error) {
	return m.issue(userID, KindRefresh)
}

func (m *Manager) issue(userID string, kind Kind) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}

	ttl, secret := m.params(kind)
	now := time.Now()
	claims := jwt.RegisteredClaims{
		// The jti makes every issued token distinct even when two logins
		// land inside the same second; the registry displaces sessions by
		// exact string match and would otherwise see identical tokens.
		ID:        uuid.NewString(),
		Subject:   userID,
		Issuer:    m.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseAccess verifies an access token and returns the user id it was
// issued for.
func (m *Manager) ParseAccess(tokenStr string) (string, error) {
	return m.parse(tokenStr, KindAccess)
}

// ParseRefresh verifies a refresh token against the refresh secret and
// returns the user id it was issued for.
func (m *Manager) ParseRefresh(tokenStr string) (string, error) {
	return m.parse(tokenStr, KindRefresh)
}

func (m *Manager) parse(tokenStr string, kind Kind) (string, error) {
	_, secret := m.params(kind)

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	claims := &jwt.RegisteredClaims{}
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !tok.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}

func (m *Manager) params(kind Kind) (time.Duration, []byte) {
	if kind == KindRefresh {
		return m.config.RefreshTTL, m.config.RefreshSecret
	}
	return m.config.AccessTTL, m.config.AccessSecret
}
