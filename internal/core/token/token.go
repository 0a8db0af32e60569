// Package token issues and verifies the signed access/refresh tokens that
// carry a session's identity. Access and refresh tokens are signed with
// distinct secrets so one class can never be redeemed as the other.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMalformed means the token could not be decoded at all.
	ErrMalformed = errors.New("malformed token")
	// ErrExpired means the token was well-formed and signed but is past expiry.
	ErrExpired = errors.New("expired token")
	// ErrInvalid means the signature did not verify for the expected class.
	ErrInvalid = errors.New("invalid token")
)

// Config carries the signing material for both token classes. All fields are
// required; a process with a missing secret must not start.
type Config struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
}

// Identity is the result of a successful verification.
type Identity struct {
	UserID    string
	ExpiresAt time.Time
}

// Manager signs and verifies both token classes.
type Manager struct {
	cfg Config
}

// NewManager validates cfg and returns a ready Manager. Configuration errors
// here are startup-fatal, never per-request.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token: both signing secrets are required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: TTLs must be positive")
	}
	return &Manager{cfg: cfg}, nil
}

// IssueAccess signs a short-lived access token for userID.
func (m *Manager) IssueAccess(userID string) (string, error) {
	return sign(userID, m.cfg.AccessSecret, m.cfg.AccessTTL)
}

// IssueRefresh signs a long-lived refresh token for userID.
func (m *Manager) IssueRefresh(userID string) (string, error) {
	return sign(userID, m.cfg.RefreshSecret, m.cfg.RefreshTTL)
}

// VerifyAccess checks integrity and expiry of an access token. It does not
// consult storage: access tokens are accepted statelessly.
func (m *Manager) VerifyAccess(tok string) (Identity, error) {
	return verify(tok, m.cfg.AccessSecret)
}

// VerifyRefresh checks integrity and expiry of a refresh token. Whether the
// token is still the one on file is the caller's responsibility.
func (m *Manager) VerifyRefresh(tok string) (Identity, error) {
	return verify(tok, m.cfg.RefreshSecret)
}

func sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		// Unique jti: issue timestamps have second precision, and two tokens
		// minted for the same user within that window must still differ or
		// rotation could replace a token with an identical value.
		ID:        uuid.NewString(),
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func verify(tok string, secret []byte) (Identity, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Identity{}, ErrMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, ErrExpired
	case err != nil, !parsed.Valid:
		return Identity{}, ErrInvalid
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return Identity{}, ErrInvalid
	}
	return Identity{UserID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
