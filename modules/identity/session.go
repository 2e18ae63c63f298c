package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidSession is returned for malformed, forged or revoked tokens.
	ErrInvalidSession = errors.New("invalid session token")
	// ErrSessionExpired is returned when the token has expired.
	ErrSessionExpired = errors.New("session has expired")
)

// SessionConfig holds session token configuration.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// DefaultSessionConfig returns the default session configuration.
// The secret must be overridden outside development.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Secret: "trivia-rooms-dev-secret",
		TTL:    24 * time.Hour,
		Issuer: "trivia-rooms",
	}
}

// SessionClaims are the claims carried by a session token. The JWT ID
// must match the account's stored session for the token to be live.
type SessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies session tokens.
type SessionManager struct {
	config SessionConfig
	now    func() time.Time
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(config SessionConfig) *SessionManager {
	return &SessionManager{config: config, now: time.Now}
}

// Issue creates a signed token for username. It returns the token, its
// session id and expiry.
func (m *SessionManager) Issue(username string) (string, string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.config.TTL)
	sessionID := uuid.New().String()

	claims := SessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    m.config.Issuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, sessionID, expiresAt, nil
}

// Verify checks the token's signature and expiry and returns its claims.
func (m *SessionManager) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return []byte(m.config.Secret), nil
	}, jwt.WithIssuer(m.config.Issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.ID == "" || claims.Username == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
