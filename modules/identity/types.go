package identity

import (
	"errors"
	"time"
)

// Service names.
const (
	ServiceCreateAccount = "create-account"
	ServiceLogin         = "login"
	ServiceLogout        = "logout"
	ServiceAuthenticate  = "authenticate"
	ServiceGetUser       = "get-user"
	ServiceUpdateRank    = "update-rank"
)

// CreateAccountRequest registers a username under a provider token.
type CreateAccountRequest struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// CreateAccountResponse represents a created account.
type CreateAccountResponse struct {
	Username  string    `json:"username"`
	Rank      int       `json:"rank"`
	CreatedAt time.Time `json:"created_at"`
	Code      string    `json:"code,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// LoginRequest starts a session for a provider token.
type LoginRequest struct {
	Token string `json:"token"`
}

// LoginResponse carries an issued session token.
type LoginResponse struct {
	SessionToken string    `json:"session_token"`
	Username     string    `json:"username"`
	Rank         int       `json:"rank"`
	ExpiresAt    time.Time `json:"expires_at"`
	Code         string    `json:"code,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// SessionRequest references a session token.
type SessionRequest struct {
	SessionToken string `json:"session_token"`
}

// AuthenticateResponse carries the account behind a live session.
type AuthenticateResponse struct {
	Username string `json:"username,omitempty"`
	Rank     int    `json:"rank"`
	Code     string `json:"code,omitempty"`
	Error    string `json:"error,omitempty"`
}

// LogoutResponse acknowledges a revoked session.
type LogoutResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// GetUserRequest looks up a user by username.
type GetUserRequest struct {
	Username string `json:"username"`
}

// GetUserResponse represents a user profile.
type GetUserResponse struct {
	Username string `json:"username,omitempty"`
	Rank     int    `json:"rank"`
	Code     string `json:"code,omitempty"`
	Error    string `json:"error,omitempty"`
}

// UpdateRankRequest adjusts a user's rank.
type UpdateRankRequest struct {
	Username string `json:"username"`
	Delta    int    `json:"delta"`
}

// UpdateRankResponse carries the new rank.
type UpdateRankResponse struct {
	Rank  int    `json:"rank"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// Reply error codes.
const (
	codeInvalidAccount  = "invalid_account"
	codeAccountNotFound = "account_not_found"
	codeAccountExists   = "account_exists"
	codeInvalidSession  = "invalid_session"
	codeSessionExpired  = "session_expired"
	codeInternal        = "internal"
)

var replyErrors = map[string]error{
	codeInvalidAccount:  ErrInvalidAccount,
	codeAccountNotFound: ErrAccountNotFound,
	codeAccountExists:   ErrAccountExists,
	codeInvalidSession:  ErrInvalidSession,
	codeSessionExpired:  ErrSessionExpired,
}

// errorCode maps a service error to its reply code.
func errorCode(err error) string {
	for code, target := range replyErrors {
		if errors.Is(err, target) {
			return code
		}
	}
	return codeInternal
}

// errorFromCode rebuilds a service error from a reply.
func errorFromCode(code, message string) error {
	if err, ok := replyErrors[code]; ok {
		return err
	}
	return errors.New(message)
}
