package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/trivia-rooms/domain/account"
	"github.com/google/uuid"
)

const maxUsernameLength = 32

var (
	// ErrInvalidAccount is returned when a token or username is missing or malformed.
	ErrInvalidAccount = errors.New("invalid parameters were passed in")
)

// Service handles account and session business logic.
type Service struct {
	repo     *AccountRepository
	sessions *SessionManager
}

// NewService creates a new Service.
func NewService(repo *AccountRepository, sessions *SessionManager) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
	}
}

// CreateAccount registers a user under an external provider token.
func (s *Service) CreateAccount(ctx context.Context, token, username string) (*account.Account, error) {
	username = strings.TrimSpace(username)
	if token == "" || username == "" || utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, ErrInvalidAccount
	}

	exists, err := s.repo.Exists(ctx, token, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check account existence: %w", err)
	}
	if exists {
		return nil, ErrAccountExists
	}

	now := time.Now()
	a := &account.Account{
		ID:        uuid.New().String(),
		Token:     token,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Login starts a new session for the account behind token, replacing
// any previous one.
func (s *Service) Login(ctx context.Context, token string) (*account.Session, error) {
	if token == "" {
		return nil, ErrInvalidAccount
	}
	a, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	signed, sessionID, expiresAt, err := s.sessions.Issue(a.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	if err := s.repo.SetSession(ctx, a.Username, sessionID); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &account.Session{
		Token:     signed,
		Username:  a.Username,
		Rank:      a.Rank,
		ExpiresAt: expiresAt,
	}, nil
}

// Authenticate resolves a live session token to its account.
func (s *Service) Authenticate(ctx context.Context, sessionToken string) (*account.Account, error) {
	claims, err := s.sessions.Verify(sessionToken)
	if err != nil {
		return nil, err
	}
	a, err := s.repo.FindByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	if a.SessionID != claims.ID {
		return nil, ErrInvalidSession
	}
	return a, nil
}

// Logout revokes the session behind sessionToken.
func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	a, err := s.Authenticate(ctx, sessionToken)
	if err != nil {
		return err
	}
	return s.repo.SetSession(ctx, a.Username, "")
}

// GetUser returns an account by username.
func (s *Service) GetUser(ctx context.Context, username string) (*account.Account, error) {
	return s.repo.FindByUsername(ctx, username)
}

// UpdateRank adds delta to the user's rank, clamped at zero.
func (s *Service) UpdateRank(ctx context.Context, username string, delta int) (int, error) {
	return s.repo.AdjustRank(ctx, username, delta)
}
