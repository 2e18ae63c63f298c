package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/trivia-rooms/domain/account"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// IdentityPort defines account and session operations for other modules.
type IdentityPort interface {
	CreateAccount(ctx context.Context, token, username string) (*account.Profile, error)
	Login(ctx context.Context, token string) (*account.Session, error)
	Logout(ctx context.Context, sessionToken string) error
	Authenticate(ctx context.Context, sessionToken string) (*account.Profile, error)
	GetUser(ctx context.Context, username string) (*account.Profile, error)
	UpdateRank(ctx context.Context, username string, delta int) (int, error)
}

// IdentityAdapter implements IdentityPort using the service container.
type IdentityAdapter struct {
	container mono.ServiceContainer
}

// NewIdentityAdapter creates a new IdentityAdapter.
func NewIdentityAdapter(container mono.ServiceContainer) IdentityPort {
	if container == nil {
		panic("identity: ServiceContainer is nil")
	}
	return &IdentityAdapter{container: container}
}

// CreateAccount registers a new account.
func (a *IdentityAdapter) CreateAccount(ctx context.Context, token, username string) (*account.Profile, error) {
	req := CreateAccountRequest{Token: token, Username: username}
	var resp CreateAccountResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCreateAccount,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceCreateAccount, err)
	}
	if resp.Code != "" {
		return nil, errorFromCode(resp.Code, resp.Error)
	}
	return &account.Profile{Username: resp.Username, Rank: resp.Rank}, nil
}

// Login starts a session.
func (a *IdentityAdapter) Login(ctx context.Context, token string) (*account.Session, error) {
	req := LoginRequest{Token: token}
	var resp LoginResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceLogin,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceLogin, err)
	}
	if resp.Code != "" {
		return nil, errorFromCode(resp.Code, resp.Error)
	}
	return &account.Session{
		Token:     resp.SessionToken,
		Username:  resp.Username,
		Rank:      resp.Rank,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// Logout revokes a session.
func (a *IdentityAdapter) Logout(ctx context.Context, sessionToken string) error {
	req := SessionRequest{SessionToken: sessionToken}
	var resp LogoutResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceLogout,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", ServiceLogout, err)
	}
	if resp.Code != "" {
		return errorFromCode(resp.Code, resp.Error)
	}
	return nil
}

// Authenticate resolves a session token to a profile.
func (a *IdentityAdapter) Authenticate(ctx context.Context, sessionToken string) (*account.Profile, error) {
	req := SessionRequest{SessionToken: sessionToken}
	var resp AuthenticateResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceAuthenticate,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceAuthenticate, err)
	}
	if resp.Code != "" {
		return nil, errorFromCode(resp.Code, resp.Error)
	}
	return &account.Profile{Username: resp.Username, Rank: resp.Rank}, nil
}

// GetUser retrieves a profile by username.
func (a *IdentityAdapter) GetUser(ctx context.Context, username string) (*account.Profile, error) {
	req := GetUserRequest{Username: username}
	var resp GetUserResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetUser,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceGetUser, err)
	}
	if resp.Code != "" {
		return nil, errorFromCode(resp.Code, resp.Error)
	}
	return &account.Profile{Username: resp.Username, Rank: resp.Rank}, nil
}

// UpdateRank adjusts a user's rank and returns the new value.
func (a *IdentityAdapter) UpdateRank(ctx context.Context, username string, delta int) (int, error) {
	req := UpdateRankRequest{Username: username, Delta: delta}
	var resp UpdateRankResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceUpdateRank,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return 0, fmt.Errorf("%s request failed: %w", ServiceUpdateRank, err)
	}
	if resp.Code != "" {
		return 0, errorFromCode(resp.Code, resp.Error)
	}
	return resp.Rank, nil
}
