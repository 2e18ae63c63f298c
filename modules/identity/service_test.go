package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewAccountRepository(setupTestDB(t)), NewSessionManager(testSessionConfig()))
}

func TestService_CreateAccount(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	a, err := svc.CreateAccount(ctx, "tok-1", "  alice ")
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if a.Username != "alice" || a.Rank != 0 {
		t.Errorf("CreateAccount() = %+v, want alice with rank 0", a)
	}

	tests := []struct {
		name     string
		token    string
		username string
		wantErr  error
	}{
		{name: "missing token", token: "", username: "bob", wantErr: ErrInvalidAccount},
		{name: "missing username", token: "tok-2", username: "   ", wantErr: ErrInvalidAccount},
		{name: "username too long", token: "tok-2", username: strings.Repeat("x", maxUsernameLength+1), wantErr: ErrInvalidAccount},
		{name: "token taken", token: "tok-1", username: "bob", wantErr: ErrAccountExists},
		{name: "username taken", token: "tok-2", username: "alice", wantErr: ErrAccountExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAccount(ctx, tt.token, tt.username)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateAccount() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_LoginAuthenticateLogout(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateAccount(ctx, "tok-1", "alice"); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	session, err := svc.Login(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.Username != "alice" || session.Token == "" {
		t.Fatalf("Login() = %+v", session)
	}

	a, err := svc.Authenticate(ctx, session.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if a.Username != "alice" {
		t.Errorf("Authenticate().Username = %q, want alice", a.Username)
	}

	if err := svc.Logout(ctx, session.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.Authenticate(ctx, session.Token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Authenticate() after logout error = %v, want ErrInvalidSession", err)
	}
}

func TestService_LoginReplacesSession(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateAccount(ctx, "tok-1", "alice"); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	first, err := svc.Login(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	second, err := svc.Login(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if _, err := svc.Authenticate(ctx, first.Token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Authenticate(first) error = %v, want ErrInvalidSession", err)
	}
	if _, err := svc.Authenticate(ctx, second.Token); err != nil {
		t.Errorf("Authenticate(second) error = %v", err)
	}
}

func TestService_LoginUnknownToken(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.Login(context.Background(), "nobody"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Login() error = %v, want ErrAccountNotFound", err)
	}
	if _, err := svc.Login(context.Background(), ""); !errors.Is(err, ErrInvalidAccount) {
		t.Errorf("Login(\"\") error = %v, want ErrInvalidAccount", err)
	}
}

func TestService_UpdateRank(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateAccount(ctx, "tok-1", "alice"); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	if rank, err := svc.UpdateRank(ctx, "alice", 3); err != nil || rank != 3 {
		t.Errorf("UpdateRank(+3) = %d, %v, want 3", rank, err)
	}
	if rank, err := svc.UpdateRank(ctx, "alice", -5); err != nil || rank != 0 {
		t.Errorf("UpdateRank(-5) = %d, %v, want 0", rank, err)
	}

	a, err := svc.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if a.Rank != 0 {
		t.Errorf("GetUser().Rank = %d, want 0", a.Rank)
	}
}

func TestErrorCodeRoundTrip(t *testing.T) {
	for _, err := range []error{ErrInvalidAccount, ErrAccountNotFound, ErrAccountExists, ErrInvalidSession, ErrSessionExpired} {
		code := errorCode(err)
		if got := errorFromCode(code, err.Error()); !errors.Is(got, err) {
			t.Errorf("errorFromCode(%q) = %v, want %v", code, got, err)
		}
	}
	if code := errorCode(errors.New("boom")); code != codeInternal {
		t.Errorf("errorCode(foreign) = %q, want %q", code, codeInternal)
	}
}
