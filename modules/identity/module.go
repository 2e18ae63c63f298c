package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/trivia-rooms/domain/account"
	"github.com/example/trivia-rooms/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module provides accounts, sessions and ranks.
type Module struct {
	db      *gorm.DB
	service *Service
	dbPath  string
	debug   bool
	config  SessionConfig
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
)

// NewModule creates the identity module from environment configuration.
func NewModule() *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "trivia.db"
	}
	debug, _ := strconv.ParseBool(os.Getenv("DB_DEBUG"))
	return &Module{
		dbPath: dbPath,
		debug:  debug,
		config: loadSessionConfig(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "identity"
}

// Start opens the database and builds the service.
func (m *Module) Start(_ context.Context) error {
	logLevel := logger.Silent
	if m.debug {
		logLevel = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&account.Account{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.service = NewService(NewAccountRepository(db), NewSessionManager(m.config))

	log.Printf("[identity] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop closes the database.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[identity] Module stopped")
	return nil
}

// Health pings the database.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceCreateAccount,
		json.Unmarshal,
		json.Marshal,
		m.handleCreateAccount,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateAccount, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceLogin,
		json.Unmarshal,
		json.Marshal,
		m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogin, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceLogout,
		json.Unmarshal,
		json.Marshal,
		m.handleLogout,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogout, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceAuthenticate,
		json.Unmarshal,
		json.Marshal,
		m.handleAuthenticate,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceAuthenticate, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetUser,
		json.Unmarshal,
		json.Marshal,
		m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceUpdateRank,
		json.Unmarshal,
		json.Marshal,
		m.handleUpdateRank,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUpdateRank, err)
	}

	log.Printf("[identity] Registered services: %s, %s, %s, %s, %s, %s",
		ServiceCreateAccount, ServiceLogin, ServiceLogout,
		ServiceAuthenticate, ServiceGetUser, ServiceUpdateRank)
	return nil
}

// RegisterEventConsumers applies rank changes when a game finishes.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.GameFinishedV1, m.handleGameFinished, m,
	); err != nil {
		return fmt.Errorf("failed to register GameFinished consumer: %w", err)
	}
	log.Println("[identity] Registered event consumers: GameFinished")
	return nil
}

func (m *Module) handleGameFinished(ctx context.Context, event events.GameFinishedEvent, _ *mono.Msg) error {
	for _, s := range event.Standings {
		if s.RankDelta == 0 {
			continue
		}
		rank, err := m.service.UpdateRank(ctx, s.Username, s.RankDelta)
		if err != nil {
			// Remaining standings are still applied.
			log.Printf("[identity] Failed to update rank for %s: %v", s.Username, err)
			continue
		}
		log.Printf("[identity] Rank for %s is now %d (%+d, room %s)", s.Username, rank, s.RankDelta, event.RoomCode)
	}
	return nil
}

func (m *Module) handleCreateAccount(ctx context.Context, req CreateAccountRequest, _ *mono.Msg) (CreateAccountResponse, error) {
	a, err := m.service.CreateAccount(ctx, req.Token, req.Username)
	if err != nil {
		return CreateAccountResponse{Code: errorCode(err), Error: err.Error()}, nil
	}
	return CreateAccountResponse{
		Username:  a.Username,
		Rank:      a.Rank,
		CreatedAt: a.CreatedAt,
	}, nil
}

func (m *Module) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	session, err := m.service.Login(ctx, req.Token)
	if err != nil {
		return LoginResponse{Code: errorCode(err), Error: err.Error()}, nil
	}
	return LoginResponse{
		SessionToken: session.Token,
		Username:     session.Username,
		Rank:         session.Rank,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

func (m *Module) handleLogout(ctx context.Context, req SessionRequest, _ *mono.Msg) (LogoutResponse, error) {
	if err := m.service.Logout(ctx, req.SessionToken); err != nil {
		return LogoutResponse{Code: errorCode(err), Error: err.Error()}, nil
	}
	return LogoutResponse{}, nil
}

func (m *Module) handleAuthenticate(ctx context.Context, req SessionRequest, _ *mono.Msg) (AuthenticateResponse, error) {
	a, err := m.service.Authenticate(ctx, req.SessionToken)
	if err != nil {
		return AuthenticateResponse{Code: errorCode(err), Error: err.Error()}, nil
	}
	return AuthenticateResponse{Username: a.Username, Rank: a.Rank}, nil
}

func (m *Module) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	a, err := m.service.GetUser(ctx, req.Username)
	if err != nil {
		return GetUserResponse{Code: errorCode(err), Error: err.Error()}, nil
	}
	return GetUserResponse{Username: a.Username, Rank: a.Rank}, nil
}

func (m *Module) handleUpdateRank(ctx context.Context, req UpdateRankRequest, _ *mono.Msg) (UpdateRankResponse, error) {
	rank, err := m.service.UpdateRank(ctx, req.Username, req.Delta)
	if err != nil {
		return UpdateRankResponse{Code: errorCode(err), Error: err.Error()}, nil
	}
	return UpdateRankResponse{Rank: rank}, nil
}

// loadSessionConfig loads session configuration from environment variables.
func loadSessionConfig() SessionConfig {
	config := DefaultSessionConfig()

	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		config.Secret = secret
	} else {
		log.Println("[identity] SESSION_SECRET not set, using development secret")
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err == nil && ttl > 0 {
			config.TTL = ttl
		} else {
			log.Printf("[identity] Ignoring invalid SESSION_TTL=%q", v)
		}
	}

	return config
}
