package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/example/trivia-rooms/domain/game"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/redis/go-redis/v9"
)

// Module serves question decks and category lists.
type Module struct {
	client    *Client
	cache     *CachedSource
	redis     *redis.Client
	source    *Source
	redisAddr string
	cacheTTL  time.Duration
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the questions module from environment configuration.
func NewModule() *Module {
	cfg := DefaultClientConfig()
	if base := os.Getenv("OPENTDB_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	cfg.Timeout = envDuration("OPENTDB_TIMEOUT", cfg.Timeout)
	cfg.RequestDelay = envDuration("OPENTDB_REQUEST_DELAY", cfg.RequestDelay)

	client := NewClient(cfg)
	return &Module{
		client:    client,
		source:    NewSource(client),
		redisAddr: os.Getenv("REDIS_ADDR"),
		cacheTTL:  envDuration("CONTENT_CACHE_TTL", time.Hour),
	}
}

// NewModuleWithSource creates a module over an existing content source.
func NewModuleWithSource(content ContentSource) *Module {
	return &Module{source: NewSource(content)}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "questions"
}

// Start connects the optional Redis cache.
func (m *Module) Start(ctx context.Context) error {
	if m.redisAddr == "" || m.client == nil {
		log.Println("[questions] Module started (cache disabled)")
		return nil
	}

	m.redis = redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := m.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m.cache = NewCachedSource(m.client, m.redis, "trivia:", m.cacheTTL)
	m.source = NewSource(m.cache)
	log.Printf("[questions] Module started (cache: %s, TTL: %s)", m.redisAddr, m.cacheTTL)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.redis != nil {
		if err := m.redis.Close(); err != nil {
			return fmt.Errorf("failed to close Redis connection: %w", err)
		}
	}
	log.Println("[questions] Module stopped")
	return nil
}

// Health reports cache connectivity.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.cache == nil {
		return mono.HealthStatus{
			Healthy: true,
			Message: "operational (cache disabled)",
		}
	}
	if err := m.cache.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"cache": m.cache.Stats(),
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceListCategories,
		json.Unmarshal,
		json.Marshal,
		m.handleListCategories,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListCategories, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceAssembleDeck,
		json.Unmarshal,
		json.Marshal,
		m.handleAssembleDeck,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceAssembleDeck, err)
	}

	log.Printf("[questions] Registered services: %s, %s", ServiceListCategories, ServiceAssembleDeck)
	return nil
}

func (m *Module) handleListCategories(ctx context.Context, _ ListCategoriesRequest, _ *mono.Msg) (ListCategoriesResponse, error) {
	names, err := m.source.Categories(ctx)
	if err != nil {
		log.Printf("[questions] Failed to list categories: %v", err)
		return ListCategoriesResponse{
			Code:  game.ErrContentUnavailable.Code,
			Error: game.ErrContentUnavailable.Message,
		}, nil
	}
	return ListCategoriesResponse{Categories: names}, nil
}

func (m *Module) handleAssembleDeck(ctx context.Context, req AssembleDeckRequest, _ *mono.Msg) (AssembleDeckResponse, error) {
	deck, err := m.source.AssembleDeck(ctx, req)
	if err != nil {
		return AssembleDeckResponse{
			Code:  game.CodeOf(err),
			Error: err.Error(),
		}, nil
	}
	return AssembleDeckResponse{Questions: deck}, nil
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[questions] Ignoring invalid %s=%q", key, v)
	}
	return fallback
}
