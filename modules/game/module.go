package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	domain "github.com/example/trivia-rooms/domain/game"
	"github.com/example/trivia-rooms/events"
	"github.com/example/trivia-rooms/modules/questions"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module owns the room registry and runs games.
type Module struct {
	service   *Service
	questions questions.QuestionsPort
	eventBus  mono.EventBus
	logger    types.Logger
	config    Config
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the game module.
func NewModule(logger types.Logger) *Module {
	config := DefaultConfig()
	config.ScoreboardDelay = envDuration("SCOREBOARD_DELAY", config.ScoreboardDelay)
	config.RoundGrace = envDuration("ROUND_GRACE", config.RoundGrace)
	return &Module{
		logger: logger,
		config: config,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "game"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"questions"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "questions":
		m.questions = questions.NewQuestionsAdapter(container)
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomMessageV1.ToBase(),
		events.GameFinishedV1.ToBase(),
	}
}

// Start creates the room registry and game service.
func (m *Module) Start(_ context.Context) error {
	if m.questions == nil {
		return fmt.Errorf("questions adapter dependency not set")
	}
	if m.eventBus == nil {
		return fmt.Errorf("event bus not set")
	}

	registry, err := domain.NewRegistry()
	if err != nil {
		return fmt.Errorf("failed to create room registry: %w", err)
	}
	m.service = NewService(registry, m.questions, &busNotifier{bus: m.eventBus}, m.logger, m.config)

	m.logger.Info("Game module started",
		"scoreboardDelay", m.config.ScoreboardDelay,
		"roundGrace", m.config.RoundGrace)
	return nil
}

// Stop halts round timers and waits for deck assembly in flight.
func (m *Module) Stop(_ context.Context) error {
	if m.service != nil {
		m.service.Close()
	}
	m.logger.Info("Game module stopped")
	return nil
}

// Health reports the number of active rooms.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "game service not initialized",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"active_rooms": m.service.RoomCount(),
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateRoom, json.Unmarshal, json.Marshal, m.handleCreateRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateRoom, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceJoinByCode, json.Unmarshal, json.Marshal, m.handleJoinByCode,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceJoinByCode, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceJoinRandom, json.Unmarshal, json.Marshal, m.handleJoinRandom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceJoinRandom, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetRoom, json.Unmarshal, json.Marshal, m.handleGetRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetRoom, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.handleListRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	commands := map[string]func(context.Context, RoomCommand) error{
		ServiceAttach: func(ctx context.Context, c RoomCommand) error {
			return m.service.Attach(ctx, c.RoomID, c.Username, c.ConnID)
		},
		ServiceLeaveRoom: func(ctx context.Context, c RoomCommand) error {
			return m.service.Leave(ctx, c.RoomID, c.Username)
		},
		ServiceBanPlayer: func(ctx context.Context, c RoomCommand) error {
			return m.service.Ban(ctx, c.RoomID, c.Username, c.Target)
		},
		ServiceChangeSetting: func(ctx context.Context, c RoomCommand) error {
			return m.service.ChangeSetting(ctx, c.RoomID, c.Username, c.SettingOption, c.OptionValue)
		},
		ServiceReady: func(ctx context.Context, c RoomCommand) error {
			return m.service.Ready(ctx, c.RoomID, c.Username)
		},
		ServiceStartGame: func(ctx context.Context, c RoomCommand) error {
			return m.service.StartGame(ctx, c.RoomID, c.Username)
		},
		ServiceSubmitAnswer: func(ctx context.Context, c RoomCommand) error {
			if c.Answer == nil {
				return domain.ErrInvalidAction
			}
			return m.service.SubmitAnswer(ctx, c.RoomID, c.Username, *c.Answer)
		},
		ServiceSubmitEmote: func(ctx context.Context, c RoomCommand) error {
			return m.service.Emote(ctx, c.RoomID, c.Username, c.EmoteCode)
		},
	}
	for name, run := range commands {
		if err := helper.RegisterTypedRequestReplyService(
			container, name, json.Unmarshal, json.Marshal, commandHandler(run),
		); err != nil {
			return fmt.Errorf("failed to register %s service: %w", name, err)
		}
	}

	log.Printf("[game] Registered %d services", 5+len(commands))
	return nil
}

// commandHandler adapts a room command to a request-reply handler.
func commandHandler(run func(context.Context, RoomCommand) error) func(context.Context, RoomCommand, *mono.Msg) (CommandResponse, error) {
	return func(ctx context.Context, c RoomCommand, _ *mono.Msg) (CommandResponse, error) {
		if err := run(ctx, c); err != nil {
			return CommandResponse{Code: domain.CodeOf(err), Error: errorMessage(err)}, nil
		}
		return CommandResponse{}, nil
	}
}

func (m *Module) handleCreateRoom(ctx context.Context, req JoinRequest, _ *mono.Msg) (RoomInfoResponse, error) {
	info, err := m.service.CreateRoom(ctx, domain.User{Username: req.Username, Rank: req.Rank})
	return roomInfoResponse(info, err), nil
}

func (m *Module) handleJoinByCode(ctx context.Context, req JoinRequest, _ *mono.Msg) (RoomInfoResponse, error) {
	info, err := m.service.JoinByCode(ctx, domain.User{Username: req.Username, Rank: req.Rank}, req.RoomCode)
	return roomInfoResponse(info, err), nil
}

func (m *Module) handleJoinRandom(ctx context.Context, req JoinRequest, _ *mono.Msg) (RoomInfoResponse, error) {
	info, err := m.service.JoinRandom(ctx, domain.User{Username: req.Username, Rank: req.Rank})
	return roomInfoResponse(info, err), nil
}

func (m *Module) handleGetRoom(ctx context.Context, req GetRoomRequest, _ *mono.Msg) (GetRoomResponse, error) {
	room, err := m.service.GetRoom(ctx, req.RoomCode)
	if err != nil {
		return GetRoomResponse{Code: domain.CodeOf(err), Error: errorMessage(err)}, nil
	}
	return GetRoomResponse{Room: room}, nil
}

func (m *Module) handleListRooms(ctx context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Rooms: m.service.ListRooms(ctx)}, nil
}

func roomInfoResponse(info RoomInfo, err error) RoomInfoResponse {
	if err != nil {
		return RoomInfoResponse{Code: domain.CodeOf(err), Error: errorMessage(err)}
	}
	return RoomInfoResponse{RoomInfo: info}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
		log.Printf("[game] Ignoring invalid %s=%q", key, v)
	}
	return fallback
}
