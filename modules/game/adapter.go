package game

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/trivia-rooms/domain/game"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// GamePort defines room operations for the transport modules.
type GamePort interface {
	CreateRoom(ctx context.Context, user domain.User) (RoomInfo, error)
	JoinByCode(ctx context.Context, user domain.User, code string) (RoomInfo, error)
	JoinRandom(ctx context.Context, user domain.User) (RoomInfo, error)
	GetRoom(ctx context.Context, code string) (RoomSnapshot, error)
	ListRooms(ctx context.Context) ([]RoomSummary, error)

	Attach(ctx context.Context, roomID, username, connID string) error
	Leave(ctx context.Context, roomID, username string) error
	Ban(ctx context.Context, roomID, gameMaster, target string) error
	ChangeSetting(ctx context.Context, roomID, username, option string, value any) error
	Ready(ctx context.Context, roomID, username string) error
	StartGame(ctx context.Context, roomID, username string) error
	SubmitAnswer(ctx context.Context, roomID, username string, answer Answer) error
	Emote(ctx context.Context, roomID, username string, emoteCode int) error
}

// GameAdapter implements GamePort using the service container.
type GameAdapter struct {
	container mono.ServiceContainer
}

// NewGameAdapter creates a new GameAdapter.
func NewGameAdapter(container mono.ServiceContainer) GamePort {
	if container == nil {
		panic("game: ServiceContainer is nil")
	}
	return &GameAdapter{container: container}
}

// mapServiceError rebuilds the error carried by a reply.
func mapServiceError(code, message string) error {
	if code == "" {
		return nil
	}
	return domain.ErrorFromCode(code, message)
}

func (a *GameAdapter) join(ctx context.Context, service string, req JoinRequest) (RoomInfo, error) {
	var resp RoomInfoResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return RoomInfo{}, fmt.Errorf("%s request failed: %w", service, err)
	}
	if err := mapServiceError(resp.Code, resp.Error); err != nil {
		return RoomInfo{}, err
	}
	return resp.RoomInfo, nil
}

func (a *GameAdapter) command(ctx context.Context, service string, req RoomCommand) error {
	var resp CommandResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return mapServiceError(resp.Code, resp.Error)
}

// CreateRoom opens a room with user as Game Master.
func (a *GameAdapter) CreateRoom(ctx context.Context, user domain.User) (RoomInfo, error) {
	return a.join(ctx, ServiceCreateRoom, JoinRequest{Username: user.Username, Rank: user.Rank})
}

// JoinByCode seats user in the room with the given code.
func (a *GameAdapter) JoinByCode(ctx context.Context, user domain.User, code string) (RoomInfo, error) {
	return a.join(ctx, ServiceJoinByCode, JoinRequest{Username: user.Username, Rank: user.Rank, RoomCode: code})
}

// JoinRandom places user in a public room.
func (a *GameAdapter) JoinRandom(ctx context.Context, user domain.User) (RoomInfo, error) {
	return a.join(ctx, ServiceJoinRandom, JoinRequest{Username: user.Username, Rank: user.Rank})
}

// GetRoom returns a room snapshot.
func (a *GameAdapter) GetRoom(ctx context.Context, code string) (RoomSnapshot, error) {
	req := GetRoomRequest{RoomCode: code}
	var resp GetRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return RoomSnapshot{}, fmt.Errorf("%s request failed: %w", ServiceGetRoom, err)
	}
	if err := mapServiceError(resp.Code, resp.Error); err != nil {
		return RoomSnapshot{}, err
	}
	return resp.Room, nil
}

// ListRooms returns the joinable public rooms.
func (a *GameAdapter) ListRooms(ctx context.Context) ([]RoomSummary, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceListRooms, err)
	}
	return resp.Rooms, nil
}

// Attach binds a connection to a seated player.
func (a *GameAdapter) Attach(ctx context.Context, roomID, username, connID string) error {
	return a.command(ctx, ServiceAttach, RoomCommand{RoomID: roomID, Username: username, ConnID: connID})
}

// Leave removes a player from a room.
func (a *GameAdapter) Leave(ctx context.Context, roomID, username string) error {
	return a.command(ctx, ServiceLeaveRoom, RoomCommand{RoomID: roomID, Username: username})
}

// Ban removes and bans target.
func (a *GameAdapter) Ban(ctx context.Context, roomID, gameMaster, target string) error {
	return a.command(ctx, ServiceBanPlayer, RoomCommand{RoomID: roomID, Username: gameMaster, Target: target})
}

// ChangeSetting applies a settings change.
func (a *GameAdapter) ChangeSetting(ctx context.Context, roomID, username, option string, value any) error {
	return a.command(ctx, ServiceChangeSetting, RoomCommand{
		RoomID:        roomID,
		Username:      username,
		SettingOption: option,
		OptionValue:   value,
	})
}

// Ready marks a player ready.
func (a *GameAdapter) Ready(ctx context.Context, roomID, username string) error {
	return a.command(ctx, ServiceReady, RoomCommand{RoomID: roomID, Username: username})
}

// StartGame starts the game.
func (a *GameAdapter) StartGame(ctx context.Context, roomID, username string) error {
	return a.command(ctx, ServiceStartGame, RoomCommand{RoomID: roomID, Username: username})
}

// SubmitAnswer submits a round answer.
func (a *GameAdapter) SubmitAnswer(ctx context.Context, roomID, username string, answer Answer) error {
	return a.command(ctx, ServiceSubmitAnswer, RoomCommand{RoomID: roomID, Username: username, Answer: &answer})
}

// Emote relays an emote.
func (a *GameAdapter) Emote(ctx context.Context, roomID, username string, emoteCode int) error {
	return a.command(ctx, ServiceSubmitEmote, RoomCommand{RoomID: roomID, Username: username, EmoteCode: emoteCode})
}
