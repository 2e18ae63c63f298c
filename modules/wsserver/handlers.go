package wsserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	domain "github.com/example/trivia-rooms/domain/game"
	"github.com/example/trivia-rooms/modules/broadcast"
	"github.com/example/trivia-rooms/modules/game"
	"github.com/example/trivia-rooms/modules/identity"
	"github.com/go-monolith/mono/pkg/types"
)

// errNotAttached is returned for room messages sent before joinRoom.
var errNotAttached = domain.Validationf("join the room first")

// Handlers serves the game WebSocket.
type Handlers struct {
	identity identity.IdentityPort
	game     game.GamePort
	hub      *broadcast.Hub
	logger   types.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(identityPort identity.IdentityPort, gamePort game.GamePort, hub *broadcast.Hub, logger types.Logger) *Handlers {
	return &Handlers{
		identity: identityPort,
		game:     gamePort,
		hub:      hub,
		logger:   logger,
	}
}

// HandleWebSocket handles WebSocket connections. The session token is
// read from the sessionToken query parameter.
func (h *Handlers) HandleWebSocket(c *websocket.Conn) {
	client := &broadcast.Client{
		ID:   uuid.New().String(),
		Conn: c,
	}

	profile, err := h.identity.Authenticate(context.Background(), c.Query("sessionToken"))
	if err != nil {
		_ = h.hub.SendTo(client, game.MsgError, ErrorPayload{Message: "invalid or expired session"})
		_ = c.Close()
		return
	}
	client.Username = profile.Username
	user := domain.User{Username: profile.Username, Rank: profile.Rank}

	h.hub.Register(client)
	defer func() {
		h.disconnect(client)
		h.hub.Unregister(client)
		_ = c.Close()
		h.logger.Info("WebSocket disconnected", "clientID", client.ID, "username", client.Username)
	}()

	h.logger.Info("WebSocket connected", "clientID", client.ID, "username", client.Username)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket error", "clientID", client.ID, "error", err)
			}
			break
		}

		var msg WebSocketMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			h.sendError(client, "Invalid message format")
			continue
		}

		if err := h.handleMessage(context.Background(), client, user, msg); err != nil {
			h.sendError(client, clientMessage(err))
		}
	}
}

// handleMessage processes one inbound message.
func (h *Handlers) handleMessage(ctx context.Context, client *broadcast.Client, user domain.User, msg WebSocketMessage) error {
	switch msg.Type {
	case TypeJoinRoom:
		var p RoomPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return h.handleJoin(ctx, client, user, p.RoomID)

	case TypeLeaveRoom:
		var p RoomPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		roomID, err := h.attachedRoom(client, p.RoomID)
		if err != nil {
			return err
		}
		return h.game.Leave(ctx, roomID, user.Username)

	case TypeBanPlayer:
		var p BanPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		roomID, err := h.attachedRoom(client, p.RoomID)
		if err != nil {
			return err
		}
		return h.game.Ban(ctx, roomID, user.Username, p.Username)

	case TypeChangeSetting:
		var p ChangeSettingPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		roomID, err := h.attachedRoom(client, p.RoomID)
		if err != nil {
			return err
		}
		return h.game.ChangeSetting(ctx, roomID, user.Username, p.SettingOption, p.OptionValue)

	case TypeReadyToStartGame:
		var p RoomPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		roomID, err := h.attachedRoom(client, p.RoomID)
		if err != nil {
			return err
		}
		return h.game.Ready(ctx, roomID, user.Username)

	case TypeStartGame:
		var p RoomPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		roomID, err := h.attachedRoom(client, p.RoomID)
		if err != nil {
			return err
		}
		return h.game.StartGame(ctx, roomID, user.Username)

	case TypeSubmitAnswer:
		var p SubmitAnswerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		roomID, err := h.attachedRoom(client, p.RoomID)
		if err != nil {
			return err
		}
		return h.game.SubmitAnswer(ctx, roomID, user.Username, game.Answer{
			IsCorrect:     p.IsCorrect,
			TimeDelay:     p.TimeDelay,
			PowerupCode:   p.PowerupCode,
			PowerupVictim: p.PowerupVictim,
		})

	case TypeSubmitEmote:
		var p EmotePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		roomID, err := h.attachedRoom(client, p.RoomID)
		if err != nil {
			return err
		}
		return h.game.Emote(ctx, roomID, user.Username, p.EmoteCode)

	default:
		return domain.Validationf("Unknown message type: %s", msg.Type)
	}
}

// handleJoin attaches the connection to a room the user is seated in.
// The hub membership is set up first so the welcome message reaches
// this connection.
func (h *Handlers) handleJoin(ctx context.Context, client *broadcast.Client, user domain.User, roomID string) error {
	if roomID == "" {
		return domain.Validationf("roomId is required")
	}
	current := h.hub.CurrentRoom(client.ID)
	if current == roomID {
		return nil
	}
	if current != "" {
		h.leaveQuietly(ctx, current, user.Username)
		h.hub.LeaveRoom(client.ID)
	}

	h.hub.JoinRoom(client.ID, roomID)
	if err := h.game.Attach(ctx, roomID, user.Username, client.ID); err != nil {
		h.hub.LeaveRoom(client.ID)
		return err
	}
	return nil
}

// disconnect removes the user from the room their connection was
// attached to.
func (h *Handlers) disconnect(client *broadcast.Client) {
	roomID := h.hub.CurrentRoom(client.ID)
	if roomID == "" {
		return
	}
	h.leaveQuietly(context.Background(), roomID, client.Username)
	h.hub.LeaveRoom(client.ID)
}

func (h *Handlers) leaveQuietly(ctx context.Context, roomID, username string) {
	err := h.game.Leave(ctx, roomID, username)
	if err != nil && !errors.Is(err, domain.ErrPlayerNotInRoom) && !errors.Is(err, domain.ErrRoomNotFound) {
		h.logger.Warn("Failed to leave room", "roomID", roomID, "username", username, "error", err)
	}
}

// attachedRoom resolves the room a message targets. An empty roomId
// means the attached room; any other room is rejected.
func (h *Handlers) attachedRoom(client *broadcast.Client, roomID string) (string, error) {
	current := h.hub.CurrentRoom(client.ID)
	if current == "" || (roomID != "" && roomID != current) {
		return "", errNotAttached
	}
	return current, nil
}

func (h *Handlers) sendError(client *broadcast.Client, message string) {
	if err := h.hub.SendTo(client, game.MsgError, ErrorPayload{Message: message}); err != nil {
		h.logger.Warn("Failed to send error", "clientID", client.ID, "error", err)
	}
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return domain.Validationf("payload is required")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return domain.Validationf("Invalid payload")
	}
	return nil
}

// clientMessage returns the text shown to the player for err.
func clientMessage(err error) string {
	var e *domain.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong, please try again"
}
