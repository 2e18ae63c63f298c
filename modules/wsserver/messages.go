package wsserver

import (
	"encoding/json"

	domain "github.com/example/trivia-rooms/domain/game"
)

// Inbound message types.
const (
	TypeJoinRoom         = "joinRoom"
	TypeLeaveRoom        = "leaveRoom"
	TypeBanPlayer        = "banPlayer"
	TypeChangeSetting    = "changeSetting"
	TypeReadyToStartGame = "readyToStartGame"
	TypeStartGame        = "startGame"
	TypeSubmitAnswer     = "submitAnswer"
	TypeSubmitEmote      = "submitEmote"
)

// WebSocketMessage represents a message received over WebSocket.
type WebSocketMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RoomPayload names the room a message refers to. Every inbound payload
// embeds it.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// BanPayload is the payload for banPlayer.
type BanPayload struct {
	RoomPayload
	Username string `json:"username"`
}

// ChangeSettingPayload is the payload for changeSetting.
type ChangeSettingPayload struct {
	RoomPayload
	SettingOption string `json:"settingOption"`
	OptionValue   any    `json:"optionValue"`
}

// SubmitAnswerPayload is the payload for submitAnswer.
type SubmitAnswerPayload struct {
	RoomPayload
	IsCorrect     bool                `json:"isCorrect"`
	TimeDelay     int                 `json:"timeDelay"`
	PowerupCode   *domain.PowerupKind `json:"powerupCode,omitempty"`
	PowerupVictim string              `json:"powerupVictimUsername,omitempty"`
}

// EmotePayload is the payload for submitEmote.
type EmotePayload struct {
	RoomPayload
	EmoteCode int `json:"emoteCode"`
}

// ErrorPayload is sent back when a message cannot be handled.
type ErrorPayload struct {
	Message string `json:"message"`
}
