package events

import (
	"encoding/json"
	"time"

	"github.com/example/trivia-rooms/domain/game"
	"github.com/go-monolith/mono/pkg/helper"
)

// RoomMessageEvent carries a message for the connections of a room.
// An empty To addresses every connection in the room.
type RoomMessageEvent struct {
	RoomID  string          `json:"room_id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	To      []string        `json:"to,omitempty"`
	Exclude string          `json:"exclude,omitempty"`
	// Close detaches the recipients from the room after delivery.
	Close bool `json:"close,omitempty"`
}

// GameFinishedEvent is emitted when a game ends and the room is closed.
type GameFinishedEvent struct {
	RoomID     string          `json:"room_id"`
	RoomCode   string          `json:"room_code"`
	Standings  []game.Standing `json:"standings"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Event definitions for the game domain.
var (
	RoomMessageV1 = helper.EventDefinition[RoomMessageEvent](
		"game",
		"RoomMessage",
		"v1",
	)

	GameFinishedV1 = helper.EventDefinition[GameFinishedEvent](
		"game",
		"GameFinished",
		"v1",
	)
)
