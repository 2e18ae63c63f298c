package game

import (
	domain "github.com/example/trivia-rooms/domain/game"
)

// Outbound room message types.
const (
	MsgWelcomeNewPlayer       = "welcomeNewPlayer"
	MsgPlayerJoined           = "playerJoined"
	MsgPlayerLeft             = "playerLeft"
	MsgRemovedFromRoom        = "removedFromRoom"
	MsgRoomClosed             = "roomClosed"
	MsgChangedSetting         = "changedSetting"
	MsgPlayerReadyToStartGame = "playerReadyToStartGame"
	MsgStartQuestion          = "startQuestion"
	MsgAnswerReceived         = "answerReceived"
	MsgShowScoreboard         = "showScoreboard"
	MsgEndGame                = "endGame"
	MsgEmoteReceived          = "emoteReceived"
	MsgError                  = "error"
)

// Reasons carried by playerLeft and removedFromRoom.
const (
	ReasonLeft   = "left"
	ReasonBanned = "banned"
)

// WelcomePayload is sent to a player attaching to a room.
type WelcomePayload struct {
	RoomPlayers        []domain.PlayerView `json:"roomPlayers"`
	RoomSettings       domain.SettingsView `json:"roomSettings"`
	PossibleCategories []string            `json:"possibleCategories"`
	RoomCode           string              `json:"roomCode"`
}

// PlayerJoinedPayload announces a new player to the rest of the room.
type PlayerJoinedPayload struct {
	NewPlayerUsername string `json:"newPlayerUsername"`
	NewPlayerRank     int    `json:"newPlayerRank"`
}

// PlayerLeftPayload announces a departure to the rest of the room.
type PlayerLeftPayload struct {
	PlayerUsername string `json:"playerUsername"`
	Reason         string `json:"reason"`
}

// RemovedPayload tells a player they are no longer in the room.
type RemovedPayload struct {
	Reason string `json:"reason"`
}

// ChangedSettingPayload echoes an applied setting change.
type ChangedSettingPayload struct {
	SettingOption string `json:"settingOption"`
	OptionValue   any    `json:"optionValue"`
}

// PlayerPayload names the player behind an event.
type PlayerPayload struct {
	PlayerUsername string `json:"playerUsername"`
}

// QuestionPayload starts a round.
type QuestionPayload struct {
	Question     string   `json:"question"`
	Answers      []string `json:"answers"`
	CorrectIndex int      `json:"correctIndex"`
	RoundNumber  int      `json:"roundNumber"`
	TimeLimit    int      `json:"timeLimit"`
}

// RoundScore is one player's line on the scoreboard. PointsEarned is
// the change applied to the total after clamping at zero.
type RoundScore struct {
	Username           string `json:"username"`
	PointsEarned       int    `json:"pointsEarned"`
	UpdatedTotalPoints int    `json:"updatedTotalPoints"`
}

// ScoreboardPayload closes a round.
type ScoreboardPayload struct {
	Scores []RoundScore `json:"scores"`
}

// EndGamePayload carries the final standings.
type EndGamePayload struct {
	Scores []domain.Standing `json:"scores"`
}

// EmotePayload relays an emote.
type EmotePayload struct {
	Username  string `json:"username"`
	EmoteCode int    `json:"emoteCode"`
}

// ErrorPayload reports a failed request to one player.
type ErrorPayload struct {
	Message string `json:"message"`
}
