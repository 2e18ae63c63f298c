package game

// Service names.
const (
	ServiceCreateRoom    = "create-room"
	ServiceJoinByCode    = "join-by-code"
	ServiceJoinRandom    = "join-random"
	ServiceGetRoom       = "get-room"
	ServiceListRooms     = "list-rooms"
	ServiceAttach        = "attach"
	ServiceLeaveRoom     = "leave-room"
	ServiceBanPlayer     = "ban-player"
	ServiceChangeSetting = "change-setting"
	ServiceReady         = "ready"
	ServiceStartGame     = "start-game"
	ServiceSubmitAnswer  = "submit-answer"
	ServiceSubmitEmote   = "submit-emote"
)

// JoinRequest identifies the user creating or joining a room.
type JoinRequest struct {
	Username string `json:"username"`
	Rank     int    `json:"rank"`
	RoomCode string `json:"roomCode,omitempty"`
}

// RoomInfoResponse carries a room's id and code, or an error.
type RoomInfoResponse struct {
	RoomInfo
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// GetRoomRequest looks up a room by code.
type GetRoomRequest struct {
	RoomCode string `json:"roomCode"`
}

// GetRoomResponse carries a room snapshot, or an error.
type GetRoomResponse struct {
	Room  RoomSnapshot `json:"room"`
	Code  string       `json:"code,omitempty"`
	Error string       `json:"error,omitempty"`
}

// ListRoomsRequest asks for the joinable public rooms.
type ListRoomsRequest struct{}

// ListRoomsResponse lists joinable public rooms.
type ListRoomsResponse struct {
	Rooms []RoomSummary `json:"rooms"`
}

// RoomCommand is a player's request against a room they are seated in.
type RoomCommand struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`

	ConnID        string  `json:"connId,omitempty"`
	Target        string  `json:"target,omitempty"`
	SettingOption string  `json:"settingOption,omitempty"`
	OptionValue   any     `json:"optionValue,omitempty"`
	EmoteCode     int     `json:"emoteCode,omitempty"`
	Answer        *Answer `json:"answer,omitempty"`
}

// CommandResponse acknowledges a RoomCommand, or carries an error.
type CommandResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}
