package api

// CreateAccountRequest is the API request to register an account.
type CreateAccountRequest struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// LoginRequest is the API request to start a session.
type LoginRequest struct {
	Token string `json:"token"`
}

// JoinRoomRequest is the API request to join a room by code.
type JoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
}

// CreateRoomResponse is the API response for a created room.
type CreateRoomResponse struct {
	RoomID   string `json:"roomId"`
	RoomCode string `json:"roomCode"`
}

// CategoriesResponse lists the selectable categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
