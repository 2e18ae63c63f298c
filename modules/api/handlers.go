package api

import (
	"errors"
	"strings"

	domain "github.com/example/trivia-rooms/domain/game"
	"github.com/example/trivia-rooms/modules/identity"
	"github.com/example/trivia-rooms/modules/wsserver"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App, ws *wsserver.Handlers) {
	// Health check
	app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(ws.HandleWebSocket))

	// REST API v1
	api := app.Group("/api/v1")
	auth := AuthMiddleware(m.identity)

	// Accounts and sessions
	api.Post("/accounts", m.createAccount)
	api.Post("/sessions", m.login)
	api.Delete("/sessions", m.logout)

	// Lobby
	api.Get("/categories", m.listCategories)
	api.Get("/rooms", m.listRooms)
	api.Get("/rooms/:code", m.getRoom)
	api.Post("/rooms", auth, m.createRoom)
	api.Post("/rooms/join", auth, m.joinRoom)
	api.Post("/rooms/random", auth, m.joinRandomRoom)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// createAccount handles POST /api/v1/accounts.
func (m *APIModule) createAccount(c *fiber.Ctx) error {
	var req CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	profile, err := m.identity.CreateAccount(c.UserContext(), req.Token, req.Username)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

// login handles POST /api/v1/sessions.
func (m *APIModule) login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	session, err := m.identity.Login(c.UserContext(), req.Token)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// logout handles DELETE /api/v1/sessions.
func (m *APIModule) logout(c *fiber.Ctx) error {
	token, ok := bearerToken(c)
	if !ok {
		return writeError(c, identity.ErrInvalidSession)
	}
	if err := m.identity.Logout(c.UserContext(), token); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// listCategories handles GET /api/v1/categories.
func (m *APIModule) listCategories(c *fiber.Ctx) error {
	categories, err := m.questions.ListCategories(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(CategoriesResponse{Categories: categories})
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.game.ListRooms(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"rooms": rooms})
}

// getRoom handles GET /api/v1/rooms/:code.
func (m *APIModule) getRoom(c *fiber.Ctx) error {
	room, err := m.game.GetRoom(c.UserContext(), strings.ToUpper(c.Params("code")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(room)
}

// createRoom handles POST /api/v1/rooms.
func (m *APIModule) createRoom(c *fiber.Ctx) error {
	user := currentUser(c)
	info, err := m.game.CreateRoom(c.UserContext(), domain.User{Username: user.Username, Rank: user.Rank})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(CreateRoomResponse{RoomID: info.RoomID, RoomCode: info.RoomCode})
}

// joinRoom handles POST /api/v1/rooms/join.
func (m *APIModule) joinRoom(c *fiber.Ctx) error {
	var req JoinRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	code := strings.ToUpper(strings.TrimSpace(req.RoomCode))
	if code == "" {
		return writeError(c, domain.Validationf("roomCode is required"))
	}

	user := currentUser(c)
	info, err := m.game.JoinByCode(c.UserContext(), domain.User{Username: user.Username, Rank: user.Rank}, code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(CreateRoomResponse{RoomID: info.RoomID, RoomCode: info.RoomCode})
}

// joinRandomRoom handles POST /api/v1/rooms/random.
func (m *APIModule) joinRandomRoom(c *fiber.Ctx) error {
	user := currentUser(c)
	info, err := m.game.JoinRandom(c.UserContext(), domain.User{Username: user.Username, Rank: user.Rank})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(CreateRoomResponse{RoomID: info.RoomID, RoomCode: info.RoomCode})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "invalid_request",
		Message: "Invalid request body",
	})
}

// writeError maps a module error to an HTTP status and error body.
func writeError(c *fiber.Ctx, err error) error {
	status, code, message := classify(err)
	return c.Status(status).JSON(ErrorResponse{Error: code, Message: message})
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, identity.ErrInvalidAccount):
		return fiber.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, identity.ErrAccountExists):
		return fiber.StatusConflict, "account_exists", err.Error()
	case errors.Is(err, identity.ErrAccountNotFound):
		return fiber.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, identity.ErrInvalidSession), errors.Is(err, identity.ErrSessionExpired):
		return fiber.StatusUnauthorized, "unauthorized", err.Error()
	}

	var e *domain.Error
	if !errors.As(err, &e) {
		return fiber.StatusInternalServerError, "internal_error", "Internal Server Error"
	}
	switch e.Kind {
	case domain.KindValidation:
		return fiber.StatusBadRequest, e.Code, e.Message
	case domain.KindNotFound:
		return fiber.StatusNotFound, e.Code, e.Message
	case domain.KindCapacity:
		if errors.Is(e, domain.ErrBanned) {
			return fiber.StatusForbidden, e.Code, e.Message
		}
		return fiber.StatusConflict, e.Code, e.Message
	case domain.KindCollaborator:
		return fiber.StatusBadGateway, e.Code, e.Message
	default:
		return fiber.StatusInternalServerError, "internal_error", "Internal Server Error"
	}
}
