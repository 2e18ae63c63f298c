package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/trivia-rooms/modules/api"
	"github.com/example/trivia-rooms/modules/broadcast"
	"github.com/example/trivia-rooms/modules/game"
	"github.com/example/trivia-rooms/modules/identity"
	"github.com/example/trivia-rooms/modules/questions"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Trivia Rooms - Fiber + EventBus Pubsub ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	identityModule := identity.NewModule()
	questionsModule := questions.NewModule()
	gameModule := game.NewModule(app.Logger())
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule(app.Logger())

	// Inject broadcast hub into API module
	// (This is done manually because the hub is not exposed via ServiceContainer)
	apiModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - identity: accounts, sessions and rank updates (consumes GameFinished)
	// - questions: OpenTDB client with optional Redis cache
	// - game: room registry and round engine (depends on questions)
	// - broadcast: Event consumer (RoomMessage events -> WebSocket clients)
	// - api: Driving adapter (Fiber HTTP/WebSocket server)
	app.Register(identityModule)
	app.Register(questionsModule)
	app.Register(gameModule)
	app.Register(broadcastModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (internal pubsub)")
	log.Println("  - Accounts: GORM + SQLite, signed session tokens")
	log.Println("  - Questions: OpenTDB (cache enabled when REDIS_ADDR is set)")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                 - Health check")
	log.Println("  POST   /api/v1/accounts        - Register an account")
	log.Println("  POST   /api/v1/sessions        - Log in")
	log.Println("  DELETE /api/v1/sessions        - Log out")
	log.Println("  GET    /api/v1/categories      - List question categories")
	log.Println("  GET    /api/v1/rooms           - List rooms")
	log.Println("  GET    /api/v1/rooms/:code     - Get room details")
	log.Println("  POST   /api/v1/rooms           - Create a room")
	log.Println("  POST   /api/v1/rooms/join      - Join a room by code")
	log.Println("  POST   /api/v1/rooms/random    - Join a random room")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Printf("  Connect with: ws://localhost:%s/ws?sessionToken=<token>", port)
	log.Println("  Message types: joinRoom, leaveRoom, banPlayer, changeSetting,")
	log.Println("                 readyToStartGame, startGame, submitAnswer, submitEmote")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
