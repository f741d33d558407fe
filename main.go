package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/ybro2011/Chat/config"
	"github.com/ybro2011/Chat/modules/broadcast"
	"github.com/ybro2011/Chat/modules/gateway"
	"github.com/ybro2011/Chat/modules/rooms"
)

func main() {
	log.Println("=== Room Chat Relay ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	roomsModule := rooms.NewModule(rooms.Options{
		AdminRoomCode:   cfg.AdminRoomCode,
		UniqueUsernames: cfg.UniqueUsernames,
		HistoryLimit:    cfg.HistoryLimit,
	})
	broadcastModule := broadcast.NewModule(cfg.AdminRoomCode)
	gatewayModule := gateway.NewModule(cfg)

	// Inject broadcast hub into the gateway
	// (done manually because the hub is not exposed via ServiceContainer)
	gatewayModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - rooms: core domain (ServiceProviderModule + EventEmitterModule)
	// - broadcast: event consumer (WebSocket hub + fan-out)
	// - gateway: driving adapter (Fiber HTTP/WebSocket server, depends on rooms)
	app.Register(roomsModule)
	app.Register(broadcastModule)
	app.Register(gatewayModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
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

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("HTTP endpoints (http://localhost:%s):", cfg.Port)
	log.Println("  GET /health        - Health check")
	log.Println("  GET /api/v1/rooms  - Active room directory")
	log.Println("  GET /*             - Static client (index fallback)")
	log.Println("")
	log.Printf("WebSocket endpoint (ws://localhost:%s/ws):", cfg.Port)
	log.Println("  Inbound:  join, message, leaveGroup, kickUser, getActiveRooms")
	log.Println("  Outbound: userJoined, userLeft, message, activeRooms,")
	log.Println("            adminRooms, roomUpdate, roomHistory, kicked, error")
	log.Println("")
	log.Printf("Admin surface: join room code %q", cfg.AdminRoomCode)
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
