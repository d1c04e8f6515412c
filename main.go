package main

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/talentgrid/connect/src/cache"
	"github.com/talentgrid/connect/src/controllers"
	"github.com/talentgrid/connect/src/gateway"
	"github.com/talentgrid/connect/src/lib"
	"github.com/talentgrid/connect/src/middleware"
	"github.com/talentgrid/connect/src/reconciler"
	"github.com/talentgrid/connect/src/routes"
)

func main() {
	log := lib.NewLogger()
	defer log.Sync()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}
	cfg, err := lib.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	gw, err := gateway.Dial(ctx, cfg.MongoURI, cfg.Database, log)
	if err != nil {
		log.Fatalf("Failed to connect to remote store: %v", err)
	}
	defer gw.Close(ctx)

	store := cache.Open(cfg.CachePath, log)

	manager := reconciler.NewManager(gw, store, cfg.ToastTTL(), cfg.SettleDelay(), log)
	defer manager.CloseAll()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:5173",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	connect := controllers.NewConnectController(manager, log)
	routes.ConnectRoutes(app, connect, middleware.SessionRoute(gw, cfg.JWTSecret))

	log.Infof("Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
