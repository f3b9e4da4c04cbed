package main

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/nayeem-dev/chirpnet/backend/internal/router"
	"github.com/nayeem-dev/chirpnet/backend/pkg/config"
	"github.com/nayeem-dev/chirpnet/backend/pkg/logger"
	"github.com/nayeem-dev/chirpnet/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zlog, err := logger.New(logger.Config{Development: cfg.Env == "development"})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		zlog.Fatalw("Failed to initialize databases", "error", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, db.Postgres, db.Mongo, zlog); err != nil {
		zlog.Fatalw("Failed to setup routes", "error", err)
	}

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	zlog.Infow("Starting server", "port", cfg.Port, "env", cfg.Env)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
