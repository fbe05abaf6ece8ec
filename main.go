package main

import (
	"github.com/wfunc/roomstate/config"
	"github.com/wfunc/roomstate/logger"
	"github.com/wfunc/roomstate/monitor"
	"github.com/wfunc/roomstate/persistence"
	"github.com/wfunc/roomstate/server"
	"github.com/wfunc/roomstate/services"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	store, err := persistence.NewGormPostgreSQL(
		cfg.Database.Postgres.Host,
		cfg.Database.Postgres.Port,
		cfg.Database.Postgres.User,
		cfg.Database.Postgres.Password,
		cfg.Database.Postgres.DBName,
	)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")

	presenceService := services.NewPresenceService(store)

	// Metrics endpoint
	mon := monitor.NewMonitor("presence")
	if cfg.Server.MetricsAddress != "" {
		mon.StartServer(cfg.Server.MetricsAddress)
	}

	// Initialize Presence Server
	presenceServer := server.NewPresenceServer(cfg, presenceService, mon)

	// Start Server
	logger.Log.Infof("Starting presence server on %s", cfg.Server.HTTPAddress)
	if err := presenceServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
