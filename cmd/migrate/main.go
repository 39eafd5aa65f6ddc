package main

import (
	"flag"
	"log"
	"quiz-class/internal/config"
	"quiz-class/internal/database"
	"quiz-class/internal/logger"
)

func main() {
	migrationsDir := flag.String("dir", "database/migrations", "directory holding the migration files")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Logger)
	l := logger.Get()
	defer l.Sync()

	// Migrations run DDL over godror; the API pool uses go-ora.
	db, err := database.NewMigrateOracleDB(cfg.GetGodrorDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db, *migrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
}
