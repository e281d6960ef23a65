package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopbench/shopbench/internal/config"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/postgres"
)

func main() {
	// Parse command line flags
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	flag.Parse()

	// Dry run never touches the database
	if *dryRun {
		printMigrations()
		return
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)

	conn, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	db := postgres.NewFromSqlx(conn, logger)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Running database migrations...")
	if err := db.Migrate(ctx); err != nil {
		logger.Fatalw("Failed to apply migrations", "error", err)
	}
	logger.Info("Migration completed successfully")
}

func printMigrations() {
	names, err := postgres.Migrations()
	if err != nil {
		log.Fatalf("Failed to list migrations: %v", err)
	}
	for _, name := range names {
		body, err := postgres.MigrationSQL(name)
		if err != nil {
			log.Fatalf("Failed to read migration %s: %v", name, err)
		}
		fmt.Printf("-- %s\n%s\n", name, body)
	}
}
