package main

// Run database migrations:
//   go run ./cmd/migrate            # apply pending migrations
//   go run ./cmd/migrate -cmd status
//   go run ./cmd/migrate -cmd down

import (
	"context"
	"flag"
	"log"
	"os"

	"coa-backend/internal/shared/config"
	"coa-backend/internal/shared/storage/db"
)

func main() {
	command := flag.String("cmd", "up", "goose command: up, up-by-one, down, redo, reset, status, version")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, *command, flag.Args()...); err != nil {
		log.Printf("migrate %s failed: %v", *command, err)
		sqlDB.Close()
		os.Exit(1)
	}

	if version, err := db.SchemaVersion(ctx, sqlDB); err == nil {
		log.Printf("schema version %d", version)
	}
}
