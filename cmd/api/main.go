package main

import (
	"log"

	"coa-backend/internal/bootstrap"
	"coa-backend/internal/shared/config"
	"coa-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer app.Close()

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Printf("server error: %v", err)
	}
}
