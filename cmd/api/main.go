package main

import (
	"context"
	"log"
	"os"

	"filing-analyzer/internal/bootstrap"
	"filing-analyzer/internal/shared/config"
	"filing-analyzer/internal/shared/server"
	"filing-analyzer/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	telemetry.Init(cfg.LogLevel, os.Stdout)

	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)
	if err := app.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
