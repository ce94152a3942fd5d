package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/syncapi/internal/server"
	"github.com/dmitrijs2005/syncapi/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
