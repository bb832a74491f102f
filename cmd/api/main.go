package main

import (
	"context"
	"log"
	"time"

	"window-backend/internal/bootstrap"
	"window-backend/internal/config"
	"window-backend/internal/shared/server"
	"window-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	go retentionLoop(app)

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)
	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// retentionLoop sweeps expired analysis results once an hour.
func retentionLoop(app *bootstrap.App) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if _, err := app.AnalysisService.SweepExpired(ctx, app.Config.AuditTTL); err != nil {
			telemetry.Error("retention sweep failed", map[string]any{"err": err.Error()})
		}
		cancel()
	}
}
