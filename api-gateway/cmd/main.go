package main

import (
	"context"
	"log"
	"net/http"

	"fleet-app/api-gateway/internal/config"
	"fleet-app/api-gateway/setup"
	"fleet-app/pkg/shutdown"
)

func main() {
	_, shutdownManager := shutdown.NewManager(context.Background())
	shutdownManager.StartListening()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: setup.NewRouter(cfg),
	}

	go func() {
		log.Printf("API Gateway listening on %s", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to run API Gateway: %v", err)
		}
	}()

	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Shutting down HTTP server...")
		return srv.Shutdown(ctx)
	})

	select {}
}
