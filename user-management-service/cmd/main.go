package main

import (
	"context"
	"log"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fleet-app/pkg/auth"
	"fleet-app/pkg/shutdown"
	"fleet-app/user-management-service/internal/config"
	"fleet-app/user-management-service/internal/handler"
	"fleet-app/user-management-service/internal/repository"
	"fleet-app/user-management-service/internal/services"
)

func main() {
	ctx, shutdownManager := shutdown.NewManager(context.Background())
	shutdownManager.StartListening()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// MongoDB
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Mongo connect:", err)
	}
	db := client.Database(cfg.MongoDB)
	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Disconnecting MongoDB...")
		return client.Disconnect(ctx)
	})

	repo := repository.NewUserRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create indexes:", err)
	}
	jwtUtil := auth.NewJWTUtil(cfg.JWTSecret)
	svc := services.NewUserService(repo, jwtUtil)
	router := handler.NewRouter(handler.NewUserHandler(svc), jwtUtil)

	srv := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: router,
	}
	go func() {
		log.Println("User service listening on", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()
	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] HTTP server shutting down...")
		return srv.Shutdown(ctx)
	})

	select {}
}
