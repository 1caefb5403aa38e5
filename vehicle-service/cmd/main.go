package main

import (
	"context"
	"log"
	"net/http"

	"fleet-app/pkg/auth"
	"fleet-app/pkg/shutdown"
	"fleet-app/vehicle-service/config"
	handlers "fleet-app/vehicle-service/internal/handler"
	"fleet-app/vehicle-service/internal/repository"
	"fleet-app/vehicle-service/internal/services"
	"fleet-app/vehicle-service/utils"
	"fleet-app/vehicle-service/utils/mongodb"

	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, shutdownManager := shutdown.NewManager(context.Background())
	shutdownManager.StartListening()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Error parsing configs: %v", err)
	}

	// Connect to MongoDB
	client, err := mongodb.NewMongoDBConnection(ctx, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Error connecting to MongoDB: %v", err)
	}
	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Closing MongoDB connection...")
		return client.Disconnect(ctx)
	})

	// Connect to Redis
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Invalid Redis URL: %v", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to ping Redis: %v", err)
	}
	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Closing Redis connection...")
		return rdb.Close()
	})

	// Initialize components
	vehicleRepo := repository.NewVehicleRepository(client.Database(cfg.MongoDB.DBName))
	if err := vehicleRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Error creating indexes: %v", err)
	}
	vehicleSrv := services.NewVehicleService(vehicleRepo, utils.NewVehicleCache(rdb))
	router := handlers.NewRouter(handlers.NewVehicleHandler(vehicleSrv), auth.NewJWTUtil(cfg.Server.JWTSecret))

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Vehicle service started on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Shutting down HTTP server...")
		return server.Shutdown(ctx)
	})

	select {}
}
