package main

import (
	"context"
	"log"
	"net/http"

	"fleet-app/pkg/auth"
	"fleet-app/pkg/shutdown"
	"fleet-app/trip-service/internal/config"
	"fleet-app/trip-service/internal/handler"
	"fleet-app/trip-service/internal/repository"
	"fleet-app/trip-service/internal/services"
	"fleet-app/trip-service/internal/utils"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// 1. Root context + shutdown manager
	ctx, shutdownManager := shutdown.NewManager(context.Background())
	shutdownManager.StartListening()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 2. MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	db := mongoClient.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("Failed to create indexes:", err)
	}
	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Closing MongoDB connection...")
		return mongoClient.Disconnect(ctx)
	})

	// 3. Redis
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("Invalid Redis URL:", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Closing Redis connection...")
		return rdb.Close()
	})

	// 4. Services
	tripRepo := repository.NewTripRepository(db)
	tripCache := repository.NewTripCache(rdb)
	propagator := services.NewAssignmentPropagator(cfg.HTTPClientTimeout,
		utils.NewDriverServiceClient(cfg.DriverServiceURL, cfg.HTTPClientTimeout),
		utils.NewUserServiceClient(cfg.UserServiceURL, cfg.HTTPClientTimeout),
	)
	notifier := utils.NewNotificationClient(cfg.NotificationServiceURL, cfg.HTTPClientTimeout)
	tripService := services.NewTripService(tripRepo, tripCache, propagator, notifier)

	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Waiting for assignment propagation...")
		propagator.Wait()
		return nil
	})

	// 5. Background jobs
	services.NewCacheRefresher(tripService, tripCache, cfg.CacheRefreshInterval).Start(ctx)
	services.NewCronJobService(tripService, cfg.AutoCompleteInterval, cfg.AutoCompleteGrace).Start(ctx)

	// 6. Router
	router := handler.NewRouter(handler.NewTripHandler(tripService), auth.NewJWTUtil(cfg.JWTSecret), cfg.AllowedOrigins)

	// 7. HTTP server
	server := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Trip service running on %s", cfg.ServerPort)
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
