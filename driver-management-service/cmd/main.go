package main

import (
	"context"
	"log"
	"net/http"

	"fleet-app/driver-management-service/internal/config"
	"fleet-app/driver-management-service/internal/handler"
	"fleet-app/driver-management-service/internal/repository"
	"fleet-app/driver-management-service/internal/services"
	"fleet-app/driver-management-service/internal/utils"
	"fleet-app/pkg/auth"
	"fleet-app/pkg/events"
	"fleet-app/pkg/shutdown"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// 1. Root context + shutdown manager
	ctx, shutdownManager := shutdown.NewManager(context.Background())
	shutdownManager.StartListening()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Error parsing configs: %v", err)
	}

	// 2. MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	db := mongoClient.Database(cfg.Mongo.DBName)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("Failed to create indexes:", err)
	}
	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Closing MongoDB connection...")
		return mongoClient.Disconnect(ctx)
	})

	// 3. Redis
	opts, err := redis.ParseURL(cfg.Redis.URL)
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

	// 4. Domain events
	sink, err := newEventSink(cfg, rdb)
	if err != nil {
		log.Fatal("Failed to create event sink:", err)
	}
	bus := events.NewBus(sink, 0)
	bus.Start()
	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Draining event bus...")
		return bus.Close(ctx)
	})

	// 5. Repositories, collaborators, services
	requestRepo := repository.NewJobRequestRepository(db)
	employmentRepo := repository.NewEmploymentRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	tx := repository.NewTransactionManager(mongoClient, cfg.Mongo.Transactions)

	identity := utils.NewIdentityClient(cfg.Services.UserURL, cfg.Services.Timeout)
	trips := utils.NewTripClient(cfg.Services.TripURL, cfg.Services.Timeout)
	vehicles := utils.NewVehicleClient(cfg.Services.VehicleURL, cfg.Services.Timeout)
	notifier := utils.NewNotificationClient(cfg.Services.NotificationURL, cfg.Services.Timeout)

	clock := services.RealClock()
	syncWorker := services.NewIdentitySyncWorker(outboxRepo, identity, clock, cfg.Hiring.OutboxPollInterval, cfg.Hiring.OutboxMaxBackoff)

	jobRequestService := services.NewJobRequestService(services.JobRequestDeps{
		Requests:    requestRepo,
		Employments: employmentRepo,
		Outbox:      outboxRepo,
		Tx:          tx,
		Identity:    identity,
		Notifier:    notifier,
		Events:      bus,
		Sync:        syncWorker,
		Clock:       clock,
		TTL:         cfg.Hiring.JobRequestTTL,
	})
	employmentService := services.NewEmploymentService(services.EmploymentDeps{
		Employments: employmentRepo,
		Outbox:      outboxRepo,
		Tx:          tx,
		Identity:    identity,
		Trips:       trips,
		Vehicles:    vehicles,
		Notifier:    notifier,
		Events:      bus,
		Sync:        syncWorker,
		Clock:       clock,
	})
	ratingService := services.NewRatingService(services.RatingDeps{
		Ratings:     ratingRepo,
		Employments: employmentRepo,
		Cache:       repository.NewRatingCache(rdb),
		Notifier:    notifier,
		Events:      bus,
		Clock:       clock,
	})

	// 6. Background jobs
	syncWorker.Start(ctx)
	scheduler, err := services.NewScheduler(jobRequestService, syncWorker, cfg.Hiring.ExpirySweepSchedule, cfg.Hiring.OutboxPollInterval)
	if err != nil {
		log.Fatal("Failed to create scheduler:", err)
	}
	scheduler.Start(ctx)
	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Stopping scheduler...")
		scheduler.Stop()
		return nil
	})

	// 7. Router
	jwtUtil := auth.NewJWTUtil(cfg.Server.JWTSecret)
	router := handler.NewRouter(handler.Handlers{
		JobRequests: handler.NewJobRequestHandler(jobRequestService),
		Employments: handler.NewEmploymentHandler(employmentService),
		Ratings:     handler.NewRatingHandler(ratingService),
	}, jwtUtil, cfg.Server.AllowedOrigins)

	// 8. HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Driver management service running on :%s", cfg.Server.Port)
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

func newEventSink(cfg *config.Config, rdb *redis.Client) (events.Sink, error) {
	switch cfg.Events.Broker {
	case "amqp":
		return events.NewAMQPSink(cfg.Events.RabbitMQURL, cfg.Events.Queue)
	case "log":
		return events.LogSink{}, nil
	default:
		return events.NewRedisSink(rdb, cfg.Events.Queue), nil
	}
}
