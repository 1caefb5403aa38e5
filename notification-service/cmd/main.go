package main

import (
	"context"
	"log"
	"net/http"

	"fleet-app/notification-service/internal/config"
	"fleet-app/notification-service/internal/handler"
	"fleet-app/notification-service/internal/repository"
	"fleet-app/notification-service/internal/services"
	"fleet-app/notification-service/internal/utils"
	"fleet-app/pkg/auth"
	"fleet-app/pkg/events"
	"fleet-app/pkg/shutdown"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// 1. Context and shutdown manager
	ctx, shutdownManager := shutdown.NewManager(context.Background())
	shutdownManager.StartListening()

	// 2. Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 3. MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	db := mongoClient.Database(cfg.MongoDB)
	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Closing MongoDB connection...")
		return mongoClient.Disconnect(ctx)
	})

	// 4. Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("Invalid Redis URL:", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Closing Redis connection...")
		return rdb.Close()
	})

	// 5. Layers
	repo := repository.NewNotificationRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create indexes:", err)
	}
	mailer, err := services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	if err != nil {
		log.Fatal("Invalid SMTP config:", err)
	}
	notificationService := services.NewNotificationService(repo, utils.NewUnreadCache(rdb), mailer)

	// 6. Event consumer
	switch cfg.EventBroker {
	case "amqp":
		go func() {
			if err := events.ConsumeAMQP(ctx, cfg.RabbitMQURL, cfg.EventQueue, notificationService.HandleEvent); err != nil {
				log.Printf("[EVENTS] AMQP consumer stopped: %v", err)
			}
		}()
	case "log":
		log.Println("[EVENTS] No broker configured, job offer emails disabled")
	default:
		go events.SubscribeRedis(ctx, rdb, cfg.EventQueue, notificationService.HandleEvent)
	}

	// 7. HTTP server
	router := handler.NewRouter(handler.NewHandler(notificationService), auth.NewJWTUtil(cfg.JWTSecret))
	server := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Println("Notification service running on", cfg.ServerPort)
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
