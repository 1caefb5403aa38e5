package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Config parameters for MongoDB connection. URI wins over host/port when set.
type Config struct {
	URI      string `env:"MONGO_URI"`
	Host     string `env:"MONGO_HOST" envDefault:"localhost"`
	Port     int    `env:"MONGO_PORT" envDefault:"27017"`
	User     string `env:"MONGO_USER"`
	Password string `env:"MONGO_PASSWORD"`
	DBName   string `env:"MONGO_DB" envDefault:"fleet_vehicles"`
}

func (cfg Config) uri() string {
	switch {
	case cfg.URI != "":
		return cfg.URI
	case cfg.User != "" && cfg.Password != "":
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.User, cfg.Password, cfg.Host, cfg.Port)
	default:
		return fmt.Sprintf("mongodb://%s:%d", cfg.Host, cfg.Port)
	}
}

// NewMongoDBConnection connects and pings within ten seconds.
func NewMongoDBConnection(ctx context.Context, cfg Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.uri()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}
