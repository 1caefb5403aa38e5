package config

import (
	"github.com/caarlos0/env/v10"
	_ "github.com/joho/godotenv/autoload"

	"fleet-app/vehicle-service/utils/mongodb"
)

// Config holds all application configuration
type Config struct {
	MongoDB mongodb.Config
	Server  ServerConfig
	Redis   RedisConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port      string `env:"SERVER_PORT" envDefault:"8083"`
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

// NewConfig creates a new Config
func NewConfig() (*Config, error) {
	cfg := new(Config)
	err := env.Parse(cfg)

	return cfg, err
}
