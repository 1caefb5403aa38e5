package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI               string
	MongoDB                string
	RedisURL               string
	JWTSecret              string
	ServerPort             string
	AllowedOrigins         []string
	DriverServiceURL       string
	UserServiceURL         string
	NotificationServiceURL string
	HTTPClientTimeout      time.Duration
	AutoCompleteGrace      time.Duration
	AutoCompleteInterval   time.Duration
	CacheRefreshInterval   time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[CONFIG] no .env file, using environment")
	}

	cfg := &Config{
		MongoURI:               getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:                getEnv("MONGO_DB", "fleet_trips"),
		RedisURL:               getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		ServerPort:             getEnv("SERVER_PORT", ":8001"),
		AllowedOrigins:         strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		DriverServiceURL:       getEnv("DRIVER_SERVICE_URL", "http://driver-management-service:8085"),
		UserServiceURL:         getEnv("USER_SERVICE_URL", "http://user-management-service:8082"),
		NotificationServiceURL: getEnv("NOTIFICATION_SERVICE_URL", "http://notification-service:8084"),
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	var err error
	if cfg.HTTPClientTimeout, err = getDuration("HTTP_CLIENT_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.AutoCompleteGrace, err = getDuration("AUTO_COMPLETE_GRACE", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AutoCompleteInterval, err = getDuration("AUTO_COMPLETE_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CacheRefreshInterval, err = getDuration("CACHE_REFRESH_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.New(key + ": " + err.Error())
	}
	return d, nil
}
