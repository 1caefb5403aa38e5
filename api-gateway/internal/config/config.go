package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr     string
	JWTSecret      string
	AllowedOrigins []string
	Upstreams      Upstreams
}

type Upstreams struct {
	Users         string
	Drivers       string
	Trips         string
	Vehicles      string
	Notifications string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[CONFIG] no .env file, using environment")
	}

	cfg := &Config{
		ServerAddr:     getEnv("GATEWAY_ADDR", "0.0.0.0:8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		Upstreams: Upstreams{
			Users:         getEnv("USER_SERVICE_URL", "http://user-management-service:8082"),
			Drivers:       getEnv("DRIVER_SERVICE_URL", "http://driver-management-service:8085"),
			Trips:         getEnv("TRIP_SERVICE_URL", "http://trip-service:8001"),
			Vehicles:      getEnv("VEHICLE_SERVICE_URL", "http://vehicle-service:8083"),
			Notifications: getEnv("NOTIFICATION_SERVICE_URL", "http://notification-service:8084"),
		},
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
