package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig configures the object-storage endpoint and the two logical
// buckets: full-resolution photos and thumbnails.
type StorageConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	UseSSL      bool
	PhotoBucket string
	ThumbBucket string
}

// AuthConfig points at the hosted auth platform. EventsChannel is the pub/sub
// channel the platform publishes auth-state changes on.
type AuthConfig struct {
	IssuerURL     string
	ClientID      string
	ServiceKey    string
	EventsChannel string
	Insecure      bool
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "revline")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("STORAGE_PHOTO_BUCKET", "car-photos")
	viper.SetDefault("STORAGE_THUMB_BUCKET", "car-photos-thumbs")
	viper.SetDefault("AUTH_EVENTS_CHANNEL", "auth:events")
	viper.SetDefault("RATE_LIMIT_RPS", 5.0)
	viper.SetDefault("RATE_LIMIT_BURST", 10)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      getEnvOrPanic("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Storage: StorageConfig{
			Endpoint:    viper.GetString("STORAGE_ENDPOINT"),
			AccessKey:   os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey:   os.Getenv("STORAGE_SECRET_KEY"),
			UseSSL:      viper.GetBool("STORAGE_USE_SSL"),
			PhotoBucket: viper.GetString("STORAGE_PHOTO_BUCKET"),
			ThumbBucket: viper.GetString("STORAGE_THUMB_BUCKET"),
		},
		Auth: AuthConfig{
			IssuerURL:     viper.GetString("AUTH_ISSUER_URL"),
			ClientID:      viper.GetString("AUTH_CLIENT_ID"),
			ServiceKey:    os.Getenv("AUTH_SERVICE_KEY"),
			EventsChannel: viper.GetString("AUTH_EVENTS_CHANNEL"),
			Insecure:      viper.GetBool("AUTH_INSECURE"),
		},
		RateLimit: RateLimitConfig{
			Enabled: viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:     viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:   viper.GetInt("RATE_LIMIT_BURST"),
		},
	}

	// Basic validation
	if cfg.Auth.IssuerURL == "" {
		log.Println("WARNING: AUTH_ISSUER_URL is not set; session checks will fail until configured")
	}

	return cfg, nil
}

func getEnvOrPanic(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("environment variable %s is required", key)
	}
	return v
}
