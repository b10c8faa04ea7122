package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "revline_test")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")
	os.Setenv("AUTH_ISSUER_URL", "https://auth.example.com")
	os.Setenv("STORAGE_ENDPOINT", "localhost:9000")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.Storage.PhotoBucket != "car-photos" || cfg.Storage.ThumbBucket != "car-photos-thumbs" {
		t.Fatalf("unexpected bucket defaults: %+v", cfg.Storage)
	}
	if cfg.Auth.EventsChannel != "auth:events" {
		t.Fatalf("unexpected events channel default: %q", cfg.Auth.EventsChannel)
	}
}
