package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected DB_HOST default 'localhost', got '%s'", cfg.Database.Host)
	}

	if cfg.Database.Port != 5432 {
		t.Errorf("Expected DB_PORT default 5432, got %d", cfg.Database.Port)
	}

	if cfg.Database.Database != "goalnest" {
		t.Errorf("Expected DB_NAME default 'goalnest', got '%s'", cfg.Database.Database)
	}

	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Expected REDIS_ADDR default 'localhost:6379', got '%s'", cfg.Redis.Addr)
	}

	if cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("Expected MQTT_BROKER default 'tcp://localhost:1883', got '%s'", cfg.MQTT.Broker)
	}

	if cfg.Verifier.TimeoutSeconds != 10 {
		t.Errorf("Expected VERIFIER_TIMEOUT default 10, got %d", cfg.Verifier.TimeoutSeconds)
	}

	if cfg.Wallet.SessionTTL != 1800 {
		t.Errorf("Expected WALLET_SESSION_TTL default 1800, got %d", cfg.Wallet.SessionTTL)
	}

	if cfg.Wallet.SnapshotTTL != 10 {
		t.Errorf("Expected WALLET_SNAPSHOT_TTL default 10, got %d", cfg.Wallet.SnapshotTTL)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_NAME", "test-db")
	os.Setenv("VERIFIER_BASE_URL", "https://api.goalnest.test")
	os.Setenv("VERIFIER_TIMEOUT", "5")
	os.Setenv("WALLET_DEEPLINK", "https://app.goalnest.test/kid?fid=ABC123&nick=Sam")
	os.Setenv("LOG_LEVEL", "debug")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Database.Host != "test-host" {
		t.Errorf("Expected DB_HOST 'test-host', got '%s'", cfg.Database.Host)
	}

	if cfg.Database.Database != "test-db" {
		t.Errorf("Expected DB_NAME 'test-db', got '%s'", cfg.Database.Database)
	}

	if cfg.Verifier.BaseURL != "https://api.goalnest.test" {
		t.Errorf("Expected VERIFIER_BASE_URL 'https://api.goalnest.test', got '%s'", cfg.Verifier.BaseURL)
	}

	if cfg.Verifier.TimeoutSeconds != 5 {
		t.Errorf("Expected VERIFIER_TIMEOUT 5, got %d", cfg.Verifier.TimeoutSeconds)
	}

	if cfg.Wallet.DeepLink == "" {
		t.Error("Expected WALLET_DEEPLINK to be set")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected LOG_LEVEL 'debug', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("VERIFIER_TIMEOUT", "not-a-number")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Verifier.TimeoutSeconds != 10 {
		t.Errorf("Expected fallback to default 10, got %d", cfg.Verifier.TimeoutSeconds)
	}
}

func TestGetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.local",
		Port:     5433,
		User:     "app",
		Password: "secret",
		Database: "goalnest",
		SSLMode:  "require",
	}

	dsn := cfg.GetDSN()
	expected := "host=db.local port=5433 user=app password=secret dbname=goalnest sslmode=require"
	if dsn != expected {
		t.Errorf("Expected DSN '%s', got '%s'", expected, dsn)
	}
}
