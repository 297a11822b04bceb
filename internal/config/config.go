package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig holds the remote store connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN builds the lib/pq connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig holds the session-store connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig holds the push-notification broker settings.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// Config is the full wallet-core configuration.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// Verifier is the secret-verification RPC endpoint.
	Verifier struct {
		BaseURL        string
		TimeoutSeconds int // bounded timeout; a hung call becomes an error, not an indefinite wait
	}

	Wallet struct {
		// Deep-link identity hints, equivalent to the fid/child/nick
		// query parameters of the client UI.
		DeepLink string

		// Session tier TTL (seconds). The durable tier has no TTL.
		SessionTTL int

		// Snapshot cache TTL (seconds) for the composed wallet.
		SnapshotTTL int

		// Safety-net full refresh interval (seconds); 0 disables the
		// ticker and leaves refreshes purely event-driven.
		RefreshInterval int
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "goalnest")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "goalnest-wallet-1")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1

	cfg.Verifier.BaseURL = getEnv("VERIFIER_BASE_URL", "http://localhost:8080")
	cfg.Verifier.TimeoutSeconds = getEnvInt("VERIFIER_TIMEOUT", 10)

	cfg.Wallet.DeepLink = getEnv("WALLET_DEEPLINK", "")
	cfg.Wallet.SessionTTL = getEnvInt("WALLET_SESSION_TTL", 1800)
	cfg.Wallet.SnapshotTTL = getEnvInt("WALLET_SNAPSHOT_TTL", 10)
	cfg.Wallet.RefreshInterval = getEnvInt("WALLET_REFRESH_INTERVAL", 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}
