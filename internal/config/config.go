package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Deployment modes selected by RUN_MODE.
const (
	ModeDev  = "dev"
	ModeProd = "prod"
	ModeTest = "test"
)

// Session storage backends selected by SESSION_STORE.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// DefaultSecretKey is only acceptable outside prod.
const DefaultSecretKey = "dev-secret-key-change-in-production"

// Config is the runtime configuration of the portal.
type Config struct {
	ServiceName  string
	RunMode      string
	AppPort      string
	SecretKey    string
	DatabaseURL  string
	LogLevel     string
	SessionStore string
	SessionTTL   time.Duration
	CookieSecure bool
	BcryptCost   int
	RedisURL     string
	RabbitMQURL  string
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "pintu")
	v.SetDefault("RUN_MODE", ModeDev)
	v.SetDefault("APP_PORT", ":5000")
	v.SetDefault("SECRET_KEY", DefaultSecretKey)
	v.SetDefault("DEV_DATABASE_URL", "dev.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SESSION_STORE", SessionStoreMemory)
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("RABBITMQ_URL", "")
}

// Load reads the configuration from v, applying defaults and environment variables.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		ServiceName:  v.GetString("SERVICE_NAME"),
		RunMode:      strings.ToLower(v.GetString("RUN_MODE")),
		AppPort:      v.GetString("APP_PORT"),
		SecretKey:    v.GetString("SECRET_KEY"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		SessionStore: strings.ToLower(v.GetString("SESSION_STORE")),
		SessionTTL:   v.GetDuration("SESSION_TTL"),
		CookieSecure: v.GetBool("COOKIE_SECURE"),
		BcryptCost:   v.GetInt("BCRYPT_COST"),
		RedisURL:     v.GetString("REDIS_URL"),
		RabbitMQURL:  v.GetString("RABBITMQ_URL"),
	}

	switch cfg.RunMode {
	case ModeDev:
		cfg.DatabaseURL = v.GetString("DEV_DATABASE_URL")
	case ModeProd:
		cfg.DatabaseURL = v.GetString("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required in %s mode", ModeProd)
		}
		if cfg.SecretKey == DefaultSecretKey || cfg.SecretKey == "" {
			return nil, fmt.Errorf("SECRET_KEY must be set in %s mode", ModeProd)
		}
	case ModeTest:
		cfg.DatabaseURL = InMemoryDatabaseURL()
	default:
		return nil, fmt.Errorf("unknown RUN_MODE %q", cfg.RunMode)
	}

	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY must not be empty")
	}
	if cfg.SessionStore != SessionStoreMemory && cfg.SessionStore != SessionStoreRedis {
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}

	return cfg, nil
}

// InMemoryDatabaseURL returns a SQLite DSN for a private in-memory database.
// The shared cache keeps the database alive across the pool's connections.
func InMemoryDatabaseURL() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
}

// IsPostgres reports whether the DSN points at PostgreSQL rather than SQLite.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}
