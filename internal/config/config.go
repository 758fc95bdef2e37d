package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Queue drivers for notification dispatch.
const (
	QueueDriverMemory = "memory"
	QueueDriverRedis  = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Mail         MailConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"eats-backend"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
}

// PostgresConfig holds DB connection values. An empty DSN selects the in-memory store.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// AuthConfig defines authentication parameters. A zero TokenTTL issues tokens
// without an expiry claim.
type AuthConfig struct {
	JWTSecret  string        `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	TokenTTL   time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"0s"`
	BcryptCost int           `env:"AUTH_BCRYPT_COST" envDefault:"12"`
}

// NotificationConfig selects the queue used for out-of-band notifications.
type NotificationConfig struct {
	QueueDriver string `env:"NOTIFY_QUEUE_DRIVER" envDefault:"memory"`
	QueueKey    string `env:"NOTIFY_QUEUE_KEY" envDefault:"eats:notifications"`
	QueueSize   int    `env:"NOTIFY_QUEUE_SIZE" envDefault:"128"`
}

// MailConfig configures the Mailgun gateway. Without an API key mails are only logged.
type MailConfig struct {
	APIKey  string        `env:"MAILGUN_API_KEY"`
	Domain  string        `env:"MAILGUN_DOMAIN"`
	BaseURL string        `env:"MAILGUN_BASE_URL" envDefault:"https://api.mailgun.net/v3"`
	From    string        `env:"MAIL_FROM" envDefault:"Nuber Eats <noreply@example.com>"`
	Timeout time.Duration `env:"MAIL_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Notification.QueueDriver {
	case QueueDriverMemory, QueueDriverRedis:
	default:
		return fmt.Errorf("invalid NOTIFY_QUEUE_DRIVER %q", c.Notification.QueueDriver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET must not be empty")
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL must not be negative")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}
