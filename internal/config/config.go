package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type HTTP struct {
	Host string `validate:"required,hostname|ip"`
	Port string `validate:"required,gt=0,lte=65535"`
}

type Postgres struct {
	Host     string `validate:"required,hostname|ip"`
	Port     int    `validate:"required,gt=0,lte=65535"`
	DBName   string `validate:"required"`
	User     string `validate:"required"`
	Password string `validate:"required"`

	SSLMode string `validate:"required,oneof=disable require verify-ca verify-full"`

	MaxOpenConns    int           `validate:"gte=1"`
	MaxIdleConns    int           `validate:"gte=0"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`
}

type CORS struct {
	AllowedOrigins []string `validate:"required,min=1,dive,url"`
}

// Shipping holds the downstream client settings of the self-service side.
type Shipping struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`

	RetryMaxAttempts  int           `validate:"gte=1"`
	RetryInitialDelay time.Duration `validate:"gt=0"`
	RetryMaxDelay     time.Duration `validate:"gte=0"`

	BreakerWindowSize       int           `validate:"gte=1"`
	BreakerMinCalls         int           `validate:"gte=1"`
	BreakerFailureThreshold float64       `validate:"gt=0,lte=1"`
	BreakerCooldown         time.Duration `validate:"gt=0"`
	BreakerTrialCalls       int           `validate:"gte=1"`
}

type RateLimit struct {
	RPS   float64 `validate:"gt=0"`
	Burst int     `validate:"gte=1"`
}

type Kafka struct {
	GroupID string   `validate:"required"`
	Brokers []string `validate:"required,min=1,dive,hostname_port"`
	Topic   string   `validate:"required"`

	ReaderMaxWait time.Duration `validate:"gte=0"`
	BatchTimeout  time.Duration `validate:"gte=0"`
}

// SelfService is the configuration of the package self-service binary.
type SelfService struct {
	Env  string `validate:"required,oneof=development stage production"`
	HTTP HTTP

	Cors      CORS      `validate:"required"`
	Postgres  Postgres  `validate:"required"`
	Shipping  Shipping  `validate:"required"`
	RateLimit RateLimit `validate:"required"`

	EnrichConcurrency int           `validate:"gte=1"`
	ReconcileSchedule string        `validate:"required"`
	PersistRetryDelay time.Duration `validate:"gt=0"`
}

// ShippingService is the configuration of the package shipping binary.
type ShippingService struct {
	Env  string `validate:"required,oneof=development stage production"`
	HTTP HTTP

	Postgres Postgres `validate:"required"`
	Kafka    Kafka    `validate:"required"`
}

func NewSelfService() SelfService {
	return SelfService{
		Env: env("ENV", "development"),

		HTTP: HTTP{
			Host: env("HOST", "localhost"),
			Port: env("PORT", "8080"),
		},

		Cors: CORS{
			AllowedOrigins: strings.Split(env("ALLOWED_CORS_ORIGINS", "http://localhost:3000"), ","),
		},

		Postgres: newPostgres("selfservice"),

		Shipping: Shipping{
			BaseURL: env("SHIPPING_BASE_URL", "http://localhost:8081"),
			Timeout: envDuration("SHIPPING_TIMEOUT", 5*time.Second),

			RetryMaxAttempts:  envInt("SHIPPING_RETRY_MAX_ATTEMPTS", 3),
			RetryInitialDelay: envDuration("SHIPPING_RETRY_INITIAL_DELAY", 100*time.Millisecond),
			RetryMaxDelay:     envDuration("SHIPPING_RETRY_MAX_DELAY", 2*time.Second),

			BreakerWindowSize:       envInt("SHIPPING_BREAKER_WINDOW_SIZE", 10),
			BreakerMinCalls:         envInt("SHIPPING_BREAKER_MIN_CALLS", 5),
			BreakerFailureThreshold: envFloat("SHIPPING_BREAKER_FAILURE_THRESHOLD", 0.5),
			BreakerCooldown:         envDuration("SHIPPING_BREAKER_COOLDOWN", 30*time.Second),
			BreakerTrialCalls:       envInt("SHIPPING_BREAKER_TRIAL_CALLS", 2),
		},

		RateLimit: RateLimit{
			RPS:   envFloat("RATE_LIMIT_RPS", 50),
			Burst: envInt("RATE_LIMIT_BURST", 100),
		},

		EnrichConcurrency: envInt("ENRICH_CONCURRENCY", 8),
		ReconcileSchedule: env("RECONCILE_SCHEDULE", "@every 1m"),
		PersistRetryDelay: envDuration("PERSIST_RETRY_DELAY", 100*time.Millisecond),
	}
}

func NewShippingService() ShippingService {
	return ShippingService{
		Env: env("ENV", "development"),

		HTTP: HTTP{
			Host: env("HOST", "localhost"),
			Port: env("PORT", "8081"),
		},

		Postgres: newPostgres("shipping"),

		Kafka: Kafka{
			GroupID: env("KAFKA_GROUP_ID", "package-shipping-service"),
			Topic:   env("KAFKA_TOPIC", "shipping-status"),
			Brokers: strings.Split(env("KAFKA_BROKERS", "localhost:9092"), ","),

			ReaderMaxWait: envDuration("KAFKA_READER_MAX_WAIT", 10*time.Millisecond),
			BatchTimeout:  envDuration("KAFKA_BATCH_TIMEOUT", 10*time.Millisecond),
		},
	}
}

func newPostgres(defaultDB string) Postgres {
	return Postgres{
		Port:     envInt("POSTGRES_PORT", 5432),
		Host:     env("POSTGRES_HOST", "localhost"),
		DBName:   env("POSTGRES_DB", defaultDB),
		User:     env("POSTGRES_USER", ""),
		Password: env("POSTGRES_PASSWORD", ""),

		SSLMode: env("POSTGRES_SSL_MODE", "disable"),

		MaxOpenConns:    envInt("POSTGRES_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    envInt("POSTGRES_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: envDuration("POSTGRES_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

func (c SelfService) Validate() error {
	return validator.New().Struct(c)
}

func (c ShippingService) Validate() error {
	return validator.New().Struct(c)
}

func env(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}
