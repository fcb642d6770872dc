// Package config holds the environment-bound configuration for the dedup jobs.
package config

import (
	"fmt"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName        string `env:"APP_NAME" env-default:"zlv-dedup"`
	LogLevel       string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs     bool   `env:"PRETTY_LOGS" env-default:"false"`
	TracingEnabled bool   `env:"TRACING_ENABLED" env-default:"false"`

	// PostgreSQL
	DatabaseDriver          string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost            string        `env:"DB_HOST" env-default:"localhost"`
	DatabasePort            string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName        string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword        string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName            string        `env:"DB_NAME" env-default:"zlv"`
	DatabaseSSLMode         string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	DatabaseMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	DatabaseConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`

	// Matching thresholds. Review must stay strictly below match so that the
	// review band [review, match) and the match band [match, 1] partition the
	// score range.
	ReviewThreshold float64 `env:"REVIEW_THRESHOLD" env-default:"0.70" validate:"gte=0,lte=1"`
	MatchThreshold  float64 `env:"MATCH_THRESHOLD" env-default:"0.85" validate:"gte=0,lte=1"`

	// Run behavior
	Commit    bool   `env:"COMMIT" env-default:"false"`
	OutputDir string `env:"OUTPUT_DIR" env-default:"."`

	// Redis run lock (optional)
	RedisEnabled    bool          `env:"REDIS_ENABLED" env-default:"false"`
	RedisHost       string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort       int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword   string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB         int           `env:"REDIS_DB" env-default:"0"`
	RunLockTTL      time.Duration `env:"RUN_LOCK_TTL" env-default:"2h"`
	RunLockWaitTime time.Duration `env:"RUN_LOCK_WAIT_TIME" env-default:"10s"`

	// Kafka merge events (optional)
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"merge-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`
}

// Load binds the environment (after best-effort .env loading) and validates
// the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to bind environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the threshold invariants.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.ReviewThreshold >= c.MatchThreshold {
		return fmt.Errorf("REVIEW_THRESHOLD (%f) must be below MATCH_THRESHOLD (%f)", c.ReviewThreshold, c.MatchThreshold)
	}
	return nil
}

// DSN builds the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost, c.DatabasePort, c.DatabaseUserName, c.DatabasePassword, c.DatabaseName, c.DatabaseSSLMode,
	)
}
