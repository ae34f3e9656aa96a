package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the runtime configuration, loaded from the environment.
type Config struct {
	Port      int
	LogLevel  string
	Env       string
	DB        DBConfig
	Kafka     KafkaConfig
	Outbox    OutboxConfig
	RateLimit RateLimitConfig
	// SweepInterval controls how often issued invoices past their due date
	// are marked overdue.
	SweepInterval time.Duration
}

// DBConfig holds the database configuration
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// KafkaConfig holds the Kafka configuration
type KafkaConfig struct {
	Brokers       []string
	EventsTopic   string
	ConsumerGroup string
}

// OutboxConfig holds the outbox relay configuration
type OutboxConfig struct {
	PollingInterval time.Duration
	BatchSize       int
	MaxRetries      int
}

// RateLimitConfig holds the HTTP rate limiter configuration
type RateLimitConfig struct {
	MaxTokens  float64
	RefillRate float64
}

// getEnv retrieves the value of an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, strconv.Itoa(defaultValue))
	value, err := strconv.Atoi(raw)

	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return value, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, strconv.FormatFloat(defaultValue, 'f', -1, 64))
	value, err := strconv.ParseFloat(raw, 64)

	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return value, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, defaultValue.String())
	value, err := time.ParseDuration(raw)

	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return value, nil
}

// Load reads the configuration from environment variables and returns a Config struct.
func Load() (*Config, error) {
	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}

	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	outboxInterval, err := getEnvDuration("OUTBOX_POLL_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}

	outboxBatch, err := getEnvInt("OUTBOX_BATCH_SIZE", 10)
	if err != nil {
		return nil, err
	}

	outboxRetries, err := getEnvInt("OUTBOX_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}

	sweepInterval, err := getEnvDuration("OVERDUE_SWEEP_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}

	rateLimitTokens, err := getEnvFloat("RATE_LIMIT_MAX_TOKENS", 100)
	if err != nil {
		return nil, err
	}

	rateLimitRefill, err := getEnvFloat("RATE_LIMIT_REFILL_RATE", 50)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:     port,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Env:      getEnv("APP_ENV", "development"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "orderflow"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			EventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "fulfillment.events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "orderflow"),
		},
		Outbox: OutboxConfig{
			PollingInterval: outboxInterval,
			BatchSize:       outboxBatch,
			MaxRetries:      outboxRetries,
		},
		RateLimit: RateLimitConfig{
			MaxTokens:  rateLimitTokens,
			RefillRate: rateLimitRefill,
		},
		SweepInterval: sweepInterval,
	}, nil
}

// GetDBConnString returns the database connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}
