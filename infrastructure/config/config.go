package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration, loaded from the environment.
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion      string
	DynamoDBTable  string
	GSI1IndexName  string // GSI1 - user/email scoped lookups
	GSI2IndexName  string // GSI2 - job status index
	EventBusName   string
	MetricsEnabled bool

	// Worker configuration
	WorkerID           string
	WorkerPollInterval time.Duration
	WorkerBatchSize    int
	StaleJobDeadline   time.Duration

	// LLM configuration
	LLMModel        string
	LLMParamPrefix  string // SSM parameter prefix holding the API key
	LLMBaseURL      string
	LLMTimeout      time.Duration

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		AWSRegion:      getEnv("AWS_REGION", "ap-northeast-2"),
		DynamoDBTable:  getEnv("DYNAMODB_TABLE", "algoitny"),
		GSI1IndexName:  getEnv("GSI1_INDEX_NAME", "GSI1"),
		GSI2IndexName:  getEnv("GSI2_INDEX_NAME", "JobStatusIndex"),
		EventBusName:   getEnv("EVENT_BUS_NAME", "algoitny-events"),
		MetricsEnabled: getEnvBool("ENABLE_METRICS", false),

		WorkerID:           getEnv("WORKER_ID", hostnameOrDefault("worker")),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		WorkerBatchSize:    getEnvInt("WORKER_BATCH_SIZE", 5),
		StaleJobDeadline:   getEnvDuration("STALE_JOB_DEADLINE", 15*time.Minute),

		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMParamPrefix: getEnv("LLM_PARAM_PREFIX", "/algoitny/prod"),
		LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT", 120*time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "algoitny-backend"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}
	if c.WorkerBatchSize <= 0 {
		return fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}
	return nil
}

// IsDevelopment checks if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func hostnameOrDefault(def string) string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return def
}
