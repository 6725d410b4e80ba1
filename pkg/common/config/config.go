package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64
	RateLimitRPS   int
	RateLimitBurst int

	// Database
	PersistenceEnabled bool
	PostgresHost       string
	PostgresPort       string
	PostgresUser       string
	PostgresPassword   string
	PostgresDB         string
	PostgresSSLMode    string

	// Redis
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	ResultCacheTTL time.Duration

	// Kafka
	KafkaBrokers    []string
	AssessmentTopic string

	// Scoring
	CalibrationFile     string
	PrescriptionVariant string

	// Stay prediction collaborator
	StayPredictionURL     string
	StayPredictionTimeout time.Duration
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8090"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),
		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),

		PersistenceEnabled: getBoolEnv("PERSISTENCE_ENABLED", false),
		PostgresHost:       getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:       getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:       getEnv("POSTGRES_USER", "synaptica"),
		PostgresPassword:   getEnv("POSTGRES_PASSWORD", "synaptica123"),
		PostgresDB:         getEnv("POSTGRES_DB", "synaptica"),
		PostgresSSLMode:    getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:      getEnv("REDIS_HOST", ""),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getIntEnv("REDIS_DB", 0),
		ResultCacheTTL: getDuration("RESULT_CACHE_TTL", 10*time.Minute),

		KafkaBrokers:    getStringSliceEnv("KAFKA_BROKERS", nil),
		AssessmentTopic: getEnv("ASSESSMENT_TOPIC", "risk.assessed"),

		CalibrationFile:     getEnv("CALIBRATION_FILE", ""),
		PrescriptionVariant: getEnv("PRESCRIPTION_VARIANT", "anthropometric"),

		StayPredictionURL:     getEnv("STAY_PREDICTION_URL", ""),
		StayPredictionTimeout: getDuration("STAY_PREDICTION_TIMEOUT", 2*time.Second),
	}
}

// CacheEnabled reports whether a Redis host was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisHost != "" && c.ResultCacheTTL > 0
}

// EventsEnabled reports whether any Kafka broker was configured.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
