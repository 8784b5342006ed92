package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort        string
	ServerHost        string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	MaxRequestBody    int64
	CORSAllowedOrigin string
	RateLimitRPS      int
	RateLimitBurst    int

	// Model
	ModelArtifactDir   string
	ModelVersion       string
	FeatureCatalogPath string

	// Database
	PostgresHost         string
	PostgresPort         string
	PostgresUser         string
	PostgresPassword     string
	PostgresDB           string
	PostgresSSLMode      string
	PredictionLogEnabled bool

	// Redis
	RedisHost              string
	RedisPort              string
	RedisPassword          string
	RedisDB                int
	AssessmentCacheEnabled bool
	AssessmentCacheTTL     time.Duration

	// Kafka
	KafkaEnabled          bool
	KafkaBrokers          []string
	KafkaGroupID          string
	KafkaRecordsTopic     string
	KafkaAssessmentsTopic string

	// Auth
	OIDCIssuer         string
	OIDCClientID       string
	OIDCClientSecret   string
	ServiceTokenSecret string
	ServiceTokenIssuer string
	ServiceTokenAud    string
}

func Load() *Config {
	return &Config{
		ServerPort:        getEnv("SERVING_PORT", "5000"),
		ServerHost:        getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:       getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:      getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody:    int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
		RateLimitRPS:      getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst:    getIntEnv("RATE_LIMIT_BURST", 100),

		ModelArtifactDir:   getEnv("MODEL_ARTIFACT_DIR", "./artifacts"),
		ModelVersion:       getEnv("MODEL_VERSION", ""),
		FeatureCatalogPath: getEnv("FEATURE_CATALOG_PATH", ""),

		PostgresHost:         getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:         getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:         getEnv("POSTGRES_USER", "cardio"),
		PostgresPassword:     getEnv("POSTGRES_PASSWORD", "cardio123"),
		PostgresDB:           getEnv("POSTGRES_DB", "cardio"),
		PostgresSSLMode:      getEnv("POSTGRES_SSLMODE", "disable"),
		PredictionLogEnabled: getBoolEnv("PREDICTION_LOG_ENABLED", false),

		RedisHost:              getEnv("REDIS_HOST", "localhost"),
		RedisPort:              getEnv("REDIS_PORT", "6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getIntEnv("REDIS_DB", 0),
		AssessmentCacheEnabled: getBoolEnv("ASSESSMENT_CACHE_ENABLED", false),
		AssessmentCacheTTL:     getDuration("ASSESSMENT_CACHE_TTL", 24*time.Hour),

		KafkaEnabled:          getBoolEnv("KAFKA_ENABLED", false),
		KafkaBrokers:          getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:          getEnv("KAFKA_GROUP_ID", "cardio-scoring"),
		KafkaRecordsTopic:     getEnv("KAFKA_RECORDS_TOPIC", "patient-records"),
		KafkaAssessmentsTopic: getEnv("KAFKA_ASSESSMENTS_TOPIC", "risk-assessments"),

		OIDCIssuer:         getEnv("OIDC_ISSUER", ""),
		OIDCClientID:       getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:   getEnv("OIDC_CLIENT_SECRET", ""),
		ServiceTokenSecret: getEnv("SERVICE_TOKEN_SECRET", ""),
		ServiceTokenIssuer: getEnv("SERVICE_TOKEN_ISSUER", "cardio-platform"),
		ServiceTokenAud:    getEnv("SERVICE_TOKEN_AUDIENCE", "cardio-serving"),
	}
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
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
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
