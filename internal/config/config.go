package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool

	HTTPHost string
	HTTPPort string
	GRPCHost string
	GRPCPort string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDatabase string

	KafkaHost  string
	KafkaPort  string
	KafkaTopic string
	KafkaGroup string

	RedisHost string
	RedisPort string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	JWTSecret          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	PwnedPasswordCheck bool

	ImageEndpoint  string
	ImageBucket    string
	ImagePublicURL string

	GeocoderURL      string
	GeocoderCacheTTL time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	BlockedWords []string

	SessionCleanupInterval time.Duration
	HealthCheckInterval    time.Duration

	VerificationURL  string
	PasswordResetURL string
}

// Load reads the configuration from the environment. When DEBUG=1 a local
// .env file is loaded first.
func Load() *Config {
	if os.Getenv("DEBUG") == "1" {
		godotenv.Load()
	}

	return &Config{
		Debug: os.Getenv("DEBUG") == "1",

		HTTPHost: env("HTTP_HOST", "0.0.0.0"),
		HTTPPort: env("HTTP_PORT", "8080"),
		GRPCHost: env("GRPC_HOST", "0.0.0.0"),
		GRPCPort: env("GRPC_PORT", "9090"),

		PostgresHost:     env("POSTGRES_HOST", "127.0.0.1"),
		PostgresPort:     env("POSTGRES_PORT", "5432"),
		PostgresUser:     env("POSTGRES_USER", "postgres"),
		PostgresPassword: env("POSTGRES_PASSWORD", "postgres"),
		PostgresDatabase: env("POSTGRES_DB", "postgres"),

		KafkaHost:  env("KAFKA_HOST", "127.0.0.1"),
		KafkaPort:  env("KAFKA_PORT", "9092"),
		KafkaTopic: env("KAFKA_TOPIC", "common"),
		KafkaGroup: env("KAFKA_GROUP", "common"),

		RedisHost: env("REDIS_HOST", "127.0.0.1"),
		RedisPort: env("REDIS_PORT", "6379"),

		SMTPHost:     env("SMTP_HOST", "127.0.0.1"),
		SMTPPort:     env("SMTP_PORT", "587"),
		SMTPUser:     env("SMTP_USER", "user"),
		SMTPPassword: env("SMTP_PASSWORD", "password"),
		MailFrom:     env("MAIL_FROM", "no-reply@geofeed.app"),

		JWTSecret:          env("JWT_SECRET", "123456"),
		AccessTokenTTL:     envDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    envDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		PwnedPasswordCheck: os.Getenv("PWNED_PASSWORD_CHECK") == "1",

		ImageEndpoint:  os.Getenv("S3_ENDPOINT"),
		ImageBucket:    env("IMAGE_BUCKET", "geofeed-images"),
		ImagePublicURL: env("IMAGE_PUBLIC_URL", "http://localhost:9000/geofeed-images"),

		GeocoderURL:      env("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderCacheTTL: envDuration("GEOCODER_CACHE_TTL", 7*24*time.Hour),

		RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 600),

		BlockedWords: envList("BLOCKED_WORDS"),

		SessionCleanupInterval: envDuration("SESSION_CLEANUP_INTERVAL", time.Hour),
		HealthCheckInterval:    envDuration("HEALTH_CHECK_INTERVAL", 10*time.Second),

		VerificationURL:  env("VERIFICATION_URL", "http://localhost:8080/auth/verify-email"),
		PasswordResetURL: env("PASSWORD_RESET_URL", "http://localhost:3000/reset-password"),
	}
}

func env(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func envFloat(key string, fallback float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

// envList splits a comma separated variable, dropping empty items.
func envList(key string) []string {
	var values []string
	for _, value := range strings.Split(os.Getenv(key), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			values = append(values, value)
		}
	}
	return values
}
