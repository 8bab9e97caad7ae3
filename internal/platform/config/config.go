package config

import (
	"os"
	"strings"
	"time"
)

// StoreBackend selects the registry store implementation.
type StoreBackend string

const (
	BackendMemory   StoreBackend = "memory"
	BackendPostgres StoreBackend = "postgres"
	BackendRedis    StoreBackend = "redis"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	StoreBackend  StoreBackend
	PostgresURL   string
	Redis         RedisConfig
	KafkaSeeds    []string
	KafkaTopic    string
	JWTSigningKey string
	// AdminTokenHash is the bcrypt hash of the bootstrap admin token.
	// Empty disables the admin surface entirely.
	AdminTokenHash string
	RateLimit      RateLimitConfig
}

// RedisConfig captures Redis client tuning.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RateLimitConfig bounds request rates on the public registry surface.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ATTESTRY_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	backend := StoreBackend(os.Getenv("ATTESTRY_STORE"))
	switch backend {
	case BackendPostgres, BackendRedis:
	default:
		backend = BackendMemory
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var seeds []string
	if raw := os.Getenv("KAFKA_SEEDS"); raw != "" {
		seeds = strings.Split(raw, ",")
	}
	topic := os.Getenv("KAFKA_ATTESTATION_TOPIC")
	if topic == "" {
		topic = "registry.attestations"
	}

	return Server{
		Addr:         addr,
		StoreBackend: backend,
		PostgresURL:  os.Getenv("POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		KafkaSeeds:     seeds,
		KafkaTopic:     topic,
		JWTSigningKey:  jwtSigningKey,
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
		RateLimit: RateLimitConfig{
			Limit:  120,
			Window: time.Minute,
		},
	}
}
