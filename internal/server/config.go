package server

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the server's environment-driven configuration.
type Config struct {
	Port string

	// InternalSharedSecret guards every endpoint except /health when
	// set.
	InternalSharedSecret string

	MaxJSONBodyBytes int64

	MaxConcurrentRequests int64

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	ExtractTimeout time.Duration
	BatchTimeout   time.Duration

	RateLimitEvery time.Duration
	RateLimitBurst int

	MaxHeaderBytes int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LoadConfig reads configuration from the environment with defaults.
func LoadConfig() Config {
	return Config{
		Port: envStr("PORT", "8080"),

		InternalSharedSecret: envStr("INTERNAL_SHARED_SECRET", ""),

		MaxJSONBodyBytes: int64(envInt("MAX_JSON_BODY_BYTES", 64<<20)),

		MaxConcurrentRequests: int64(envInt("MAX_CONCURRENT_REQUESTS", 15)),

		ReadHeaderTimeout: envDur("READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:       envDur("READ_TIMEOUT", 60*time.Second),
		WriteTimeout:      envDur("WRITE_TIMEOUT", 180*time.Second),
		IdleTimeout:       envDur("IDLE_TIMEOUT", 60*time.Second),

		ExtractTimeout: envDur("EXTRACT_TIMEOUT", 120*time.Second),
		BatchTimeout:   envDur("BATCH_TIMEOUT", 600*time.Second),

		RateLimitEvery: envDur("RATE_LIMIT_EVERY", 600*time.Millisecond),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 20),

		MaxHeaderBytes: envInt("MAX_HEADER_BYTES", 1<<20),

		RedisAddr:     envStr("REDIS_ADDR", ""),
		RedisPassword: envStr("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),
	}
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
