package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// KeyPrefix namespaces the session key, so several venues can share one server
	KeyPrefix string

	// SessionTTL expires an untouched session; zero keeps it forever
	SessionTTL time.Duration

	// ConnectTimeout bounds the startup ping
	ConnectTimeout time.Duration
}

// DefaultConfig returns the configuration for a local Redis
func DefaultConfig() Config {
	return Config{
		URL:            "redis://localhost:6379",
		PoolSize:       10,
		MinIdleConns:   2,
		KeyPrefix:      defaultKeyPrefix,
		SessionTTL:     0,
		ConnectTimeout: 5 * time.Second,
	}
}
