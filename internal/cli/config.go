package cli

import (
	"os"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("BPAIR_SERVER", "http://localhost:8080"),
		Output:    getEnvOrDefault("BPAIR_OUTPUT", "text"),
		Verbose:   false,
	}
}

// Validate checks the output format
func (c *Config) Validate() error {
	switch c.Output {
	case "text", "json":
		return nil
	default:
		return &UsageError{Message: "--output must be text or json"}
	}
}

// UsageError is a bad flag or argument detected before any request is sent
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
