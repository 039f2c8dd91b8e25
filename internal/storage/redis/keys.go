package redis

import "fmt"

// Default key prefix for all session data
const defaultKeyPrefix = "bpair"

// sessionKey returns the Redis key for the session blob
func sessionKey(prefix string) string {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return fmt.Sprintf("%s:session", prefix)
}
