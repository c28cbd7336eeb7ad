// internal/workers/matching/get-matches/config.go
package getmatches

import "time"

// No per-worker config needed, but struct provided for consistency
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
