// internal/workers/catalog/search-scholarships/config.go
package searchscholarships

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Index:   "scholarships",
	}
}
