// internal/workers/matching/generate-matches/config.go
package generatematches

import "time"

type Config struct {
	Timeout time.Duration

	// ScoreThreshold is exclusive: only matches scoring strictly above it
	// are persisted.
	ScoreThreshold int

	CatalogCacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		ScoreThreshold:  30,
		CatalogCacheTTL: 5 * time.Minute,
	}
}
