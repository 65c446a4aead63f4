// internal/workers/matching/match-programs/config.go
package matchprograms

import "time"

type Config struct {
	Timeout       time.Duration
	MaxJobsActive int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       60 * time.Second,
		MaxJobsActive: 5,
	}
}
