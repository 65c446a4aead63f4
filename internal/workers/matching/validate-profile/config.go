// internal/workers/matching/validate-profile/config.go
package validateprofile

import "time"

type Config struct {
	Timeout       time.Duration
	MaxJobsActive int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		MaxJobsActive: 10,
	}
}
