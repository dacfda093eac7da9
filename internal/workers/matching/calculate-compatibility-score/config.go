// internal/workers/matching/calculate-compatibility-score/config.go
package calculatecompatibilityscore

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
