// internal/workers/lifecycle/complete-trial/config.go
package completetrial

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
