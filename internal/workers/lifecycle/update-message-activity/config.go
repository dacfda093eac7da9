// internal/workers/lifecycle/update-message-activity/config.go
package updatemessageactivity

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
