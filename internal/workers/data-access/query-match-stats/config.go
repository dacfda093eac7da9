// internal/workers/data-access/query-match-stats/config.go
package querymatchstats

import "time"

type Config struct {
	Timeout           time.Duration
	SuccessStoryLimit int
	DefaultSinceDays  int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:           15 * time.Second,
		SuccessStoryLimit: 10,
		DefaultSinceDays:  30,
	}
}
