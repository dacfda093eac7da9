// internal/workers/data-access/index-match-analytics/config.go
package indexmatchanalytics

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
		Index:   "match-analytics",
	}
}
