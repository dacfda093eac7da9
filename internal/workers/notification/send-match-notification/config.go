// internal/workers/notification/send-match-notification/config.go
package sendmatchnotification

import "time"

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	AWSRegion    string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		EmailEnabled: true,
		SMSEnabled:   false,
		FromEmail:    "matches@foundingcircle.io",
		AWSRegion:    "us-east-1",
	}
}
