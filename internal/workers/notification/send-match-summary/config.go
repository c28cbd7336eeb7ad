package sendmatchsummary

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
		FromEmail:    "noreply@scholarships.example.com",
		AWSRegion:    "us-east-1",
	}
}
