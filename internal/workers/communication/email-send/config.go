package emailsend

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	// Persist writes an emails row for every sent message.
	Persist        bool   `mapstructure:"persist"`
	DefaultReplyTo string `mapstructure:"default_reply_to"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		Persist:       true,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.DefaultReplyTo != "" && !isValidEmail(c.DefaultReplyTo) {
		return fmt.Errorf("default_reply_to is not a valid email address")
	}
	return nil
}
