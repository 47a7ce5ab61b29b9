package watch

import (
	"fmt"
	"time"
)

const (
	DefaultPollInterval = 250 * time.Millisecond
	DefaultTimeoutPolls = 12
	DefaultMaxRetries   = 3
)

// Config defines poll cadence and the resend budget.
type Config struct {
	PollInterval time.Duration
	// TimeoutPolls is the number of unanswered polls after which the command is resent.
	TimeoutPolls int
	// MaxRetries is the number of resends before giving up. Zero disables resends.
	MaxRetries int
}

func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
		TimeoutPolls: DefaultTimeoutPolls,
		MaxRetries:   DefaultMaxRetries,
	}
}

// WithDefaults fills unset fields. A negative MaxRetries is treated as unset.
func (c Config) WithDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.TimeoutPolls <= 0 {
		c.TimeoutPolls = DefaultTimeoutPolls
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	return c
}

func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	}
	if c.TimeoutPolls <= 0 {
		return fmt.Errorf("%w: timeout polls must be positive", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must not be negative", ErrInvalidConfig)
	}
	return nil
}

// AttemptTimeout is how long one send waits before a resend.
func (c Config) AttemptTimeout() time.Duration {
	return time.Duration(c.TimeoutPolls) * c.PollInterval
}

// GiveUpAfter is the worst-case latency from the first send to the no-response outcome.
func (c Config) GiveUpAfter() time.Duration {
	return c.AttemptTimeout() * time.Duration(c.MaxRetries+1)
}
