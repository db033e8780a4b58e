package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffConfig is the configured form of a retry policy, as it appears in
// config.yml under "backoff".
type BackoffConfig struct {
	Initial time.Duration `yaml:"initial" mapstructure:"initial" validate:"gte=0"`
	Max     time.Duration `yaml:"max" mapstructure:"max" validate:"gte=0"`
	Factor  float64       `yaml:"factor" mapstructure:"factor" validate:"gte=0"`
	Jitter  float64       `yaml:"jitter" mapstructure:"jitter" validate:"gte=0,lte=1"`
}

const (
	defaultInitial = 100 * time.Millisecond
	defaultMax     = 2 * time.Second
	defaultFactor  = 2.0
	defaultJitter  = 0.1
)

func (c *BackoffConfig) ApplyDefaults() {
	if c.Initial <= 0 {
		c.Initial = defaultInitial
	}
	if c.Max <= 0 {
		c.Max = defaultMax
	}
	if c.Factor <= 0 {
		c.Factor = defaultFactor
	}
	if c.Jitter == 0 {
		c.Jitter = defaultJitter
	}
}

// RetryConfig builds a policy from c. A maxAttempts of zero leaves the
// attempt count unbounded.
func (c BackoffConfig) RetryConfig(maxAttempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: c.Initial,
		MaxBackoff:     c.Max,
		BackoffFactor:  c.Factor,
		Jitter:         c.Jitter,
	}
}

// RetryConfig is a retry policy with exponential backoff.
type RetryConfig struct {
	// MaxAttempts counts the first call. Zero means unbounded.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	// Jitter spreads each delay by up to this fraction either way.
	Jitter float64
	// RetryIf reports whether err is worth another attempt. Nil retries
	// everything except context errors.
	RetryIf func(error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetryIf gives up on cancellation and expired deadlines.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *RetryConfig) fill() {
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultInitial
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = defaultFactor
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
}

// Delay returns the wait after the given failed attempt: InitialBackoff
// grown by BackoffFactor per attempt, jittered, capped at MaxBackoff.
func (c RetryConfig) Delay(attempt int) time.Duration {
	d := float64(c.InitialBackoff) * math.Pow(c.BackoffFactor, float64(attempt-1))
	if c.Jitter > 0 {
		d += d * c.Jitter * (rand.Float64()*2 - 1)
	}
	if d > float64(c.MaxBackoff) {
		d = float64(c.MaxBackoff)
	}
	if d <= 0 {
		d = float64(c.InitialBackoff)
	}
	return time.Duration(d)
}
