package retry

import "time"

const (
	defaultMaxRetries    = 3
	defaultInitialDelay  = time.Second
	defaultMaxDelay      = 30 * time.Second
	defaultBackoffFactor = 2.0

	// DefaultTimeoutMessage is the message of a TimeoutError built without one.
	DefaultTimeoutMessage = "operation timed out"
)

// OnRetryFunc observes a failed attempt right before the engine waits.
// next is the delay about to be slept.
type OnRetryFunc func(err error, attempt uint, next time.Duration)

// ShouldRetryFunc decides whether the failure of the given attempt may be retried.
type ShouldRetryFunc func(err error, attempt uint) bool

// Config is the resolved configuration of one retry session. It is built by
// Resolve from a list of options and is never modified by the engine.
//
// The serializable fields carry yaml/json tags so a Config can be loaded
// with ParseConfig; callbacks, custom backoff and budget can only be set in code.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries uint `json:"max_retries" yaml:"max_retries"`
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"`
	// MaxDelay caps the delay growth.
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`
	// BackoffFactor multiplies the delay after each failed attempt.
	BackoffFactor float64 `json:"backoff_factor" yaml:"backoff_factor"`
	// Timeout bounds a single attempt. Zero means no bound.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	// TimeoutMessage is the message of the TimeoutError for a timed out attempt.
	TimeoutMessage string `json:"timeout_message" yaml:"timeout_message"`
	// Jitter randomizes delays. Zero or negative disables it.
	Jitter Jitter `json:"jitter" yaml:"jitter"`
	// Concurrency limits how many sessions a combinator runs at once. Zero runs them all.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	OnRetry     OnRetryFunc     `json:"-" yaml:"-"`
	ShouldRetry ShouldRetryFunc `json:"-" yaml:"-"`
	Backoff     Backoff         `json:"-" yaml:"-"`
	Budget      *Budget         `json:"-" yaml:"-"`
}

// DefaultConfig returns the configuration used when no options are given:
// 3 retries, 1s initial delay doubling up to 30s, no timeout, no jitter.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     defaultMaxRetries,
		InitialDelay:   defaultInitialDelay,
		MaxDelay:       defaultMaxDelay,
		BackoffFactor:  defaultBackoffFactor,
		TimeoutMessage: DefaultTimeoutMessage,
	}
}

// Resolve applies opts in order over DefaultConfig. A later option replaces
// whatever an earlier one set for the same field, which is how presets and
// per-call overrides merge.
func Resolve(opts ...Option) Config {
	cfg := DefaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// backoff returns the custom Backoff, or the exponential one the numeric
// fields describe.
func (c Config) backoff() Backoff {
	if c.Backoff != nil {
		return c.Backoff
	}

	return ExpBackoff{
		Base:   c.InitialDelay,
		Max:    c.MaxDelay,
		Factor: c.BackoffFactor,
	}
}

// Option is a function that configures a retry session.
// Options follow the functional options pattern for flexible configuration.
type Option func(*Config)

// WithConfig replaces the whole configuration with cfg. Options given after
// it still override individual fields.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithMaxRetries sets how many retries follow the initial attempt.
// Zero means exactly one attempt.
//
// Example:
//
//	err := retry.Do(ctx, operation, retry.WithMaxRetries(5))
func WithMaxRetries(n uint) Option {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		c.InitialDelay = d
	}
}

// WithMaxDelay caps the delay between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = d
	}
}

// WithBackoffFactor sets the multiplier applied to the delay after each failure.
// Factors below 1 shrink the delay.
func WithBackoffFactor(f float64) Option {
	return func(c *Config) {
		c.BackoffFactor = f
	}
}

// WithOnRetry registers an observer that runs before each wait.
//
// Example:
//
//	retry.WithOnRetry(func(err error, attempt uint, next time.Duration) {
//	    log.Printf("attempt %d failed (%v), retrying in %s", attempt, err, next)
//	})
func WithOnRetry(f OnRetryFunc) Option {
	return func(c *Config) {
		c.OnRetry = f
	}
}

// WithShouldRetry registers a predicate deciding whether a failure is retryable.
//
// Example:
//
//	retry.WithShouldRetry(func(err error, _ uint) bool {
//	    return !errors.Is(err, ErrNotFound)
//	})
func WithShouldRetry(f ShouldRetryFunc) Option {
	return func(c *Config) {
		c.ShouldRetry = f
	}
}

// WithTimeout bounds each individual attempt. An attempt that runs longer fails
// with a *TimeoutError, which is retried like any other failure. The next
// attempt does not start until the timed out operation has returned.
//
// Example:
//
//	err := retry.Do(ctx, operation, retry.WithTimeout(30*time.Second))
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithTimeoutMessage sets the message of the TimeoutError for timed out attempts.
func WithTimeoutMessage(msg string) Option {
	return func(c *Config) {
		c.TimeoutMessage = msg
	}
}

// WithJitter configures the jitter strategy for randomizing retry delays.
// Jitter helps prevent thundering herd problems.
//
// Example:
//
//	err := retry.Do(ctx, operation, retry.WithJitter(retry.FullJitter))
func WithJitter(j Jitter) Option {
	return func(c *Config) {
		c.Jitter = j
	}
}

// WithBackoff replaces the exponential delay schedule with a custom one.
// InitialDelay, MaxDelay and BackoffFactor are ignored while it is set.
//
// Example:
//
//	backoff := retry.ExpBackoff{
//	    Base:   100 * time.Millisecond,
//	    Max:    10 * time.Second,
//	    Factor: 2.0,
//	}
//	err := retry.Do(ctx, operation, retry.WithBackoff(backoff))
func WithBackoff(b Backoff) Option {
	return func(c *Config) {
		c.Backoff = b
	}
}

// WithBudget configures a retry budget to prevent cascading failures.
// The budget limits retries when the system is under heavy load.
//
// Example:
//
//	budget := &retry.Budget{
//	    Rate:  10.0,  // Enforce budget when > 10 req/sec
//	    Ratio: 0.1,   // Allow up to 10% retries
//	}
//	err := retry.Do(ctx, operation, retry.WithBudget(budget))
func WithBudget(budget *Budget) Option {
	return func(c *Config) {
		c.Budget = budget
	}
}

// WithConcurrency limits how many sessions All, Race and AllSettled run at
// the same time. Zero or negative runs every session at once.
func WithConcurrency(n int) Option {
	return func(c *Config) {
		c.Concurrency = n
	}
}
