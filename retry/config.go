package retry

import (
	"errors"
	"fmt"
	"math"

	amperrors "github.com/amp-labs/amp-toolkit/errors"
	"github.com/amp-labs/amp-toolkit/envutil"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded configuration is not usable.
var ErrInvalidConfig = errors.New("invalid retry configuration")

// ParseConfig decodes a YAML (or JSON) document over DefaultConfig. Keys that
// are absent keep their defaults. Durations use Go syntax, e.g. "250ms".
//
// Example document:
//
//	max_retries: 5
//	initial_delay: 250ms
//	max_delay: 10s
//	backoff_factor: 1.5
//	timeout: 2s
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// FromEnv reads a configuration from environment variables named
// <prefix>_MAX_RETRIES, <prefix>_INITIAL_DELAY, <prefix>_MAX_DELAY,
// <prefix>_BACKOFF_FACTOR, <prefix>_TIMEOUT and <prefix>_TIMEOUT_MESSAGE.
// Unset variables keep their defaults. Every malformed variable is reported.
func FromEnv(prefix string) (Config, error) {
	cfg := DefaultConfig()

	key := func(name string) string {
		if prefix == "" {
			return name
		}

		return prefix + "_" + name
	}

	var errs amperrors.Collection

	readInto(&errs, envutil.Uint(key("MAX_RETRIES"), envutil.Default(cfg.MaxRetries)), &cfg.MaxRetries)
	readInto(&errs, envutil.Duration(key("INITIAL_DELAY"), envutil.Default(cfg.InitialDelay)), &cfg.InitialDelay)
	readInto(&errs, envutil.Duration(key("MAX_DELAY"), envutil.Default(cfg.MaxDelay)), &cfg.MaxDelay)
	readInto(&errs, envutil.Float64(key("BACKOFF_FACTOR"), envutil.Default(cfg.BackoffFactor)), &cfg.BackoffFactor)
	readInto(&errs, envutil.Duration(key("TIMEOUT"), envutil.Default(cfg.Timeout)), &cfg.Timeout)
	readInto(&errs, envutil.String(key("TIMEOUT_MESSAGE"), envutil.Default(cfg.TimeoutMessage)), &cfg.TimeoutMessage)

	if errs.HasError() {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, errs.GetError())
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Options turns a resolved Config back into options, so a loaded
// configuration can seed a Runner and still accept per-call overrides.
//
// Example:
//
//	cfg, err := retry.FromEnv("HTTP_RETRY")
//	runner := retry.NewRunner(cfg.Options()...)
func (c Config) Options() []Option {
	return []Option{WithConfig(c)}
}

func readInto[T any](errs *amperrors.Collection, rdr envutil.Reader[T], dst *T) {
	value, err := rdr.Value()
	if err != nil {
		errs.Add(err)

		return
	}

	*dst = value
}

// Validate reports fields that make no sense: negative durations or
// concurrency, and a backoff factor that is not a positive finite number.
func (c Config) Validate() error {
	var errs amperrors.Collection

	if c.InitialDelay < 0 {
		errs.Add(fmt.Errorf("initial_delay must not be negative, got %s", c.InitialDelay))
	}

	if c.MaxDelay < 0 {
		errs.Add(fmt.Errorf("max_delay must not be negative, got %s", c.MaxDelay))
	}

	if c.Timeout < 0 {
		errs.Add(fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}

	if !(c.BackoffFactor > 0) || math.IsInf(c.BackoffFactor, 0) {
		errs.Add(fmt.Errorf("backoff_factor must be positive, got %v", c.BackoffFactor))
	}

	if c.Concurrency < 0 {
		errs.Add(fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}

	if errs.HasError() {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs.GetError())
	}

	return nil
}
