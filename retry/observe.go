package retry

import (
	"log/slog"
	"time"

	"github.com/amp-labs/amp-toolkit/logger"
)

// LogRetries returns an OnRetryFunc that writes one warning per retry to log,
// or to the default logger when log is nil.
//
// Example:
//
//	err := retry.Do(ctx, operation, retry.WithOnRetry(retry.LogRetries(logger.Get(ctx))))
func LogRetries(log *slog.Logger) OnRetryFunc {
	if log == nil {
		log = logger.Get()
	}

	return func(err error, attempt uint, next time.Duration) {
		log.Warn("operation failed, retrying",
			"attempt", attempt,
			"next_delay", next,
			"error", err)
	}
}

// ChainOnRetry returns an OnRetryFunc that calls each observer in order.
// Nil observers are skipped.
func ChainOnRetry(observers ...OnRetryFunc) OnRetryFunc {
	return func(err error, attempt uint, next time.Duration) {
		for _, observe := range observers {
			if observe != nil {
				observe(err, attempt, next)
			}
		}
	}
}
