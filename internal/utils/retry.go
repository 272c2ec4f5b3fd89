package utils

import (
	"fmt"
	"time"

	"asset-service/internal/logging"
)

// Retry runs fn up to maxAttempts times, sleeping delay between failures.
// Intermediate failures are logged as warnings; the last error is wrapped
// so callers can still unwrap the cause.
func Retry(logger *logging.Logger, maxAttempts int, delay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		logger.Warnf("Attempt %d/%d failed: %v", attempt, maxAttempts, lastErr)
		if attempt < maxAttempts {
			time.Sleep(delay)
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
}
