package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy defines retry behavior for failed operations
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy is three attempts with a fixed two second wait.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second}
}

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

func contextWait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ErrorRecoveryManager retries transient failures with a fixed backoff.
type ErrorRecoveryManager struct {
	logger *logrus.Logger
	policy RetryPolicy
	wait   WaitFunc
}

// NewErrorRecoveryManager creates a new error recovery manager
func NewErrorRecoveryManager(logger *logrus.Logger, policy RetryPolicy) *ErrorRecoveryManager {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Backoff < 0 {
		policy.Backoff = 0
	}
	return &ErrorRecoveryManager{
		logger: logger,
		policy: policy,
		wait:   contextWait,
	}
}

// Policy returns the active retry policy.
func (erm *ErrorRecoveryManager) Policy() RetryPolicy {
	return erm.policy
}

// ExecuteWithRetry runs operation until it succeeds, fails permanently, the
// attempts are exhausted or ctx is cancelled. It returns the number of
// attempts made and the last error.
func (erm *ErrorRecoveryManager) ExecuteWithRetry(
	ctx context.Context,
	operationName string,
	fields logrus.Fields,
	operation func(ctx context.Context) error,
) (int, error) {
	start := time.Now()
	var lastErr error

	attempt := 0
	for attempt < erm.policy.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return attempt, err
		}

		attempt++
		err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				erm.logger.WithFields(fields).WithFields(logrus.Fields{
					"operation": operationName,
					"attempts":  attempt,
					"duration":  time.Since(start),
				}).Info("Operation recovered after retry")
			}
			return attempt, nil
		}
		lastErr = err

		if IsPermanent(err) {
			erm.logger.WithFields(fields).WithFields(logrus.Fields{
				"operation": operationName,
				"attempt":   attempt,
				"error":     err.Error(),
			}).Warn("Operation failed permanently")
			return attempt, err
		}

		if attempt == erm.policy.MaxAttempts {
			break
		}

		erm.logger.WithFields(fields).WithFields(logrus.Fields{
			"operation": operationName,
			"attempt":   attempt,
			"error":     err.Error(),
			"delay":     erm.policy.Backoff,
		}).Warn("Operation failed, retrying")

		if err := erm.wait(ctx, erm.policy.Backoff); err != nil {
			return attempt, err
		}
	}

	erm.logger.WithFields(fields).WithFields(logrus.Fields{
		"operation": operationName,
		"attempts":  attempt,
		"duration":  time.Since(start),
		"error":     lastErr.Error(),
	}).Error("Operation failed after all retries")

	return attempt, lastErr
}
