package commit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// RetryPolicy defines the retry behavior for a commit attempt.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including the first try).
	MaxAttempts int

	// InitialInterval is the initial backoff interval.
	InitialInterval time.Duration

	// MaxInterval is the maximum backoff interval.
	MaxInterval time.Duration

	// Multiplier is the backoff multiplier.
	Multiplier float64

	// Jitter adds randomness to prevent thundering herd.
	Jitter bool
}

// DefaultRetryPolicy returns the policy spec.md §4.2 names: "bounded
// exponential backoff with jitter, defaulting to 3 attempts".
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		Jitter:          true,
	}
}

// RetryError wraps an error with retry information.
type RetryError struct {
	Err      error
	Attempts int
	LastWait time.Duration
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// Retryer executes a commit operation with retry logic, retrying only
// on Conflict (lock contention, serialization failure, or a failed
// requirement that a concurrent commit just invalidated) per spec.md
// §4.2 step 2.
type Retryer struct {
	policy RetryPolicy
	logger *slog.Logger
}

// NewRetryer creates a new Retryer with the given policy.
func NewRetryer(policy RetryPolicy, logger *slog.Logger) *Retryer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retryer{
		policy: policy,
		logger: logger.With("component", "commit-retryer"),
	}
}

// Execute runs the operation with retry logic. It returns nil on the
// first success; otherwise a *RetryError wrapping the first
// non-retryable error, the context's error if it ends during a backoff,
// or the last error once all attempts are exhausted.
func (r *Retryer) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error
	var lastWait time.Duration

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.Debug("commit succeeded after retry", "attempt", attempt, "total_wait", lastWait)
			}
			return nil
		}

		lastErr = err

		if !isRetryable(err) {
			r.logger.Debug("non-retryable commit error", "attempt", attempt, "error", err)
			return &RetryError{Err: err, Attempts: attempt, LastWait: lastWait}
		}

		if attempt >= r.policy.MaxAttempts {
			break
		}

		wait := r.calculateBackoff(attempt)
		lastWait += wait

		r.logger.Debug("retrying commit after conflict", "attempt", attempt, "next_attempt", attempt+1, "wait", wait, "error", err)

		select {
		case <-ctx.Done():
			return &RetryError{Err: ctx.Err(), Attempts: attempt, LastWait: lastWait}
		case <-time.After(wait):
		}
	}

	return &RetryError{Err: lastErr, Attempts: r.policy.MaxAttempts, LastWait: lastWait}
}

// isRetryable retries catalog Conflict errors (lock contention,
// serialization failures, requirement races) and nothing else.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return catalogerr.Is(err, catalogerr.TypeConflict)
}

// calculateBackoff computes the exponential-with-jitter wait for attempt.
func (r *Retryer) calculateBackoff(attempt int) time.Duration {
	backoff := float64(r.policy.InitialInterval) * math.Pow(r.policy.Multiplier, float64(attempt-1))
	if backoff > float64(r.policy.MaxInterval) {
		backoff = float64(r.policy.MaxInterval)
	}
	duration := time.Duration(backoff)

	if r.policy.Jitter && duration > 0 {
		jitter := duration / 4
		duration = duration - jitter + time.Duration(rand.Int64N(int64(jitter*2)+1))
	}
	return duration
}
