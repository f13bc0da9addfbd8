package commit

import (
	"context"
	"errors"
	"testing"

	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

func TestRetryer_SucceedsWithoutRetryOnFirstTry(t *testing.T) {
	r := NewRetryer(DefaultRetryPolicy(), nil)
	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
}

func TestRetryer_RetriesConflictUntilSuccess(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.InitialInterval = 0
	policy.MaxInterval = 0
	r := NewRetryer(policy, nil)

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return catalogerr.Conflict("lock contention")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryer_GivesUpAfterMaxAttempts(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.InitialInterval = 0
	policy.MaxInterval = 0
	r := NewRetryer(policy, nil)

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return catalogerr.Conflict("lock contention")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != policy.MaxAttempts {
		t.Fatalf("expected %d calls, got %d", policy.MaxAttempts, calls)
	}
	var retryErr *RetryError
	if !errors.As(err, &retryErr) {
		t.Fatalf("expected *RetryError, got %T", err)
	}
}

func TestRetryer_DoesNotRetryNonConflictError(t *testing.T) {
	r := NewRetryer(DefaultRetryPolicy(), nil)
	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return catalogerr.NotFound("table not found")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one call for a non-retryable error, got %d", calls)
	}
}
