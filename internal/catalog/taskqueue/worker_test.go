package taskqueue

import (
	"testing"
	"time"
)

func TestBackoffFor_GrowsExponentially(t *testing.T) {
	first := backoffFor(1)
	second := backoffFor(2)
	third := backoffFor(3)

	if first != time.Minute {
		t.Errorf("expected first backoff to be 1m, got %v", first)
	}
	if second <= first || third <= second {
		t.Errorf("expected backoff to grow with attempt: %v, %v, %v", first, second, third)
	}
}

func TestBackoffFor_CapsAtOneHour(t *testing.T) {
	b := backoffFor(20)
	if b != time.Hour {
		t.Errorf("expected backoff to cap at 1h, got %v", b)
	}
}

func TestBackoffFor_TreatsNonPositiveAttemptAsOne(t *testing.T) {
	if backoffFor(0) != backoffFor(1) {
		t.Errorf("expected attempt 0 to behave like attempt 1")
	}
}
