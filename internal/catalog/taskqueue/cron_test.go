package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
)

type recordingEnqueuer struct {
	calls []string
}

func (r *recordingEnqueuer) EnqueueCron(ctx context.Context, queueName string, projectID model.ProjectID, warehouseID *model.WarehouseID, fireAt time.Time) error {
	r.calls = append(r.calls, queueName)
	return nil
}

func TestValidateCronExpression_AcceptsStandardFiveField(t *testing.T) {
	if err := ValidateCronExpression("0 * * * *", "UTC"); err != nil {
		t.Errorf("expected a valid expression, got error: %v", err)
	}
}

func TestValidateCronExpression_RejectsMalformedExpression(t *testing.T) {
	if err := ValidateCronExpression("not a cron expression", "UTC"); err == nil {
		t.Errorf("expected an error for a malformed cron expression")
	}
}

func TestValidateCronExpression_RejectsUnknownTimezone(t *testing.T) {
	if err := ValidateCronExpression("0 * * * *", "Nowhere/Imaginary"); err == nil {
		t.Errorf("expected an error for an unknown timezone")
	}
}

func TestCronScheduler_EnqueuesDueRegistration(t *testing.T) {
	enqueuer := &recordingEnqueuer{}
	s := NewCronScheduler(enqueuer, time.Minute, nil)

	projectID := uuid.New()
	if err := s.Register(CronRegistration{
		QueueName: "nightly_rollup",
		CronExpr:  "* * * * *", // every minute, so any tick window is due
		Timezone:  "UTC",
		ProjectID: projectID,
	}); err != nil {
		t.Fatalf("unexpected error registering: %v", err)
	}

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := since.Add(2 * time.Minute)
	s.checkDue(context.Background(), since, now)

	if len(enqueuer.calls) != 1 || enqueuer.calls[0] != "nightly_rollup" {
		t.Errorf("expected exactly one enqueue call for nightly_rollup, got %v", enqueuer.calls)
	}
}

func TestCronScheduler_SkipsRegistrationNotYetDue(t *testing.T) {
	enqueuer := &recordingEnqueuer{}
	s := NewCronScheduler(enqueuer, time.Minute, nil)

	if err := s.Register(CronRegistration{
		QueueName: "monthly_rollup",
		CronExpr:  "0 0 1 * *", // once a month
		Timezone:  "UTC",
		ProjectID: uuid.New(),
	}); err != nil {
		t.Fatalf("unexpected error registering: %v", err)
	}

	since := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	now := since.Add(time.Minute)
	s.checkDue(context.Background(), since, now)

	if len(enqueuer.calls) != 0 {
		t.Errorf("expected no enqueue calls, got %v", enqueuer.calls)
	}
}
