package taskqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
)

// cronParser accepts the standard five-field expression, matching the
// scaling service's schedule validation.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronExpression parses expr in the given IANA timezone and
// confirms it has at least one future occurrence.
func ValidateCronExpression(expr, timezone string) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	if schedule.Next(time.Now().In(loc)).IsZero() {
		return fmt.Errorf("cron expression has no future occurrence")
	}
	return nil
}

// CronRegistration is a user-registered recurring task (spec.md §4.5's
// "user-registered cron tasks"), scoped to a project or, optionally, a
// warehouse within it.
type CronRegistration struct {
	QueueName   string
	CronExpr    string
	Timezone    string
	ProjectID   model.ProjectID
	WarehouseID *model.WarehouseID
}

// cronEnqueuer is the narrow slice of Queue the scheduler needs, defined
// here by the consumer so tests can substitute a fake.
type cronEnqueuer interface {
	EnqueueCron(ctx context.Context, queueName string, projectID model.ProjectID, warehouseID *model.WarehouseID, fireAt time.Time) error
}

// CronScheduler periodically walks a set of registrations and enqueues
// the next firing for any whose schedule is due, reusing the Queue's
// idempotency-key UPSERT so a registration is never double-enqueued for
// the same occurrence even if two scheduler instances run concurrently.
type CronScheduler struct {
	queue         cronEnqueuer
	logger        *slog.Logger
	interval      time.Duration
	registrations []cronEntry
}

type cronEntry struct {
	reg      CronRegistration
	schedule cron.Schedule
	loc      *time.Location
}

// NewCronScheduler creates a scheduler that checks for due registrations
// every interval.
func NewCronScheduler(queue cronEnqueuer, interval time.Duration, logger *slog.Logger) *CronScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &CronScheduler{queue: queue, interval: interval, logger: logger.With("component", "cron-scheduler")}
}

// Register validates and adds a registration. Call before Run.
func (s *CronScheduler) Register(reg CronRegistration) error {
	loc, err := time.LoadLocation(reg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	schedule, err := cronParser.Parse(reg.CronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	s.registrations = append(s.registrations, cronEntry{reg: reg, schedule: schedule, loc: loc})
	return nil
}

// Run checks every registration once per tick and enqueues any whose
// next scheduled firing since the last tick has elapsed.
func (s *CronScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := time.Now()
	s.logger.Info("cron scheduler started", "registrations", len(s.registrations), "check_interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cron scheduler stopping")
			return
		case now := <-ticker.C:
			s.checkDue(ctx, last, now)
			last = now
		}
	}
}

func (s *CronScheduler) checkDue(ctx context.Context, since, now time.Time) {
	for _, e := range s.registrations {
		next := e.schedule.Next(since.In(e.loc))
		if next.After(now.In(e.loc)) {
			continue
		}
		if err := s.queue.EnqueueCron(ctx, e.reg.QueueName, e.reg.ProjectID, e.reg.WarehouseID, next.UTC()); err != nil {
			s.logger.Warn("failed to enqueue cron firing", "queue", e.reg.QueueName, "error", err)
		}
	}
}
