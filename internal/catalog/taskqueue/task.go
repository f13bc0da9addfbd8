// Package taskqueue implements the Task Queue (C5): deferred,
// possibly-delayed, at-least-once execution of idempotent work, backed
// by a single polled `task` relation.
package taskqueue

import (
	"context"
	"time"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
)

// Status is a task's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusShouldStop Status = "should-stop"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// EntityType constrains which of WarehouseID/EntityID a task may carry,
// per spec.md §4.5's check-constraint semantics.
type EntityType string

const (
	EntityProject   EntityType = "project"
	EntityWarehouse EntityType = "warehouse"
	EntityTable     EntityType = "table"
	EntityView      EntityType = "view"
)

// Queue names for the built-in task taxonomy; user cron tasks register
// their own queue name at schedule time.
const (
	QueueTabularExpiration  = "tabular_expiration"
	QueueTabularPurge       = "tabular_purge"
	QueueMetadataLogCleanup = "metadata_log_cleanup"
	QueueStatisticsRollup   = "statistics_rollup"
)

// Task is one row of the task relation.
type Task struct {
	TaskID         model.TabularID
	QueueName      string
	Status         Status
	Attempt        int
	PickedUpAt     *time.Time
	ScheduledFor   time.Time
	ParentTaskID   *model.TabularID
	IdempotencyKey string
	Progress       float64
	ExecutionDetails string

	ProjectID   model.ProjectID
	WarehouseID *model.WarehouseID
	EntityType  EntityType
	EntityID    *model.TabularID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LogEntry is one append-only row of task_log, recording a failed
// attempt that was rescheduled or a terminal outcome, for observability
// (spec.md §4.5).
type LogEntry struct {
	TaskID     model.TabularID
	Attempt    int
	Status     Status
	Message    string
	RecordedAt time.Time
}

// Handler executes one task. ctx is the Worker's run context, cancelled
// only when the Worker stops; the Worker does not poll should-stop, so a
// RequestStop reaches a handler only through its own Queue.ShouldStop
// checks at its progress checkpoints.
type Handler func(ctx context.Context, t *Task) error
