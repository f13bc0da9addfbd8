package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// Queue is a pgxpool-backed implementation of the task relation,
// generalizing the node-pool repository's scan-helper idiom to a
// single polled queue table.
type Queue struct {
	pool      *pgxpool.Pool
	logger    *slog.Logger
	maxRetries int
	maxAge     time.Duration
}

// Config holds the operational knobs for a Queue.
type Config struct {
	// MaxRetries bounds how many times a failed task is retried with
	// backoff before it is moved to failed permanently.
	MaxRetries int
	// MaxAge is the staleness threshold: a running task whose
	// picked_up_at is older than this is reclaimed by any worker.
	MaxAge time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxRetries: 5, MaxAge: 10 * time.Minute}
}

// NewQueue creates a Queue over an already-connected pool.
func NewQueue(pool *pgxpool.Pool, cfg Config, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultConfig().MaxAge
	}
	return &Queue{
		pool:       pool,
		logger:     logger.With("component", "task-queue"),
		maxRetries: cfg.MaxRetries,
		maxAge:     cfg.MaxAge,
	}
}

// enqueueInput is the common shape behind the taxonomy-specific Enqueue*
// methods and RegisterCron.
type enqueueInput struct {
	QueueName      string
	ScheduledFor   time.Time
	IdempotencyKey string
	ProjectID      model.ProjectID
	WarehouseID    *model.WarehouseID
	EntityType     EntityType
	EntityID       *model.TabularID
	ExecutionDetails string
}

// enqueue performs the UPSERT-on-idempotency-key described in spec.md
// §4.5: a cancelled row is re-armed to pending; any other existing row
// is returned unchanged.
func (q *Queue) enqueue(ctx context.Context, in enqueueInput) (model.TabularID, error) {
	taskID := uuid.New()
	const query = `
		INSERT INTO lakekeeper.task (
			task_id, queue_name, status, attempt, scheduled_for,
			idempotency_key, progress, execution_details,
			project_id, warehouse_id, entity_type, entity_id,
			created_at, updated_at
		) VALUES ($1, $2, 'pending', 0, $3, $4, 0, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (idempotency_key) DO UPDATE SET
			status = CASE WHEN lakekeeper.task.status = 'cancelled' THEN 'pending' ELSE lakekeeper.task.status END,
			scheduled_for = CASE WHEN lakekeeper.task.status = 'cancelled' THEN EXCLUDED.scheduled_for ELSE lakekeeper.task.scheduled_for END,
			updated_at = now()
		RETURNING task_id
	`
	var returnedID uuid.UUID
	err := q.pool.QueryRow(ctx, query,
		taskID, in.QueueName, in.ScheduledFor, in.IdempotencyKey, in.ExecutionDetails,
		in.ProjectID, in.WarehouseID, string(in.EntityType), in.EntityID,
	).Scan(&returnedID)
	if err != nil {
		return uuid.Nil, catalogerr.InternalCatalogError(fmt.Errorf("enqueue task: %w", err))
	}
	return returnedID, nil
}

// EnqueueMetadataLogCleanup satisfies commit.TaskEnqueuer.
func (q *Queue) EnqueueMetadataLogCleanup(ctx context.Context, warehouseID model.WarehouseID, tabularID model.TabularID, keep int) error {
	_, err := q.enqueue(ctx, enqueueInput{
		QueueName:        QueueMetadataLogCleanup,
		ScheduledFor:     time.Now(),
		IdempotencyKey:   fmt.Sprintf("%s:%s:%s", QueueMetadataLogCleanup, warehouseID, tabularID),
		WarehouseID:      &warehouseID,
		EntityType:       EntityTable,
		EntityID:         &tabularID,
		ExecutionDetails: fmt.Sprintf(`{"keep":%d}`, keep),
	})
	return err
}

// EnqueueExpiration satisfies commit.TaskEnqueuer: promotes a
// soft-deleted tabular to hard-delete at fireAt.
func (q *Queue) EnqueueExpiration(ctx context.Context, warehouseID model.WarehouseID, tabularID model.TabularID, fireAt time.Time) error {
	_, err := q.enqueue(ctx, enqueueInput{
		QueueName:      QueueTabularExpiration,
		ScheduledFor:   fireAt,
		IdempotencyKey: fmt.Sprintf("%s:%s:%s", QueueTabularExpiration, warehouseID, tabularID),
		WarehouseID:    &warehouseID,
		EntityType:     EntityTable,
		EntityID:       &tabularID,
	})
	return err
}

// EnqueuePurge satisfies commit.TaskEnqueuer: deletes a dropped table's
// object-storage prefix. location is the tabular's FSLocation at the
// time of the drop, carried in ExecutionDetails since the tabular row
// itself is already gone by the time the task runs.
func (q *Queue) EnqueuePurge(ctx context.Context, warehouseID model.WarehouseID, tabularID model.TabularID, location string) error {
	_, err := q.enqueue(ctx, enqueueInput{
		QueueName:        QueueTabularPurge,
		ScheduledFor:     time.Now(),
		IdempotencyKey:   fmt.Sprintf("%s:%s:%s", QueueTabularPurge, warehouseID, tabularID),
		WarehouseID:      &warehouseID,
		EntityType:       EntityTable,
		EntityID:         &tabularID,
		ExecutionDetails: location,
	})
	return err
}

// EnqueueStatisticsRollup schedules a recurring warehouse-scoped usage
// rollup; callers typically re-invoke this from a cron registration.
func (q *Queue) EnqueueStatisticsRollup(ctx context.Context, projectID model.ProjectID, warehouseID model.WarehouseID, fireAt time.Time) error {
	_, err := q.enqueue(ctx, enqueueInput{
		QueueName:      QueueStatisticsRollup,
		ScheduledFor:   fireAt,
		IdempotencyKey: fmt.Sprintf("%s:%s:%s:%d", QueueStatisticsRollup, warehouseID, projectID, fireAt.Unix()),
		ProjectID:      projectID,
		WarehouseID:    &warehouseID,
		EntityType:     EntityWarehouse,
	})
	return err
}

// EnqueueCron enqueues one firing of a user-registered cron task.
func (q *Queue) EnqueueCron(ctx context.Context, queueName string, projectID model.ProjectID, warehouseID *model.WarehouseID, fireAt time.Time) error {
	entityType := EntityProject
	if warehouseID != nil {
		entityType = EntityWarehouse
	}
	_, err := q.enqueue(ctx, enqueueInput{
		QueueName:      queueName,
		ScheduledFor:   fireAt,
		IdempotencyKey: fmt.Sprintf("%s:%s:%d", queueName, projectID, fireAt.Unix()),
		ProjectID:      projectID,
		WarehouseID:    warehouseID,
		EntityType:     entityType,
	})
	return err
}

// Claim atomically picks up the single oldest pending (or stale
// running) task due for execution, per spec.md §4.5's worker loop.
// Returns nil, nil when no task is due.
func (q *Queue) Claim(ctx context.Context, queueNames []string) (*Task, error) {
	tx, err := q.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, catalogerr.InternalCatalogError(err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback(ctx)
		}
	}()

	const query = `
		SELECT task_id, queue_name, status, attempt, picked_up_at, scheduled_for,
		       parent_task_id, idempotency_key, progress, execution_details,
		       project_id, warehouse_id, entity_type, entity_id, created_at, updated_at
		FROM lakekeeper.task
		WHERE (queue_name = ANY($1) OR $1 IS NULL)
		  AND (
		    (status = 'pending' AND scheduled_for <= now())
		    OR (status = 'running' AND picked_up_at < now() - $2::interval)
		  )
		ORDER BY scheduled_for ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`
	row := tx.QueryRow(ctx, query, queueNames, q.maxAge)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, catalogerr.InternalCatalogError(fmt.Errorf("claim task: %w", err))
	}

	const claimUpdate = `
		UPDATE lakekeeper.task
		SET status = 'running', picked_up_at = now(), attempt = attempt + 1, updated_at = now()
		WHERE task_id = $1
	`
	if _, err := tx.Exec(ctx, claimUpdate, t.TaskID); err != nil {
		return nil, catalogerr.InternalCatalogError(fmt.Errorf("mark task running: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, catalogerr.InternalCatalogError(fmt.Errorf("commit claim: %w", err))
	}
	committed = true

	t.Status = StatusRunning
	t.Attempt++
	now := time.Now()
	t.PickedUpAt = &now
	return t, nil
}

// Complete records a successful run.
func (q *Queue) Complete(ctx context.Context, taskID model.TabularID) error {
	return q.terminal(ctx, taskID, StatusSuccess, "")
}

// Fail records a failed attempt, resetting to pending with backoff if
// attempts remain, or moving to failed permanently otherwise.
func (q *Queue) Fail(ctx context.Context, taskID model.TabularID, attempt int, backoff time.Duration, reason string) error {
	if attempt < q.maxRetries {
		const query = `
			UPDATE lakekeeper.task
			SET status = 'pending', scheduled_for = now() + $2::interval, updated_at = now()
			WHERE task_id = $1
		`
		if _, err := q.pool.Exec(ctx, query, taskID, backoff); err != nil {
			return catalogerr.InternalCatalogError(fmt.Errorf("reschedule task: %w", err))
		}
		return q.appendLog(ctx, taskID, attempt, StatusPending, reason)
	}
	return q.terminal(ctx, taskID, StatusFailed, reason)
}

func (q *Queue) terminal(ctx context.Context, taskID model.TabularID, status Status, message string) error {
	const query = `UPDATE lakekeeper.task SET status = $2, updated_at = now() WHERE task_id = $1`
	if _, err := q.pool.Exec(ctx, query, taskID, string(status)); err != nil {
		return catalogerr.InternalCatalogError(fmt.Errorf("finalize task: %w", err))
	}
	return q.appendLog(ctx, taskID, 0, status, message)
}

func (q *Queue) appendLog(ctx context.Context, taskID model.TabularID, attempt int, status Status, message string) error {
	const query = `
		INSERT INTO lakekeeper.task_log (task_id, attempt, status, message, recorded_at)
		VALUES ($1, $2, $3, $4, now())
	`
	if _, err := q.pool.Exec(ctx, query, taskID, attempt, string(status), message); err != nil {
		return catalogerr.InternalCatalogError(fmt.Errorf("append task log: %w", err))
	}
	return nil
}

// RequestStop flags a running task should-stop; the handler is
// expected to observe this at its next progress checkpoint.
func (q *Queue) RequestStop(ctx context.Context, taskID model.TabularID) error {
	const query = `
		UPDATE lakekeeper.task SET status = 'should-stop', updated_at = now()
		WHERE task_id = $1 AND status = 'running'
	`
	if _, err := q.pool.Exec(ctx, query, taskID); err != nil {
		return catalogerr.InternalCatalogError(fmt.Errorf("request stop: %w", err))
	}
	return nil
}

// ShouldStop reports whether a should-stop has been requested for the
// given task, polled by a Handler at its own checkpoints.
func (q *Queue) ShouldStop(ctx context.Context, taskID model.TabularID) (bool, error) {
	const query = `SELECT status FROM lakekeeper.task WHERE task_id = $1`
	var status string
	if err := q.pool.QueryRow(ctx, query, taskID).Scan(&status); err != nil {
		return false, catalogerr.InternalCatalogError(fmt.Errorf("check should-stop: %w", err))
	}
	return status == string(StatusShouldStop), nil
}

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	var entityType string
	if err := row.Scan(
		&t.TaskID, &t.QueueName, &t.Status, &t.Attempt, &t.PickedUpAt, &t.ScheduledFor,
		&t.ParentTaskID, &t.IdempotencyKey, &t.Progress, &t.ExecutionDetails,
		&t.ProjectID, &t.WarehouseID, &entityType, &t.EntityID, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.EntityType = EntityType(entityType)
	return &t, nil
}
