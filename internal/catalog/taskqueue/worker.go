package taskqueue

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Worker polls a Queue at a fixed interval and dispatches claimed tasks
// to the registered Handler for their queue name, mirroring the
// ticker-driven monitoring loop the pipeline package uses for
// backpressure checks.
type Worker struct {
	queue    *Queue
	logger   *slog.Logger
	interval time.Duration
	handlers map[string]Handler
	queues   []string
}

// WorkerConfig holds a Worker's polling knobs.
type WorkerConfig struct {
	// PollInterval is how often the worker checks for due work.
	PollInterval time.Duration
	// Queues restricts polling to this set of queue names; nil polls
	// every queue.
	Queues []string
}

// DefaultWorkerConfig returns sensible defaults.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{PollInterval: 5 * time.Second}
}

// NewWorker creates a Worker over the given Queue. Register handlers
// with RegisterHandler before calling Run.
func NewWorker(queue *Queue, cfg WorkerConfig, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultWorkerConfig().PollInterval
	}
	return &Worker{
		queue:    queue,
		logger:   logger.With("component", "task-worker"),
		interval: cfg.PollInterval,
		handlers: make(map[string]Handler),
		queues:   cfg.Queues,
	}
}

// RegisterHandler binds a Handler to a queue name. Claiming a task for
// an unregistered queue name records a failed attempt with no backoff;
// like any other failure it is retried until the Queue's MaxRetries is
// reached and then marked failed.
func (w *Worker) RegisterHandler(queueName string, h Handler) {
	w.handlers[queueName] = h
}

// Run polls until ctx is cancelled, claiming and dispatching at most
// one task per tick. Multiple Workers against the same Queue cooperate
// via FOR UPDATE SKIP LOCKED; running more than one increases
// throughput without risking double-dispatch.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("task worker started", "poll_interval", w.interval, "queues", w.queues)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("task worker stopping")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	t, err := w.queue.Claim(ctx, w.queues)
	if err != nil {
		w.logger.Warn("failed to claim task", "error", err)
		return
	}
	if t == nil {
		return
	}
	w.dispatch(ctx, t)
}

func (w *Worker) dispatch(ctx context.Context, t *Task) {
	handler, ok := w.handlers[t.QueueName]
	if !ok {
		w.logger.Error("no handler registered for queue", "queue", t.QueueName, "task_id", t.TaskID)
		if err := w.queue.Fail(ctx, t.TaskID, t.Attempt, 0, "no handler registered"); err != nil {
			w.logger.Error("failed to record missing-handler failure", "error", err)
		}
		return
	}

	logger := w.logger.With("task_id", t.TaskID, "queue", t.QueueName, "attempt", t.Attempt)
	if err := handler(ctx, t); err != nil {
		backoff := backoffFor(t.Attempt)
		logger.Warn("task handler returned an error", "error", err, "backoff", backoff)
		if ferr := w.queue.Fail(ctx, t.TaskID, t.Attempt, backoff, err.Error()); ferr != nil {
			logger.Error("failed to record task failure", "error", ferr)
		}
		return
	}

	logger.Info("task completed")
	if err := w.queue.Complete(ctx, t.TaskID); err != nil {
		logger.Error("failed to record task completion", "error", err)
	}
}

// backoffFor is exponential with a one-minute base and a one-hour cap.
func backoffFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	seconds := math.Pow(2, float64(attempt-1)) * 60
	const capSeconds = 3600
	if seconds > capSeconds {
		seconds = capSeconds
	}
	return time.Duration(seconds) * time.Second
}
