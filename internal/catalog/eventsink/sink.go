// Package eventsink implements the Event Sink and Contract Verifier
// (C6): fire-and-forget change notification, and the pre-commit veto
// hook the Commit Engine consults before applying an update.
package eventsink

import (
	"context"
	"log/slog"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
)

// NoneSink discards every event; the default when no sink is
// configured.
type NoneSink struct{}

// Publish satisfies commit.EventSink by doing nothing.
func (NoneSink) Publish(context.Context, commit.Event) {}

// LogSink publishes by logging the event at info level. Per spec.md
// §4.6, publication is fire-and-forget and at-least-once: a failure to
// publish is logged and never fails the underlying operation, so this
// sink (which cannot itself fail) is a reasonable default outside
// production deployments that wire a message broker.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "event-sink")}
}

// Publish satisfies commit.EventSink.
func (s *LogSink) Publish(ctx context.Context, event commit.Event) {
	s.logger.Info("catalog event",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"tabular_id", event.TabularID,
		"warehouse_id", event.WarehouseID,
		"namespace", event.NamespacePath,
		"actor", event.Actor,
		"correlation_id", event.CorrelationID,
	)
}

var (
	_ commit.EventSink = NoneSink{}
	_ commit.EventSink = (*LogSink)(nil)
)
