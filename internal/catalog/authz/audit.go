package authz

import (
	"context"
	"log/slog"
)

// LogAuditSink emits audit events as structured log lines — the default
// when audit logging is enabled but no richer event-sink wiring (e.g.
// shipping to the C6 event sink) is configured.
type LogAuditSink struct {
	logger *slog.Logger
}

// NewLogAuditSink wraps a logger for audit emission.
func NewLogAuditSink(logger *slog.Logger) *LogAuditSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogAuditSink{logger: logger.With("component", "authz-audit")}
}

func (s *LogAuditSink) EmitAudit(ctx context.Context, event AuditEvent) {
	attrs := []any{
		"principal", event.Principal,
		"action", event.Action,
		"resource_type", event.Resource.Type,
		"resource_id", event.Resource.ID,
		"decision", event.Decision,
	}
	if event.FailureReason != "" {
		attrs = append(attrs, "reason", event.FailureReason)
	}
	if event.CorrelationID != "" {
		attrs = append(attrs, "correlation_id", event.CorrelationID)
	}
	if event.Decision == Allow {
		s.logger.Info("authorization decision", attrs...)
	} else {
		s.logger.Warn("authorization decision", attrs...)
	}
}
