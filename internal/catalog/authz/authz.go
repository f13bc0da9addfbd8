// Package authz implements the Authorization Engine (C3): given a
// principal, an action, and a resource, decide allow or deny, with three
// pluggable backends (allowall, relation, policy) selected at startup.
package authz

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// Decision is the outcome of one authorization check.
type Decision string

const (
	Allow         Decision = "allow"
	DenyForbidden Decision = "deny-forbidden"
	DenyNotFound  Decision = "deny-not-found"
	DenyInvisible Decision = "deny-invisible"
	InternalError Decision = "internal-error"
)

// EntityType names a node in the authorization graph. Server, project,
// warehouse, namespace, table, view, and role are all node types (spec.md
// §4.3); a role is itself authorizable (who may grant/revoke it).
type EntityType string

const (
	EntityServer    EntityType = "server"
	EntityProject   EntityType = "project"
	EntityWarehouse EntityType = "warehouse"
	EntityNamespace EntityType = "namespace"
	EntityTable     EntityType = "table"
	EntityView      EntityType = "view"
	EntityRole      EntityType = "role"
)

// Resource identifies the entity an action targets, plus the ancestor
// chain needed for top-down inheritance, bottom-up reveal, and the
// visibility policy's deny-not-found vs. deny-forbidden distinction.
type Resource struct {
	Type      EntityType
	ID        uuid.UUID
	Ancestors []Resource // root-to-parent order; Ancestors[0] is the server/project root
}

// Authorizer is the engine's public contract. Backends implement this;
// NewChecked wraps any backend with the uniform visibility policy and
// optional audit emission.
type Authorizer interface {
	// Check decides one (principal, action, resource) triple.
	Check(ctx context.Context, principal commit.Principal, action string, resource Resource) (Decision, error)
	// CheckBatch decides a slice of resources against the same action in
	// one round-trip, in input order, per spec.md §4.3's is_allowed_batch
	// contract.
	CheckBatch(ctx context.Context, principal commit.Principal, action string, resources []Resource) ([]Decision, error)
}

// AuditEvent is one authorization decision, emitted for both allow and
// deny when audit logging is enabled (spec.md §4.3 "Audit events").
type AuditEvent struct {
	Timestamp     time.Time
	Principal     string
	Action        string
	Resource      Resource
	Decision      Decision
	FailureReason string
	CorrelationID string
}

// AuditSink is the narrow hook the engine drives for audit logging;
// defined here by the consumer rather than imported from eventsink so
// the two packages do not depend on each other.
type AuditSink interface {
	EmitAudit(ctx context.Context, event AuditEvent)
}

// noopAudit discards every event; the default when audit logging is off.
type noopAudit struct{}

func (noopAudit) EmitAudit(context.Context, AuditEvent) {}

// Engine wraps a backend Authorizer with the uniform visibility policy
// (spec.md §4.3 "Visibility policy") and audit emission, and adapts the
// richer Decision vocabulary down to the single error the Commit Engine's
// narrow Authorizer interface expects.
type Engine struct {
	backend Authorizer
	audit   AuditSink
	logger  *slog.Logger
}

// New wires an Engine around the given backend. audit may be nil, in
// which case audit events are discarded.
func New(backend Authorizer, audit AuditSink, logger *slog.Logger) *Engine {
	if audit == nil {
		audit = noopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{backend: backend, audit: audit, logger: logger.With("component", "authz")}
}

// Authorize satisfies commit.Authorizer: it resolves action+tabularID
// into a single-entity Check and translates the decision into the error
// taxonomy the commit engine already understands.
func (e *Engine) Authorize(ctx context.Context, principal commit.Principal, action string, tabularID model.TabularID) error {
	resource := Resource{Type: EntityTable, ID: tabularID}
	decision, _, err := e.check(ctx, principal, action, resource)
	if err != nil {
		return err
	}
	return decisionToError(decision, action)
}

// AuthorizeResource is Authorize generalized to any entity type, for
// callers outside the commit engine (namespace/project/warehouse
// management) that need the same decision-to-error adaptation without
// being narrowed to a table resource.
func (e *Engine) AuthorizeResource(ctx context.Context, principal commit.Principal, action string, resource Resource) error {
	decision, _, err := e.check(ctx, principal, action, resource)
	if err != nil {
		return err
	}
	return decisionToError(decision, action)
}

// Check runs one authorization decision and applies the visibility
// policy and audit emission around the backend's raw answer.
func (e *Engine) Check(ctx context.Context, principal commit.Principal, action string, resource Resource) (Decision, error) {
	decision, _, err := e.check(ctx, principal, action, resource)
	return decision, err
}

func (e *Engine) check(ctx context.Context, principal commit.Principal, action string, resource Resource) (Decision, string, error) {
	decision, err := e.backend.Check(ctx, principal, action, resource)
	if err != nil {
		e.audit.EmitAudit(ctx, AuditEvent{
			Timestamp: time.Now(), Principal: principal.ID, Action: action,
			Resource: resource, Decision: InternalError, FailureReason: err.Error(),
		})
		return InternalError, err.Error(), catalogerr.InternalAuthorizationError(err)
	}

	decision = applyVisibilityPolicy(decision, resource)

	reason := ""
	if decision != Allow {
		reason = string(decision)
	}
	e.audit.EmitAudit(ctx, AuditEvent{
		Timestamp: time.Now(), Principal: principal.ID, Action: action,
		Resource: resource, Decision: decision, FailureReason: reason,
	})
	return decision, reason, nil
}

// CheckBatch runs the backend's batch query and applies the visibility
// policy to every result, preserving input order.
func (e *Engine) CheckBatch(ctx context.Context, principal commit.Principal, action string, resources []Resource) ([]Decision, error) {
	decisions, err := e.backend.CheckBatch(ctx, principal, action, resources)
	if err != nil {
		return nil, catalogerr.InternalAuthorizationError(err)
	}
	out := make([]Decision, len(decisions))
	for i, d := range decisions {
		out[i] = applyVisibilityPolicy(d, resources[i])
		if e.audit != nil {
			e.audit.EmitAudit(ctx, AuditEvent{
				Timestamp: time.Now(), Principal: principal.ID, Action: action,
				Resource: resources[i], Decision: out[i],
			})
		}
	}
	return out, nil
}

// applyVisibilityPolicy maps deny-invisible to deny-forbidden and passes
// every other decision through unchanged. Deny-not-found is not
// collapsed here, so whether a denial surfaces as not-found or forbidden
// is decided by the backend (the relation backend answers deny-not-found
// when the principal holds no grant on the resource or any ancestor).
func applyVisibilityPolicy(d Decision, resource Resource) Decision {
	if d == DenyInvisible {
		return DenyForbidden
	}
	return d
}

func decisionToError(d Decision, action string) error {
	switch d {
	case Allow:
		return nil
	case DenyNotFound:
		return catalogerr.NotFound("not authorized to perform %s: resource not visible", action)
	default:
		return catalogerr.Forbidden("not authorized to perform %s", action)
	}
}
