package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

type capturingAudit struct {
	events []AuditEvent
}

func (c *capturingAudit) EmitAudit(ctx context.Context, event AuditEvent) {
	c.events = append(c.events, event)
}

// fakeBackend lets tests dictate the Decision without a real graph.
type fakeBackend struct {
	decision Decision
	err      error
}

func (f *fakeBackend) Check(ctx context.Context, principal commit.Principal, action string, resource Resource) (Decision, error) {
	return f.decision, f.err
}

func (f *fakeBackend) CheckBatch(ctx context.Context, principal commit.Principal, action string, resources []Resource) ([]Decision, error) {
	out := make([]Decision, len(resources))
	for i := range out {
		out[i] = f.decision
	}
	return out, f.err
}

func TestEngine_AuthorizeAllowsOnAllowDecision(t *testing.T) {
	e := New(&fakeBackend{decision: Allow}, nil, nil)
	err := e.Authorize(context.Background(), commit.Principal{ID: "alice"}, "CreateTable", uuid.New())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestEngine_AuthorizeMapsDenyForbiddenToForbidden(t *testing.T) {
	e := New(&fakeBackend{decision: DenyForbidden}, nil, nil)
	err := e.Authorize(context.Background(), commit.Principal{ID: "alice"}, "DropTable", uuid.New())
	if !catalogerr.Is(err, catalogerr.TypeForbidden) {
		t.Fatalf("expected a Forbidden error, got %v", err)
	}
}

func TestEngine_AuthorizeMapsDenyNotFoundToNotFound(t *testing.T) {
	e := New(&fakeBackend{decision: DenyNotFound}, nil, nil)
	err := e.Authorize(context.Background(), commit.Principal{ID: "bob"}, "ReadTableMetadata", uuid.New())
	if !catalogerr.Is(err, catalogerr.TypeNotFound) {
		t.Fatalf("expected a NotFound error, got %v", err)
	}
}

func TestEngine_AuthorizeMapsDenyInvisibleToForbiddenNotNotFound(t *testing.T) {
	e := New(&fakeBackend{decision: DenyInvisible}, nil, nil)
	err := e.Authorize(context.Background(), commit.Principal{ID: "bob"}, "ReadTableMetadata", uuid.New())
	if !catalogerr.Is(err, catalogerr.TypeForbidden) {
		t.Fatalf("expected the visibility policy to collapse deny-invisible into Forbidden, got %v", err)
	}
}

func TestEngine_EmitsAuditEventForEveryDecision(t *testing.T) {
	audit := &capturingAudit{}
	e := New(&fakeBackend{decision: Allow}, audit, nil)
	_ = e.Authorize(context.Background(), commit.Principal{ID: "alice"}, "CreateTable", uuid.New())
	if len(audit.events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(audit.events))
	}
	if audit.events[0].Decision != Allow {
		t.Errorf("expected audit event to record Allow, got %v", audit.events[0].Decision)
	}
}

func TestEngine_AuthorizeWrapsBackendErrorAsInternal(t *testing.T) {
	e := New(&fakeBackend{err: errors.New("backend unavailable")}, nil, nil)
	err := e.Authorize(context.Background(), commit.Principal{ID: "alice"}, "CreateTable", uuid.New())
	if !catalogerr.Is(err, catalogerr.TypeInternalAuthorizationError) {
		t.Fatalf("expected an InternalAuthorizationError, got %v", err)
	}
}
