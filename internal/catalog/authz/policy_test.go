package authz

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
)

const testPolicy = `package lakekeeper.authz

import future.keywords.if

default decision = {"decision": "deny_forbidden"}

decision = {"decision": "allow"} if {
	input.principal == "alice"
}

decision = {"decision": "deny_not_found"} if {
	input.principal == "stranger"
}
`

func writeTestPolicy(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.rego")
	if err := os.WriteFile(path, []byte(testPolicy), 0o644); err != nil {
		t.Fatalf("writing test policy: %v", err)
	}
	return path
}

func TestPolicyBackend_AllowsMatchingPrincipal(t *testing.T) {
	path := writeTestPolicy(t)
	b, err := NewPolicyBackend(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("loading policy backend: %v", err)
	}
	defer b.Close()

	d, err := b.Check(context.Background(), commit.Principal{ID: "alice"}, "ReadTableMetadata", Resource{Type: EntityTable, ID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != Allow {
		t.Fatalf("expected Allow, got %v", d)
	}
}

func TestPolicyBackend_DeniesNonMatchingPrincipal(t *testing.T) {
	path := writeTestPolicy(t)
	b, err := NewPolicyBackend(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("loading policy backend: %v", err)
	}
	defer b.Close()

	d, err := b.Check(context.Background(), commit.Principal{ID: "bob"}, "ReadTableMetadata", Resource{Type: EntityTable, ID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != DenyForbidden {
		t.Fatalf("expected DenyForbidden, got %v", d)
	}
}

func TestPolicyBackend_DenyNotFoundRule(t *testing.T) {
	path := writeTestPolicy(t)
	b, err := NewPolicyBackend(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("loading policy backend: %v", err)
	}
	defer b.Close()

	d, err := b.Check(context.Background(), commit.Principal{ID: "stranger"}, "ReadTableMetadata", Resource{Type: EntityTable, ID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != DenyNotFound {
		t.Fatalf("expected DenyNotFound, got %v", d)
	}
}

func TestPolicyBackend_CheckBatchPreservesOrder(t *testing.T) {
	path := writeTestPolicy(t)
	b, err := NewPolicyBackend(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("loading policy backend: %v", err)
	}
	defer b.Close()

	resources := []Resource{{Type: EntityTable, ID: uuid.New()}, {Type: EntityTable, ID: uuid.New()}}
	decisions, err := b.CheckBatch(context.Background(), commit.Principal{ID: "alice"}, "ReadTableMetadata", resources)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decisions) != 2 || decisions[0] != Allow || decisions[1] != Allow {
		t.Fatalf("expected both decisions Allow, got %v", decisions)
	}
}
