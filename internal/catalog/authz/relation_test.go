package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
)

func TestRelationGraph_DirectGrantAllows(t *testing.T) {
	g := NewRelationGraph()
	table := uuid.New()
	g.Grant(table, "alice", RelationEditor)

	d, err := g.Check(context.Background(), commit.Principal{ID: "alice"}, "CreateTable", Resource{Type: EntityTable, ID: table})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != Allow {
		t.Fatalf("expected Allow, got %v", d)
	}
}

func TestRelationGraph_InheritsFromAncestor(t *testing.T) {
	g := NewRelationGraph()
	warehouse := uuid.New()
	table := uuid.New()
	g.RegisterParent(table, warehouse)
	g.Grant(warehouse, "alice", RelationOwner)

	resource := Resource{Type: EntityTable, ID: table, Ancestors: []Resource{{Type: EntityWarehouse, ID: warehouse}}}
	d, err := g.Check(context.Background(), commit.Principal{ID: "alice"}, "DropTable", resource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != Allow {
		t.Fatalf("expected inherited grant to allow DropTable, got %v", d)
	}
}

func TestRelationGraph_InsufficientRelationIsForbiddenNotNotFound(t *testing.T) {
	g := NewRelationGraph()
	table := uuid.New()
	g.Grant(table, "alice", RelationViewer)

	d, err := g.Check(context.Background(), commit.Principal{ID: "alice"}, "DropTable", Resource{Type: EntityTable, ID: table})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != DenyForbidden {
		t.Fatalf("expected DenyForbidden since alice holds a weaker grant here, got %v", d)
	}
}

func TestRelationGraph_NoGrantIsNotFound(t *testing.T) {
	g := NewRelationGraph()
	table := uuid.New()

	d, err := g.Check(context.Background(), commit.Principal{ID: "bob"}, "ReadTableMetadata", Resource{Type: EntityTable, ID: table})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != DenyNotFound {
		t.Fatalf("expected DenyNotFound for a principal with no grant anywhere, got %v", d)
	}
}

func TestRelationGraph_BottomUpRevealMakesAncestorListVisible(t *testing.T) {
	g := NewRelationGraph()
	warehouse := uuid.New()
	namespace := uuid.New()
	table := uuid.New()
	g.RegisterParent(namespace, warehouse)
	g.RegisterParent(table, namespace)
	g.Grant(table, "alice", RelationViewer)

	d, err := g.Check(context.Background(), commit.Principal{ID: "alice"}, "ListWarehouses", Resource{Type: EntityWarehouse, ID: warehouse})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != Allow {
		t.Fatalf("expected a leaf grant to make the warehouse list-visible, got %v", d)
	}
}

func TestRelationGraph_RoleMembershipGrantsApply(t *testing.T) {
	g := NewRelationGraph()
	role := uuid.New()
	warehouse := uuid.New()
	g.Grant(warehouse, "role:"+role.String(), RelationEditor)
	g.AddRoleMember(role, "carol")

	d, err := g.Check(context.Background(), commit.Principal{ID: "carol"}, "CreateNamespace", Resource{Type: EntityWarehouse, ID: warehouse})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != Allow {
		t.Fatalf("expected role membership grant to allow, got %v", d)
	}
}

func TestRelationGraph_CheckBatchPreservesOrder(t *testing.T) {
	g := NewRelationGraph()
	allowed := uuid.New()
	denied := uuid.New()
	g.Grant(allowed, "alice", RelationViewer)

	resources := []Resource{
		{Type: EntityTable, ID: allowed},
		{Type: EntityTable, ID: denied},
	}
	decisions, err := g.CheckBatch(context.Background(), commit.Principal{ID: "alice"}, "ReadTableMetadata", resources)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(decisions))
	}
	if decisions[0] != Allow {
		t.Errorf("expected first resource to be Allow, got %v", decisions[0])
	}
	if decisions[1] != DenyNotFound {
		t.Errorf("expected second resource to be DenyNotFound, got %v", decisions[1])
	}
}
