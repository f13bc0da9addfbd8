package catalog

import (
	"encoding/json"
	"testing"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
)

func TestDecodeRequirements_AssertCreate(t *testing.T) {
	raw := []json.RawMessage{json.RawMessage(`{"type":"assert-create"}`)}
	reqs, err := decodeRequirements(raw)
	if err != nil {
		t.Fatalf("decodeRequirements: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected 1 requirement, got %d", len(reqs))
	}
	if _, ok := reqs[0].(model.AssertCreate); !ok {
		t.Fatalf("expected AssertCreate, got %T", reqs[0])
	}
}

func TestDecodeRequirements_AssertRefSnapshotID(t *testing.T) {
	raw := []json.RawMessage{json.RawMessage(`{"type":"assert-ref-snapshot-id","ref":"main","snapshot-id":42}`)}
	reqs, err := decodeRequirements(raw)
	if err != nil {
		t.Fatalf("decodeRequirements: %v", err)
	}
	req, ok := reqs[0].(model.AssertRefSnapshotID)
	if !ok {
		t.Fatalf("expected AssertRefSnapshotID, got %T", reqs[0])
	}
	if req.Ref != "main" || req.SnapshotID == nil || *req.SnapshotID != 42 {
		t.Fatalf("unexpected requirement contents: %+v", req)
	}
}

func TestDecodeRequirements_UnknownTypeFails(t *testing.T) {
	raw := []json.RawMessage{json.RawMessage(`{"type":"assert-something-made-up"}`)}
	if _, err := decodeRequirements(raw); err == nil {
		t.Fatal("expected an error for an unknown requirement type")
	}
}

func TestDecodeUpdates_SetPropertiesAndRemoveProperties(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"action":"set-properties","updates":{"k":"v"}}`),
		json.RawMessage(`{"action":"remove-properties","removals":["stale"]}`),
	}
	updates, err := decodeUpdates(raw)
	if err != nil {
		t.Fatalf("decodeUpdates: %v", err)
	}
	set, ok := updates[0].(model.SetProperties)
	if !ok || set.Properties["k"] != "v" {
		t.Fatalf("unexpected first update: %+v", updates[0])
	}
	remove, ok := updates[1].(model.RemoveProperties)
	if !ok || len(remove.Keys) != 1 || remove.Keys[0] != "stale" {
		t.Fatalf("unexpected second update: %+v", updates[1])
	}
}

func TestDecodeUpdates_AddSchemaRequiresSchema(t *testing.T) {
	raw := []json.RawMessage{json.RawMessage(`{"action":"add-schema"}`)}
	if _, err := decodeUpdates(raw); err == nil {
		t.Fatal("expected an error when add-schema is missing its schema field")
	}
}

func TestDecodeUpdates_UnknownActionFails(t *testing.T) {
	raw := []json.RawMessage{json.RawMessage(`{"action":"do-something-unsupported"}`)}
	if _, err := decodeUpdates(raw); err == nil {
		t.Fatal("expected an error for an unknown update action")
	}
}

func TestSplitMultipartIdentifier_SplitsOnUnitSeparator(t *testing.T) {
	encoded := "sales" + "\x1f" + "eu"
	parts, err := splitMultipartIdentifier(encoded)
	if err != nil {
		t.Fatalf("splitMultipartIdentifier: %v", err)
	}
	if len(parts) != 2 || parts[0] != "sales" || parts[1] != "eu" {
		t.Fatalf("unexpected parts: %v", parts)
	}
}

func TestSplitMultipartIdentifier_SingleSegment(t *testing.T) {
	parts, err := splitMultipartIdentifier("sales")
	if err != nil {
		t.Fatalf("splitMultipartIdentifier: %v", err)
	}
	if len(parts) != 1 || parts[0] != "sales" {
		t.Fatalf("unexpected parts: %v", parts)
	}
}

func TestNamespacePathFromMultipart_RejectsEmpty(t *testing.T) {
	if _, err := namespacePathFromMultipart(""); err == nil {
		t.Fatal("expected an error for an empty namespace identifier")
	}
}
