package model

import "testing"

func TestAssertCreate(t *testing.T) {
	if err := (AssertCreate{}).Evaluate(nil, true); err == nil {
		t.Fatal("expected failure when table already exists")
	}
	if err := (AssertCreate{}).Evaluate(nil, false); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestAssertCurrentSchemaID(t *testing.T) {
	meta := &TableMetadata{CurrentSchemaID: 3}
	if err := (AssertCurrentSchemaID{N: 3}).Evaluate(meta, true); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := (AssertCurrentSchemaID{N: 4}).Evaluate(meta, true); err == nil {
		t.Fatal("expected failure on mismatch")
	}
}

func TestAssertRefSnapshotID_AbsentRef(t *testing.T) {
	meta := &TableMetadata{}
	if err := (AssertRefSnapshotID{Ref: "main", SnapshotID: nil}).Evaluate(meta, true); err != nil {
		t.Fatalf("expected success when ref absent and expectation nil, got %v", err)
	}
}

func TestAssertRefSnapshotID_Mismatch(t *testing.T) {
	meta := &TableMetadata{Refs: []Ref{{Name: "main", SnapshotID: 1}}}
	id := int64(2)
	if err := (AssertRefSnapshotID{Ref: "main", SnapshotID: &id}).Evaluate(meta, true); err == nil {
		t.Fatal("expected failure on snapshot id mismatch")
	}
}

func TestEvaluateRequirements_FirstFailureWins(t *testing.T) {
	meta := &TableMetadata{CurrentSchemaID: 0}
	reqs := []Requirement{
		AssertCurrentSchemaID{N: 0},
		AssertLastAssignedFieldID{N: 99}, // will fail
	}
	err := EvaluateRequirements(reqs, meta, true)
	if err == nil {
		t.Fatal("expected failure")
	}
	reqErr, ok := err.(*RequirementError)
	if !ok {
		t.Fatalf("expected *RequirementError, got %T", err)
	}
	if reqErr.Requirement != "assert-last-assigned-field-id" {
		t.Fatalf("expected first failure to be reported, got %q", reqErr.Requirement)
	}
}
