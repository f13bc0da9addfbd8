package model

import "fmt"

// RequirementError describes which precondition failed evaluation against
// the pre-image of a commit (spec.md §4.2 step 5). The commit engine
// translates this into a Conflict error citing the requirement.
type RequirementError struct {
	Requirement string
	Reason      string
}

func (e *RequirementError) Error() string {
	return fmt.Sprintf("requirement %q not satisfied: %s", e.Requirement, e.Reason)
}

// Requirement is a precondition evaluated against the pre-image of a
// commit; if false, the commit aborts (glossary). exists reports whether
// the tabular already existed before this commit; meta is its pre-image
// (zero value when it did not exist).
type Requirement interface {
	// Name identifies the requirement kind for error messages and audit
	// logging, e.g. "assert-current-schema-id".
	Name() string
	// Evaluate returns nil if satisfied, or a *RequirementError
	// otherwise.
	Evaluate(meta *TableMetadata, exists bool) error
}

// AssertCreate requires that the tabular must not yet exist.
type AssertCreate struct{}

func (AssertCreate) Name() string { return "assert-create" }

func (AssertCreate) Evaluate(_ *TableMetadata, exists bool) error {
	if exists {
		return &RequirementError{Requirement: "assert-create", Reason: "table already exists"}
	}
	return nil
}

// AssertTableUUID requires the pre-image's table-uuid to match.
type AssertTableUUID struct{ UUID string }

func (AssertTableUUID) Name() string { return "assert-table-uuid" }

func (r AssertTableUUID) Evaluate(meta *TableMetadata, exists bool) error {
	if !exists || meta == nil {
		return &RequirementError{Requirement: r.Name(), Reason: "table does not exist"}
	}
	if meta.TableUUID != r.UUID {
		return &RequirementError{Requirement: r.Name(), Reason: "table uuid mismatch"}
	}
	return nil
}

// AssertRefSnapshotID requires that Ref currently points to SnapshotID,
// or is absent entirely when SnapshotID is nil.
type AssertRefSnapshotID struct {
	Ref        string
	SnapshotID *int64
}

func (AssertRefSnapshotID) Name() string { return "assert-ref-snapshot-id" }

func (r AssertRefSnapshotID) Evaluate(meta *TableMetadata, exists bool) error {
	if !exists || meta == nil {
		if r.SnapshotID == nil {
			return nil
		}
		return &RequirementError{Requirement: r.Name(), Reason: "table does not exist"}
	}
	ref, ok := meta.RefByName(r.Ref)
	if r.SnapshotID == nil {
		if ok {
			return &RequirementError{Requirement: r.Name(), Reason: fmt.Sprintf("ref %q must be absent", r.Ref)}
		}
		return nil
	}
	if !ok {
		return &RequirementError{Requirement: r.Name(), Reason: fmt.Sprintf("ref %q does not exist", r.Ref)}
	}
	if ref.SnapshotID != *r.SnapshotID {
		return &RequirementError{Requirement: r.Name(), Reason: fmt.Sprintf("ref %q points to %d, expected %d", r.Ref, ref.SnapshotID, *r.SnapshotID)}
	}
	return nil
}

// AssertLastAssignedFieldID requires the pre-image's last-column-id to
// equal N.
type AssertLastAssignedFieldID struct{ N int }

func (AssertLastAssignedFieldID) Name() string { return "assert-last-assigned-field-id" }

func (r AssertLastAssignedFieldID) Evaluate(meta *TableMetadata, exists bool) error {
	if !exists || meta == nil {
		return &RequirementError{Requirement: r.Name(), Reason: "table does not exist"}
	}
	if meta.LastColumnID != r.N {
		return &RequirementError{Requirement: r.Name(), Reason: fmt.Sprintf("last-column-id is %d, expected %d", meta.LastColumnID, r.N)}
	}
	return nil
}

// AssertCurrentSchemaID requires the pre-image's current-schema-id to
// equal N.
type AssertCurrentSchemaID struct{ N int }

func (AssertCurrentSchemaID) Name() string { return "assert-current-schema-id" }

func (r AssertCurrentSchemaID) Evaluate(meta *TableMetadata, exists bool) error {
	if !exists || meta == nil {
		return &RequirementError{Requirement: r.Name(), Reason: "table does not exist"}
	}
	if meta.CurrentSchemaID != r.N {
		return &RequirementError{Requirement: r.Name(), Reason: fmt.Sprintf("current-schema-id is %d, expected %d", meta.CurrentSchemaID, r.N)}
	}
	return nil
}

// AssertLastAssignedPartitionID requires the pre-image's
// last-partition-id to equal N.
type AssertLastAssignedPartitionID struct{ N int }

func (AssertLastAssignedPartitionID) Name() string { return "assert-last-assigned-partition-id" }

func (r AssertLastAssignedPartitionID) Evaluate(meta *TableMetadata, exists bool) error {
	if !exists || meta == nil {
		return &RequirementError{Requirement: r.Name(), Reason: "table does not exist"}
	}
	if meta.LastPartitionID != r.N {
		return &RequirementError{Requirement: r.Name(), Reason: fmt.Sprintf("last-partition-id is %d, expected %d", meta.LastPartitionID, r.N)}
	}
	return nil
}

// AssertDefaultSpecID requires the pre-image's default-spec-id to equal
// N.
type AssertDefaultSpecID struct{ N int }

func (AssertDefaultSpecID) Name() string { return "assert-default-spec-id" }

func (r AssertDefaultSpecID) Evaluate(meta *TableMetadata, exists bool) error {
	if !exists || meta == nil {
		return &RequirementError{Requirement: r.Name(), Reason: "table does not exist"}
	}
	if meta.DefaultSpecID != r.N {
		return &RequirementError{Requirement: r.Name(), Reason: fmt.Sprintf("default-spec-id is %d, expected %d", meta.DefaultSpecID, r.N)}
	}
	return nil
}

// AssertDefaultSortOrderID requires the pre-image's default-sort-order-id
// to equal N.
type AssertDefaultSortOrderID struct{ N int }

func (AssertDefaultSortOrderID) Name() string { return "assert-default-sort-order-id" }

func (r AssertDefaultSortOrderID) Evaluate(meta *TableMetadata, exists bool) error {
	if !exists || meta == nil {
		return &RequirementError{Requirement: r.Name(), Reason: "table does not exist"}
	}
	if meta.DefaultSortOrderID != r.N {
		return &RequirementError{Requirement: r.Name(), Reason: fmt.Sprintf("default-sort-order-id is %d, expected %d", meta.DefaultSortOrderID, r.N)}
	}
	return nil
}

// EvaluateRequirements evaluates requirements in order against meta,
// returning the first failure (spec.md §4.2 step 5: "the first failure
// aborts with Conflict describing which requirement failed").
func EvaluateRequirements(reqs []Requirement, meta *TableMetadata, exists bool) error {
	for _, r := range reqs {
		if err := r.Evaluate(meta, exists); err != nil {
			return err
		}
	}
	return nil
}
