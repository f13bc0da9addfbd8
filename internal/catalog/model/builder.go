package model

import "fmt"

// UpdateError reports that an update could not be applied to the
// in-progress metadata, distinct from a RequirementError: requirements
// fail against the pre-image before any update runs, while an
// UpdateError fails mid-application of the update list itself.
type UpdateError struct {
	Update string
	Reason string
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update %q rejected: %s", e.Update, e.Reason)
}

// TableMetadataBuilder applies an ordered list of Updates to a starting
// TableMetadata, producing the committed new state. It holds no
// reference to storage or the clock beyond what's passed in; every
// rejection rule from spec.md §4.2 step 6 lives here so it is unit
// testable without a database.
type TableMetadataBuilder struct {
	meta *TableMetadata
	now  int64 // ms, fixed for the whole commit so repeated snapshots still get monotonically increasing values below
	lastAssignedSchemaID int
	lastAssignedSpecID   int
	lastAssignedSortID   int
	seenTimestamps       map[int64]bool
}

// NewTableMetadataBuilder starts a build from a pre-image (the empty
// metadata for a brand-new table, or the loaded current state).
func NewTableMetadataBuilder(meta TableMetadata, nowMs int64) *TableMetadataBuilder {
	m := meta
	b := &TableMetadataBuilder{meta: &m, now: nowMs, seenTimestamps: map[int64]bool{}}
	for _, s := range m.Schemas {
		if s.SchemaID > b.lastAssignedSchemaID {
			b.lastAssignedSchemaID = s.SchemaID
		}
	}
	for _, p := range m.PartitionSpecs {
		if p.SpecID > b.lastAssignedSpecID {
			b.lastAssignedSpecID = p.SpecID
		}
	}
	for _, so := range m.SortOrders {
		if so.SortID > b.lastAssignedSortID {
			b.lastAssignedSortID = so.SortID
		}
	}
	for _, s := range m.Snapshots {
		b.seenTimestamps[s.TimestampMs] = true
	}
	return b
}

// Apply runs the update list in order, returning the first rejection, or
// the new metadata on success.
func (b *TableMetadataBuilder) Apply(updates []Update) (*TableMetadata, error) {
	for _, u := range updates {
		if err := b.apply(u); err != nil {
			return nil, err
		}
	}
	b.meta.LastUpdatedMs = b.now
	return b.meta, nil
}

func (b *TableMetadataBuilder) apply(u Update) error {
	switch up := u.(type) {
	case AddSchema:
		return b.addSchema(up)
	case SetCurrentSchema:
		return b.setCurrentSchema(up)
	case AddPartitionSpec:
		return b.addPartitionSpec(up)
	case SetDefaultSpec:
		return b.setDefaultSpec(up)
	case AddSortOrder:
		return b.addSortOrder(up)
	case SetDefaultSortOrder:
		return b.setDefaultSortOrder(up)
	case AddSnapshot:
		return b.addSnapshot(up)
	case RemoveSnapshots:
		return b.removeSnapshots(up)
	case SetSnapshotRef:
		return b.setSnapshotRef(up)
	case RemoveSnapshotRef:
		return b.removeSnapshotRef(up)
	case SetProperties:
		return b.setProperties(up)
	case RemoveProperties:
		return b.removeProperties(up)
	case SetLocation:
		b.meta.Location = up.Location
		return nil
	case UpgradeFormatVersion:
		return b.upgradeFormatVersion(up)
	case AssignUUID:
		b.meta.TableUUID = up.UUID
		return nil
	case SetStatistics:
		return b.setStatistics(up)
	case RemoveStatistics:
		return b.removeStatistics(up)
	default:
		return &UpdateError{Update: u.Kind(), Reason: "unsupported update for a table; view updates require the view builder"}
	}
}

func (b *TableMetadataBuilder) addSchema(up AddSchema) error {
	s := up.Schema
	// Reassign the schema id if the client's proposed id collides with
	// one already present (step 6: "reassigns ids for added
	// schemas/specs/sort-orders if the client supplied ones collide").
	if _, exists := b.meta.SchemaByID(s.SchemaID); exists || s.SchemaID <= b.lastAssignedSchemaID {
		b.lastAssignedSchemaID++
		s.SchemaID = b.lastAssignedSchemaID
	} else {
		b.lastAssignedSchemaID = s.SchemaID
	}
	if maxID := s.MaxFieldID(); maxID > b.meta.LastColumnID {
		b.meta.LastColumnID = maxID
	}
	b.meta.Schemas = append(b.meta.Schemas, s)
	return nil
}

func (b *TableMetadataBuilder) setCurrentSchema(up SetCurrentSchema) error {
	id := up.SchemaID
	if id == -1 {
		id = b.lastAssignedSchemaID
	}
	if _, ok := b.meta.SchemaByID(id); !ok {
		return &UpdateError{Update: up.Kind(), Reason: fmt.Sprintf("schema %d not found", id)}
	}
	b.meta.CurrentSchemaID = id
	return nil
}

func (b *TableMetadataBuilder) addPartitionSpec(up AddPartitionSpec) error {
	s := up.Spec
	if _, exists := b.meta.SpecByID(s.SpecID); exists || s.SpecID <= b.lastAssignedSpecID {
		b.lastAssignedSpecID++
		s.SpecID = b.lastAssignedSpecID
	} else {
		b.lastAssignedSpecID = s.SpecID
	}
	if maxID := s.MaxFieldID(); maxID > b.meta.LastPartitionID {
		b.meta.LastPartitionID = maxID
	}
	b.meta.PartitionSpecs = append(b.meta.PartitionSpecs, s)
	return nil
}

func (b *TableMetadataBuilder) setDefaultSpec(up SetDefaultSpec) error {
	id := up.SpecID
	if id == -1 {
		id = b.lastAssignedSpecID
	}
	if _, ok := b.meta.SpecByID(id); !ok {
		return &UpdateError{Update: up.Kind(), Reason: fmt.Sprintf("partition spec %d not found", id)}
	}
	b.meta.DefaultSpecID = id
	return nil
}

func (b *TableMetadataBuilder) addSortOrder(up AddSortOrder) error {
	s := up.SortOrder
	if _, exists := b.meta.SortOrderByID(s.SortID); exists || (s.SortID != 0 && s.SortID <= b.lastAssignedSortID) {
		b.lastAssignedSortID++
		s.SortID = b.lastAssignedSortID
	} else if s.SortID > b.lastAssignedSortID {
		b.lastAssignedSortID = s.SortID
	}
	b.meta.SortOrders = append(b.meta.SortOrders, s)
	return nil
}

func (b *TableMetadataBuilder) setDefaultSortOrder(up SetDefaultSortOrder) error {
	id := up.SortOrderID
	if id == -1 {
		id = b.lastAssignedSortID
	}
	if _, ok := b.meta.SortOrderByID(id); !ok && id != 0 {
		return &UpdateError{Update: up.Kind(), Reason: fmt.Sprintf("sort order %d not found", id)}
	}
	b.meta.DefaultSortOrderID = id
	return nil
}

func (b *TableMetadataBuilder) addSnapshot(up AddSnapshot) error {
	s := up.Snapshot
	if s.SequenceNumber <= b.meta.LastSequenceNumber {
		// A sequence number at or below last_sequence_number is not
		// rejected: the snapshot is renumbered to last_sequence_number+1.
		s.SequenceNumber = b.meta.LastSequenceNumber + 1
	}
	if _, ok := b.meta.SchemaByID(s.SchemaID); !ok {
		return &UpdateError{Update: up.Kind(), Reason: fmt.Sprintf("snapshot references unknown schema %d", s.SchemaID)}
	}
	// Timestamp monotonicity (step 6): a timestamp below the pre-image's
	// last-updated-ms is raised to it, and one already observed is
	// bumped until unused.
	if s.TimestampMs < b.meta.LastUpdatedMs {
		s.TimestampMs = b.meta.LastUpdatedMs
	}
	for b.seenTimestamps[s.TimestampMs] {
		s.TimestampMs++
	}
	b.seenTimestamps[s.TimestampMs] = true

	b.meta.LastSequenceNumber = s.SequenceNumber
	b.meta.Snapshots = append(b.meta.Snapshots, s)
	b.meta.SnapshotLog = append(b.meta.SnapshotLog, SnapshotLogEntry{TimestampMs: s.TimestampMs, SnapshotID: s.SnapshotID})
	return nil
}

func (b *TableMetadataBuilder) removeSnapshots(up RemoveSnapshots) error {
	remove := make(map[int64]bool, len(up.SnapshotIDs))
	for _, id := range up.SnapshotIDs {
		remove[id] = true
	}
	kept := b.meta.Snapshots[:0:0]
	for _, s := range b.meta.Snapshots {
		if !remove[s.SnapshotID] {
			kept = append(kept, s)
		}
	}
	b.meta.Snapshots = kept
	if b.meta.CurrentSnapshotID != nil && remove[*b.meta.CurrentSnapshotID] {
		b.meta.CurrentSnapshotID = nil
	}
	return nil
}

func (b *TableMetadataBuilder) setSnapshotRef(up SetSnapshotRef) error {
	if _, ok := b.meta.SnapshotByID(up.SnapshotID); !ok {
		// step 6: "set a snapshot ref to a non-existent snapshot" is
		// rejected outright.
		return &UpdateError{Update: up.Kind(), Reason: fmt.Sprintf("snapshot %d does not exist", up.SnapshotID)}
	}
	newRef := Ref{Name: up.Ref, Type: up.Type, SnapshotID: up.SnapshotID, Retention: up.Retention}
	replaced := false
	for i, r := range b.meta.Refs {
		if r.Name == up.Ref {
			b.meta.Refs[i] = newRef
			replaced = true
			break
		}
	}
	if !replaced {
		b.meta.Refs = append(b.meta.Refs, newRef)
	}
	if up.Ref == "main" {
		id := up.SnapshotID
		b.meta.CurrentSnapshotID = &id
	}
	return nil
}

func (b *TableMetadataBuilder) removeSnapshotRef(up RemoveSnapshotRef) error {
	kept := b.meta.Refs[:0:0]
	for _, r := range b.meta.Refs {
		if r.Name != up.Ref {
			kept = append(kept, r)
		}
	}
	b.meta.Refs = kept
	if up.Ref == "main" {
		b.meta.CurrentSnapshotID = nil
	}
	return nil
}

func (b *TableMetadataBuilder) setProperties(up SetProperties) error {
	if b.meta.Properties == nil {
		b.meta.Properties = map[string]string{}
	}
	for k, v := range up.Properties {
		if BlacklistedProperties[k] {
			return &UpdateError{Update: up.Kind(), Reason: fmt.Sprintf("property %q is server-managed and cannot be set directly", k)}
		}
		b.meta.Properties[k] = v
	}
	return nil
}

func (b *TableMetadataBuilder) removeProperties(up RemoveProperties) error {
	for _, k := range up.Keys {
		delete(b.meta.Properties, k)
	}
	return nil
}

func (b *TableMetadataBuilder) upgradeFormatVersion(up UpgradeFormatVersion) error {
	if up.FormatVersion < b.meta.FormatVersion {
		return &UpdateError{Update: up.Kind(), Reason: "format version cannot be downgraded"}
	}
	b.meta.FormatVersion = up.FormatVersion
	return nil
}

func (b *TableMetadataBuilder) setStatistics(up SetStatistics) error {
	kept := b.meta.TableStatistics[:0:0]
	for _, s := range b.meta.TableStatistics {
		if s.SnapshotID != up.Statistics.SnapshotID {
			kept = append(kept, s)
		}
	}
	b.meta.TableStatistics = append(kept, up.Statistics)
	return nil
}

func (b *TableMetadataBuilder) removeStatistics(up RemoveStatistics) error {
	kept := b.meta.TableStatistics[:0:0]
	for _, s := range b.meta.TableStatistics {
		if s.SnapshotID != up.SnapshotID {
			kept = append(kept, s)
		}
	}
	b.meta.TableStatistics = kept
	return nil
}
