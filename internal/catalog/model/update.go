package model

// Update is one mutation applied to a table or view's metadata within a
// single commit (spec.md §4.2). Updates are applied in order via the
// pure TableMetadataBuilder.
type Update interface {
	// Kind identifies the update for audit logging and event payloads.
	Kind() string
}

type AddSchema struct {
	Schema Schema
	// LastColumnID carries the client's last-column-id as sent; the
	// builder does not read it and raises the table's last-column-id
	// from the schema's highest field id instead.
	LastColumnID int
}

func (AddSchema) Kind() string { return "add-schema" }

type SetCurrentSchema struct{ SchemaID int } // -1 means "the last one added"

func (SetCurrentSchema) Kind() string { return "set-current-schema" }

type AddPartitionSpec struct{ Spec PartitionSpec }

func (AddPartitionSpec) Kind() string { return "add-partition-spec" }

type SetDefaultSpec struct{ SpecID int } // -1 means "the last one added"

func (SetDefaultSpec) Kind() string { return "set-default-spec" }

type AddSortOrder struct{ SortOrder SortOrder }

func (AddSortOrder) Kind() string { return "add-sort-order" }

type SetDefaultSortOrder struct{ SortOrderID int } // -1 means "the last one added"

func (SetDefaultSortOrder) Kind() string { return "set-default-sort-order" }

type AddSnapshot struct{ Snapshot Snapshot }

func (AddSnapshot) Kind() string { return "add-snapshot" }

type RemoveSnapshots struct{ SnapshotIDs []int64 }

func (RemoveSnapshots) Kind() string { return "remove-snapshots" }

type SetSnapshotRef struct {
	Ref        string
	Type       RefType
	SnapshotID int64
	Retention  RetentionPolicy
}

func (SetSnapshotRef) Kind() string { return "set-snapshot-ref" }

type RemoveSnapshotRef struct{ Ref string }

func (RemoveSnapshotRef) Kind() string { return "remove-snapshot-ref" }

type SetProperties struct{ Properties map[string]string }

func (SetProperties) Kind() string { return "set-properties" }

type RemoveProperties struct{ Keys []string }

func (RemoveProperties) Kind() string { return "remove-properties" }

type SetLocation struct{ Location string }

func (SetLocation) Kind() string { return "set-location" }

type UpgradeFormatVersion struct{ FormatVersion int }

func (UpgradeFormatVersion) Kind() string { return "upgrade-format-version" }

type AssignUUID struct{ UUID string }

func (AssignUUID) Kind() string { return "assign-uuid" }

type SetStatistics struct{ Statistics TableStatistics }

func (SetStatistics) Kind() string { return "set-statistics" }

type RemoveStatistics struct{ SnapshotID int64 }

func (RemoveStatistics) Kind() string { return "remove-statistics" }

// View-only updates.

type AddViewVersion struct{ Version ViewVersion }

func (AddViewVersion) Kind() string { return "add-view-version" }

type SetCurrentViewVersion struct{ VersionID int } // -1 means "the last one added"

func (SetCurrentViewVersion) Kind() string { return "set-current-view-version" }

// BlacklistedProperties are property keys a client is never allowed to
// set directly; they're server-computed (spec.md §4.2 step 6: "refuses
// to accept the blacklisted write-metadata-path / write-data-path
// properties").
var BlacklistedProperties = map[string]bool{
	"write.metadata.path": true,
	"write.data.path":     true,
}
