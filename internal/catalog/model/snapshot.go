package model

// Snapshot is one persisted `snapshot` row: an immutable pointer to a
// manifest-list, forming an append-only history within a table. Parent
// edges (child -> parent) form a DAG stored as an adjacency column;
// deletion never cascades upward so there is no cycle-elimination
// concern (DESIGN notes, spec.md §9).
type Snapshot struct {
	SnapshotID       int64             `json:"snapshot-id"`
	ParentSnapshotID *int64            `json:"parent-snapshot-id,omitempty"`
	SequenceNumber   int64             `json:"sequence-number"`
	ManifestList     string            `json:"manifest-list"`
	TimestampMs      int64             `json:"timestamp-ms"`
	Summary          map[string]string `json:"summary,omitempty"`
	SchemaID         int               `json:"schema-id"`
}

// SnapshotLogEntry is one persisted `snapshot_log` row, ordered by
// sequence number, recording the history of which snapshot was current
// at each point in time.
type SnapshotLogEntry struct {
	TimestampMs int64 `json:"timestamp-ms"`
	SnapshotID  int64 `json:"snapshot-id"`
}

// MetadataLogEntry is one persisted `metadata_log` row: a historical
// metadata-file URI, ordered by when it stopped being current.
type MetadataLogEntry struct {
	TimestampMs  int64  `json:"timestamp-ms"`
	MetadataFile string `json:"metadata-file"`
}

// RetentionPolicy governs how long a ref keeps its snapshot (and, for
// branches, its ancestor snapshots) reachable from garbage collection.
type RetentionPolicy struct {
	MinSnapshotsToKeep int   `json:"min-snapshots-to-keep,omitempty"`
	MaxSnapshotAgeMs   int64 `json:"max-snapshot-age-ms,omitempty"`
	MaxRefAgeMs        int64 `json:"max-ref-age-ms,omitempty"`
}

// RefType distinguishes a branch (mutable, accepts new commits) from a
// tag (immutable pointer, used for time travel).
type RefType string

const (
	RefBranch RefType = "branch"
	RefTag    RefType = "tag"
)

// Ref is one persisted `ref` row: a named pointer to a snapshot with a
// retention policy. "main" is the conventional default branch.
type Ref struct {
	Name       string          `json:"name"`
	Type       RefType         `json:"type"`
	SnapshotID int64           `json:"snapshot-id"`
	Retention  RetentionPolicy `json:"retention"`
}

// TableStatistics is one persisted `table_statistics` row, keyed by the
// snapshot it was computed against.
type TableStatistics struct {
	SnapshotID            int64  `json:"snapshot-id"`
	StatisticsPath        string `json:"statistics-path"`
	FileSizeInBytes       int64  `json:"file-size-in-bytes"`
	FileFooterSizeInBytes int64  `json:"file-footer-size-in-bytes"`
}

// PartitionStatistics is one persisted `partition_statistics` row, keyed
// by the snapshot it was computed against.
type PartitionStatistics struct {
	SnapshotID      int64  `json:"snapshot-id"`
	StatisticsPath  string `json:"statistics-path"`
	FileSizeInBytes int64  `json:"file-size-in-bytes"`
}
