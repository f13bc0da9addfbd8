package model

import "time"

// TabularStatus tracks where a table or view sits in the lifecycle state
// machine described by spec.md §4.2:
//
//	(none) -create-> staged -commit-> live -drop(soft)-> soft-deleted -expire-> purged
//	                    \-drop-> (none)
type TabularStatus string

const (
	StatusStaged      TabularStatus = "staged"
	StatusLive        TabularStatus = "live"
	StatusSoftDeleted TabularStatus = "soft-deleted"
)

// Tabular is the projection of a table or view's non-metadata
// bookkeeping into a normalized row: identity, location, soft-delete and
// protection state. The Iceberg metadata proper (schemas, snapshots,
// etc.) hangs off it via the satellite rows in TableMetadata.
type Tabular struct {
	ID            TabularID
	WarehouseID   WarehouseID
	NamespaceID   NamespaceID
	Kind          TabularKind
	Name          string
	NamespacePath []string // denormalized, kept in sync with the namespace row

	Status TabularStatus

	MetadataLocation string // current metadata-file URI
	FSLocation       string // filesystem/object-storage base location

	Protected bool
	DeletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDeleted reports whether the tabular is currently soft-deleted.
func (t Tabular) IsDeleted() bool { return t.DeletedAt != nil }

// Identifier renders the dotted-path identifier for this tabular.
func (t Tabular) Identifier() TableIdentifier {
	return TableIdentifier{WarehouseID: t.WarehouseID, NamespacePath: t.NamespacePath, Name: t.Name}
}

// TableMetadata is the in-memory, fully-assembled Iceberg table metadata
// document. It is rebuilt fresh from normalized rows on every load and
// commit (§4.1's "load-metadata in one query"); it is never itself the
// thing persisted — persistence operates on the satellite rows via
// PersistMetadataDelta. The in-memory value is transient, owned
// exclusively by the transaction that assembled it.
type TableMetadata struct {
	TableUUID     string `json:"table-uuid"`
	FormatVersion int    `json:"format-version"`
	Location      string `json:"location"`

	LastSequenceNumber int64 `json:"last-sequence-number"`
	LastColumnID       int   `json:"last-column-id"`
	LastUpdatedMs      int64 `json:"last-updated-ms"`
	LastPartitionID    int   `json:"last-partition-id"`
	NextRowID          int64 `json:"next-row-id,omitempty"`

	Schemas         []Schema `json:"schemas"`
	CurrentSchemaID int      `json:"current-schema-id"`

	PartitionSpecs []PartitionSpec `json:"partition-specs"`
	DefaultSpecID  int             `json:"default-spec-id"`

	SortOrders         []SortOrder `json:"sort-orders"`
	DefaultSortOrderID int         `json:"default-sort-order-id"`

	Snapshots         []Snapshot         `json:"snapshots,omitempty"`
	CurrentSnapshotID *int64             `json:"current-snapshot-id,omitempty"`
	SnapshotLog       []SnapshotLogEntry `json:"snapshot-log,omitempty"`
	MetadataLog       []MetadataLogEntry `json:"metadata-log,omitempty"`

	Refs []Ref `json:"refs,omitempty"`

	Properties map[string]string `json:"properties,omitempty"`

	TableStatistics     []TableStatistics     `json:"table-statistics,omitempty"`
	PartitionStatistics []PartitionStatistics `json:"partition-statistics,omitempty"`
}

// CurrentSchema returns the schema named by CurrentSchemaID.
func (m TableMetadata) CurrentSchema() (Schema, bool) {
	for _, s := range m.Schemas {
		if s.SchemaID == m.CurrentSchemaID {
			return s, true
		}
	}
	return Schema{}, false
}

// SchemaByID looks up a schema by id.
func (m TableMetadata) SchemaByID(id int) (Schema, bool) {
	for _, s := range m.Schemas {
		if s.SchemaID == id {
			return s, true
		}
	}
	return Schema{}, false
}

// SpecByID looks up a partition spec by id.
func (m TableMetadata) SpecByID(id int) (PartitionSpec, bool) {
	for _, p := range m.PartitionSpecs {
		if p.SpecID == id {
			return p, true
		}
	}
	return PartitionSpec{}, false
}

// SortOrderByID looks up a sort order by id.
func (m TableMetadata) SortOrderByID(id int) (SortOrder, bool) {
	for _, so := range m.SortOrders {
		if so.SortID == id {
			return so, true
		}
	}
	return SortOrder{}, false
}

// SnapshotByID looks up a snapshot by id.
func (m TableMetadata) SnapshotByID(id int64) (Snapshot, bool) {
	for _, s := range m.Snapshots {
		if s.SnapshotID == id {
			return s, true
		}
	}
	return Snapshot{}, false
}

// RefByName looks up a ref by name.
func (m TableMetadata) RefByName(name string) (Ref, bool) {
	for _, r := range m.Refs {
		if r.Name == name {
			return r, true
		}
	}
	return Ref{}, false
}

// NewTableMetadata builds the empty starting metadata for a freshly
// staged or created table, per spec.md §4.2 step 4 ("construct the empty
// starting metadata for the declared format-version").
func NewTableMetadata(location string, formatVersion int, schema Schema, spec PartitionSpec, sortOrder SortOrder) *TableMetadata {
	now := time.Now().UnixMilli()
	return &TableMetadata{
		TableUUID:          NewUUID(),
		FormatVersion:      formatVersion,
		Location:           location,
		LastColumnID:       schema.MaxFieldID(),
		LastUpdatedMs:      now,
		LastPartitionID:    spec.MaxFieldID(),
		Schemas:            []Schema{schema},
		CurrentSchemaID:    schema.SchemaID,
		PartitionSpecs:     []PartitionSpec{spec},
		DefaultSpecID:      spec.SpecID,
		SortOrders:         []SortOrder{sortOrder},
		DefaultSortOrderID: sortOrder.SortID,
		Properties:         map[string]string{},
	}
}

// ViewVersion is one version of a view's query definition, analogous to
// a table snapshot but pointing at a SQL representation instead of a
// manifest list.
type ViewVersion struct {
	VersionID       int
	TimestampMs     int64
	SchemaID        int
	Representations []ViewRepresentation
	DefaultCatalog  string
	DefaultNamespace []string
	Summary         map[string]string
}

// ViewRepresentation is one SQL dialect's rendering of a view's query.
type ViewRepresentation struct {
	Dialect string
	SQL     string
}

// ViewMetadata is the in-memory, fully-assembled Iceberg view metadata
// document, the view analog of TableMetadata.
type ViewMetadata struct {
	ViewUUID      string
	FormatVersion int
	Location      string

	Schemas         []Schema
	Versions        []ViewVersion
	CurrentVersionID int
	VersionLog      []ViewVersionLogEntry

	Properties map[string]string
}

// ViewVersionLogEntry records the history of which version was current.
type ViewVersionLogEntry struct {
	TimestampMs int64
	VersionID   int
}

// CurrentVersion returns the view version named by CurrentVersionID.
func (m ViewMetadata) CurrentVersion() (ViewVersion, bool) {
	for _, v := range m.Versions {
		if v.VersionID == m.CurrentVersionID {
			return v, true
		}
	}
	return ViewVersion{}, false
}
