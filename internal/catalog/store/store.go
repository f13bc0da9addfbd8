// Package store implements the Catalog Store (C1): durable, transactional
// persistence of projects, warehouses, namespaces, and tabulars, and the
// fully decomposed Iceberg table-metadata graph that hangs off each
// tabular. Row-level locking backs the Commit Engine's serialization; a
// single-query load path backs the hot loadTable path.
package store

import (
	"context"
	"time"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
)

// Page is one cursor-paginated result set. Cursor is opaque to callers
// and round-trips through Page.NextCursor; an empty NextCursor means the
// caller has reached the end (spec.md §4.1: "empty-page-skipping is
// mandatory", "the final page may be short or empty").
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// ListOptions parameterizes a cursor-paginated list call.
type ListOptions struct {
	Cursor      string
	PageSize    int
	IncludeDeleted bool
}

// MetadataDelta is the set of satellite-row mutations a commit produces,
// computed by diffing the pre- and post-commit TableMetadata (spec.md
// §4.1 "Persist-metadata delta").
type MetadataDelta struct {
	TabularID model.TabularID

	// SetTabularStatus, when non-empty, transitions the owning tabular
	// row's status as part of the same persist call — used by the
	// commit engine to flip staged to live on a table's first commit.
	SetTabularStatus model.TabularStatus

	AddSchemas        []model.Schema
	AddPartitionSpecs []model.PartitionSpec
	AddSortOrders     []model.SortOrder
	AddSnapshots      []model.Snapshot
	RemoveSnapshotIDs []int64
	SnapshotLogAppend []model.SnapshotLogEntry
	MetadataLogAppend model.MetadataLogEntry
	UpsertRefs        []model.Ref
	RemoveRefNames    []string
	SetProperties     map[string]string
	RemovePropertyKeys []string
	UpsertTableStatistics []model.TableStatistics
	RemoveTableStatisticsSnapshotIDs []int64

	// Scalars replace the table row's counters wholesale, per spec.md
	// §4.1: "the table row's scalar counters ... are replaced with the
	// committed values".
	NewLocation           string
	NewMetadataLocation   string
	NewLastSequenceNumber int64
	NewLastColumnID       int
	NewLastUpdatedMs      int64
	NewLastPartitionID    int
	NewFormatVersion      int
	NewCurrentSchemaID    int
	NewDefaultSpecID      int
	NewDefaultSortOrderID int
	NewCurrentSnapshotID  *int64
	NewTableUUID          string
}

// Store is the C1 public contract. Each entity type exposes a subset of
// the common create/get/list/update/soft-delete/hard-delete/rename/
// lock-for-update shape described by spec.md §4.1 (projects only
// create/get/list/delete; only tabulars lock-for-update); tables and
// views additionally expose LoadTableMetadata and PersistMetadataDelta.
type Store interface {
	// Projects.
	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, id model.ProjectID) (*model.Project, error)
	ListProjects(ctx context.Context, opts ListOptions) (Page[model.Project], error)
	DeleteProject(ctx context.Context, id model.ProjectID) error

	// Warehouses.
	CreateWarehouse(ctx context.Context, w *model.Warehouse) error
	GetWarehouse(ctx context.Context, id model.WarehouseID) (*model.Warehouse, error)
	GetWarehouseByName(ctx context.Context, projectID model.ProjectID, name string) (*model.Warehouse, error)
	ListWarehouses(ctx context.Context, projectID model.ProjectID, opts ListOptions) (Page[model.Warehouse], error)
	UpdateWarehouse(ctx context.Context, w *model.Warehouse) (version int64, err error)
	RenameWarehouse(ctx context.Context, id model.WarehouseID, newName string) error
	DeleteWarehouse(ctx context.Context, id model.WarehouseID, force bool) error

	// Namespaces.
	CreateNamespace(ctx context.Context, ns *model.Namespace) error
	GetNamespace(ctx context.Context, id model.NamespaceID) (*model.Namespace, error)
	GetNamespaceByPath(ctx context.Context, warehouseID model.WarehouseID, path []string) (*model.Namespace, error)
	ListNamespaces(ctx context.Context, warehouseID model.WarehouseID, parentPath []string, opts ListOptions) (Page[model.Namespace], error)
	UpdateNamespaceProperties(ctx context.Context, id model.NamespaceID, set map[string]string, remove []string) error
	SoftDeleteNamespace(ctx context.Context, id model.NamespaceID, force bool) error
	HardDeleteNamespace(ctx context.Context, id model.NamespaceID) error

	// Tabulars (tables and views share lifecycle machinery).
	CreateTabular(ctx context.Context, t *model.Tabular) error
	GetTabular(ctx context.Context, id model.TabularID) (*model.Tabular, error)
	GetTabularByPath(ctx context.Context, warehouseID model.WarehouseID, namespacePath []string, name string, kind model.TabularKind) (*model.Tabular, error)
	ListTabulars(ctx context.Context, namespaceID model.NamespaceID, kind model.TabularKind, opts ListOptions) (Page[model.Tabular], error)
	RenameTabular(ctx context.Context, id model.TabularID, newNamespacePath []string, newName string) error
	SoftDeleteTabular(ctx context.Context, id model.TabularID, force bool) error
	HardDeleteTabular(ctx context.Context, id model.TabularID) error
	// LockForUpdate takes a row-level lock (SELECT ... FOR UPDATE) on the
	// tabular row for the duration of the enclosing transaction,
	// returning the current row or NotFound.
	LockForUpdate(ctx context.Context, id model.TabularID) (*model.Tabular, error)

	// Table-metadata hot path.
	LoadTableMetadata(ctx context.Context, tabularID model.TabularID) (*model.TableMetadata, error)
	PersistMetadataDelta(ctx context.Context, delta MetadataDelta) error

	// Fuzzy search, spec.md §4.1.
	SearchTabulars(ctx context.Context, warehouseID model.WarehouseID, fragment string, limit int) ([]TabularSearchResult, error)

	// ResolveByLocationPrefix finds the tabular whose fs_location is the
	// longest prefix of uri within the given warehouse, for the remote
	// signing endpoint's authorization gate (spec.md §4.4).
	ResolveByLocationPrefix(ctx context.Context, warehouseID model.WarehouseID, uri string) (tableID model.TabularID, matchedPrefix string, err error)

	// WithTx runs fn inside a single database transaction; the Store
	// passed to fn shares that transaction for every call it makes. Used
	// by the commit engine to bracket authorize -> lock -> load -> check
	// -> apply -> persist in one atomic unit.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Close()
}

// TabularSearchResult is one hit from SearchTabulars, ranked by trigram
// similarity (spec.md §4.1).
type TabularSearchResult struct {
	Tabular    model.Tabular
	Similarity float64
}

// Clock abstracts time.Now for deterministic tests of TTL-driven logic
// (expiration scheduling, cache staleness).
type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock is the production Clock.
var RealClock Clock = realClock{}
