package model

import "time"

// Namespace is a hierarchical grouping within a warehouse; paths are
// ordered sequences of segments, case-preserved for display under a
// case-insensitive comparison collation (DESIGN.md Open Question #1).
type Namespace struct {
	ID          NamespaceID
	WarehouseID WarehouseID

	// Path is the ordered, case-preserved segment list, e.g. ["sales",
	// "eu"] for namespace "sales.eu".
	Path []string

	Properties map[string]string

	// Location overrides the warehouse's default storage location for
	// everything under this namespace, when set.
	Location string

	// ManagedAccess strips grant-administration rights from object
	// owners under this namespace, centralizing them in administrators.
	ManagedAccess bool

	DeletedAt *time.Time
	Protected bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FoldPath returns the case-folded comparison key for the namespace path,
// joined so it can back a unique index.
func FoldPath(path []string) string {
	key := ""
	for i, seg := range path {
		if i > 0 {
			key += "\x1f"
		}
		key += FoldKey(seg)
	}
	return key
}

// IsDeleted reports whether the namespace is currently soft-deleted.
func (n Namespace) IsDeleted() bool { return n.DeletedAt != nil }
