// Package model defines the catalog's data model: the entity tree rooted
// at the server (projects, warehouses, namespaces, tabulars) and the
// decomposed Iceberg table/view metadata that hangs off each tabular.
package model

import "github.com/google/uuid"

// ProjectID, WarehouseID, NamespaceID and TabularID are opaque, globally
// unique identifiers, stable across renames. Cross-entity references
// always use these, never paths; paths exist only at the protocol edge
// and in the fuzzy-search index.
type (
	ProjectID   = uuid.UUID
	WarehouseID = uuid.UUID
	NamespaceID = uuid.UUID
	TabularID   = uuid.UUID
)

// TabularKind distinguishes a table from a view; both share storage and
// lifecycle machinery (they are the "tabular" of the glossary) but carry
// distinct metadata shapes.
type TabularKind string

const (
	KindTable TabularKind = "table"
	KindView  TabularKind = "view"
)

// TableIdentifier is the human path form of a tabular: warehouse id plus
// namespace path plus name. It is never used as a storage key, only to
// resolve to a TabularID at the protocol edge.
type TableIdentifier struct {
	WarehouseID    WarehouseID
	NamespacePath  []string
	Name           string
}

// String renders the identifier as a dotted path for logging and the
// fuzzy-search index, e.g. "sales.orders" for namespace ["sales"].
func (t TableIdentifier) String() string {
	s := ""
	for _, seg := range t.NamespacePath {
		s += seg + "."
	}
	return s + t.Name
}

// NewUUID returns a fresh random identifier, used wherever a new
// TableUUID/ViewUUID or entity id is minted.
func NewUUID() string { return uuid.NewString() }

// FoldKey returns the case-folded comparison key used for lookups and
// uniqueness checks. Display always uses the case-preserved original;
// only comparison folds case. See DESIGN.md's Open Question #1.
func FoldKey(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r - 'A' + 'a'
		}
		out = append(out, r)
	}
	return string(out)
}
