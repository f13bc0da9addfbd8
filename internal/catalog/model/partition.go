package model

// Transform is an Iceberg partition transform applied to a source field.
type Transform string

const (
	TransformIdentity Transform = "identity"
	TransformBucket   Transform = "bucket"
	TransformTruncate Transform = "truncate"
	TransformYear     Transform = "year"
	TransformMonth    Transform = "month"
	TransformDay      Transform = "day"
	TransformHour     Transform = "hour"
	TransformVoid     Transform = "void"
)

// PartitionField maps a source schema field to a partition column via a
// transform. FieldID is the partition-field id, distinct from SourceID
// (the schema field it derives from) and tracked by the table's
// last-partition-id counter.
type PartitionField struct {
	SourceID  int       `json:"source-id"`
	FieldID   int       `json:"field-id"`
	Name      string    `json:"name"`
	Transform Transform `json:"transform"`
}

// PartitionSpec is one persisted `partition_spec` row.
type PartitionSpec struct {
	SpecID int              `json:"spec-id"`
	Fields []PartitionField `json:"fields"`
}

// MaxFieldID returns the highest partition-field id in this spec.
func (p PartitionSpec) MaxFieldID() int {
	max := 0
	for _, f := range p.Fields {
		if f.FieldID > max {
			max = f.FieldID
		}
	}
	return max
}

// IsUnpartitioned reports whether this spec has no partition fields.
func (p PartitionSpec) IsUnpartitioned() bool { return len(p.Fields) == 0 }

// SortDirection is the ordering direction of a sort field.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// NullOrder places nulls first or last within a sort field.
type NullOrder string

const (
	NullsFirst NullOrder = "nulls-first"
	NullsLast  NullOrder = "nulls-last"
)

// SortField is one column of a sort order.
type SortField struct {
	SourceID  int           `json:"source-id"`
	Transform Transform     `json:"transform"`
	Direction SortDirection `json:"direction"`
	NullOrder NullOrder     `json:"null-order"`
}

// SortOrder is one persisted `sort_order` row. SortID 0 is always the
// reserved "unsorted" order and is never user-created.
type SortOrder struct {
	SortID int         `json:"order-id"`
	Fields []SortField `json:"fields"`
}

// IsUnsorted reports whether this is the reserved order-id-0 identity
// order.
func (s SortOrder) IsUnsorted() bool { return s.SortID == 0 && len(s.Fields) == 0 }
