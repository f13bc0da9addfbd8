package model

// Type is an Iceberg data type, primitive or nested. Nested types are
// stored as their canonical string form (e.g. "list<int>",
// "struct<1: id: required int>") since the schema document itself is
// persisted as JSON and only the top-level field tree is queried.
type Type string

const (
	TypeBoolean   Type = "boolean"
	TypeInt       Type = "int"
	TypeLong      Type = "long"
	TypeFloat     Type = "float"
	TypeDouble    Type = "double"
	TypeDecimal   Type = "decimal"
	TypeDate      Type = "date"
	TypeTime      Type = "time"
	TypeTimestamp Type = "timestamp"
	TypeTimestamptz Type = "timestamptz"
	TypeString    Type = "string"
	TypeUUID      Type = "uuid"
	TypeFixed     Type = "fixed"
	TypeBinary    Type = "binary"
	TypeList      Type = "list"
	TypeMap       Type = "map"
	TypeStruct    Type = "struct"
)

// Field is one column of a schema (or nested struct). ID is globally
// unique within the table, assigned once and never reused, which is what
// last-column-id tracks on the table row.
type Field struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     Type   `json:"type"`
	Required bool   `json:"required"`
	Doc      string `json:"doc,omitempty"`
}

// Schema is one persisted `schema` row: a schema-id plus its JSON
// document (here, the parsed field list; the store serializes this
// struct as the JSON column verbatim).
type Schema struct {
	SchemaID int     `json:"schema-id"`
	Fields   []Field `json:"fields"`
	// IdentifierFieldIDs names the fields forming the row identity, used
	// by equality-delete planning in engines; the catalog only persists
	// it, never interprets it.
	IdentifierFieldIDs []int `json:"identifier-field-ids,omitempty"`
}

// MaxFieldID returns the highest field id assigned in this schema, used
// by the builder to validate last-column-id monotonicity.
func (s Schema) MaxFieldID() int {
	max := 0
	for _, f := range s.Fields {
		if f.ID > max {
			max = f.ID
		}
	}
	return max
}

// FieldByID looks up a field by id within the schema.
func (s Schema) FieldByID(id int) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}
