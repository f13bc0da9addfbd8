// Package catalog adapts the Commit Engine, Catalog Store, and Storage
// Access Broker onto the public Iceberg REST Catalog protocol under
// /catalog, plus the remote-signing endpoint, following the thin
// Gin-router-over-a-domain-service shape of internal/api/server.go.
package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// requirementWire and updateWire are the tagged-union wire shapes the
// Iceberg REST spec uses for commit requirements/updates — a flat JSON
// object carrying every variant's fields as optional, discriminated by
// "type"/"action". decodeRequirements/decodeUpdates translate these into
// the model package's one-struct-per-variant Go representation.
type requirementWire struct {
	Type       string `json:"type"`
	Ref        string `json:"ref"`
	UUID       string `json:"uuid"`
	SnapshotID *int64 `json:"snapshot-id"`

	LastAssignedFieldID     *int `json:"last-assigned-field-id"`
	CurrentSchemaID         *int `json:"current-schema-id"`
	LastAssignedPartitionID *int `json:"last-assigned-partition-id"`
	DefaultSpecID           *int `json:"default-spec-id"`
	DefaultSortOrderID      *int `json:"default-sort-order-id"`
}

func decodeRequirements(raw []json.RawMessage) ([]model.Requirement, error) {
	out := make([]model.Requirement, 0, len(raw))
	for _, r := range raw {
		var w requirementWire
		if err := json.Unmarshal(r, &w); err != nil {
			return nil, catalogerr.InvalidRequest("decoding requirement: %v", err)
		}
		switch w.Type {
		case "assert-create":
			out = append(out, model.AssertCreate{})
		case "assert-table-uuid":
			out = append(out, model.AssertTableUUID{UUID: w.UUID})
		case "assert-ref-snapshot-id":
			out = append(out, model.AssertRefSnapshotID{Ref: w.Ref, SnapshotID: w.SnapshotID})
		case "assert-last-assigned-field-id":
			out = append(out, requirementWithN(w.LastAssignedFieldID, func(n int) model.Requirement { return model.AssertLastAssignedFieldID{N: n} }))
		case "assert-current-schema-id":
			out = append(out, requirementWithN(w.CurrentSchemaID, func(n int) model.Requirement { return model.AssertCurrentSchemaID{N: n} }))
		case "assert-last-assigned-partition-id":
			out = append(out, requirementWithN(w.LastAssignedPartitionID, func(n int) model.Requirement { return model.AssertLastAssignedPartitionID{N: n} }))
		case "assert-default-spec-id":
			out = append(out, requirementWithN(w.DefaultSpecID, func(n int) model.Requirement { return model.AssertDefaultSpecID{N: n} }))
		case "assert-default-sort-order-id":
			out = append(out, requirementWithN(w.DefaultSortOrderID, func(n int) model.Requirement { return model.AssertDefaultSortOrderID{N: n} }))
		default:
			return nil, catalogerr.InvalidRequest("unknown requirement type %q", w.Type)
		}
	}
	return out, nil
}

func requirementWithN(field *int, build func(int) model.Requirement) model.Requirement {
	n := 0
	if field != nil {
		n = *field
	}
	return build(n)
}

type updateWire struct {
	Action             string            `json:"action"`
	Schema             *model.Schema     `json:"schema"`
	LastColumnID       int               `json:"last-column-id"`
	SchemaID           int               `json:"schema-id"`
	Spec               *model.PartitionSpec `json:"spec"`
	SpecID             int               `json:"spec-id"`
	SortOrder          *model.SortOrder  `json:"sort-order"`
	SortOrderID        int               `json:"sort-order-id"`
	Snapshot           *model.Snapshot   `json:"snapshot"`
	SnapshotIDs        []int64           `json:"snapshot-ids"`
	SnapshotID         int64             `json:"snapshot-id"`
	RefName            string            `json:"ref-name"`
	Type               model.RefType     `json:"type"`
	MaxRefAgeMs        int64             `json:"max-ref-age-ms"`
	MaxSnapshotAgeMs   int64             `json:"max-snapshot-age-ms"`
	MinSnapshotsToKeep int               `json:"min-snapshots-to-keep"`
	Updates            map[string]string `json:"updates"`
	Removals           []string          `json:"removals"`
	Location           string            `json:"location"`
	FormatVersion      int               `json:"format-version"`
	UUID               string            `json:"uuid"`
}

func decodeUpdates(raw []json.RawMessage) ([]model.Update, error) {
	out := make([]model.Update, 0, len(raw))
	for _, r := range raw {
		var w updateWire
		if err := json.Unmarshal(r, &w); err != nil {
			return nil, catalogerr.InvalidRequest("decoding update: %v", err)
		}
		u, err := decodeOneUpdate(w)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func decodeOneUpdate(w updateWire) (model.Update, error) {
	switch w.Action {
	case "add-schema":
		if w.Schema == nil {
			return nil, catalogerr.InvalidRequest("add-schema update missing schema")
		}
		return model.AddSchema{Schema: *w.Schema, LastColumnID: w.LastColumnID}, nil
	case "set-current-schema":
		return model.SetCurrentSchema{SchemaID: w.SchemaID}, nil
	case "add-spec":
		if w.Spec == nil {
			return nil, catalogerr.InvalidRequest("add-spec update missing spec")
		}
		return model.AddPartitionSpec{Spec: *w.Spec}, nil
	case "set-default-spec":
		return model.SetDefaultSpec{SpecID: w.SpecID}, nil
	case "add-sort-order":
		if w.SortOrder == nil {
			return nil, catalogerr.InvalidRequest("add-sort-order update missing sort-order")
		}
		return model.AddSortOrder{SortOrder: *w.SortOrder}, nil
	case "set-default-sort-order":
		return model.SetDefaultSortOrder{SortOrderID: w.SortOrderID}, nil
	case "add-snapshot":
		if w.Snapshot == nil {
			return nil, catalogerr.InvalidRequest("add-snapshot update missing snapshot")
		}
		return model.AddSnapshot{Snapshot: *w.Snapshot}, nil
	case "remove-snapshots":
		return model.RemoveSnapshots{SnapshotIDs: w.SnapshotIDs}, nil
	case "set-snapshot-ref":
		return model.SetSnapshotRef{
			Ref:        w.RefName,
			Type:       w.Type,
			SnapshotID: w.SnapshotID,
			Retention: model.RetentionPolicy{
				MaxRefAgeMs:        w.MaxRefAgeMs,
				MaxSnapshotAgeMs:   w.MaxSnapshotAgeMs,
				MinSnapshotsToKeep: w.MinSnapshotsToKeep,
			},
		}, nil
	case "remove-snapshot-ref":
		return model.RemoveSnapshotRef{Ref: w.RefName}, nil
	case "set-properties":
		return model.SetProperties{Properties: w.Updates}, nil
	case "remove-properties":
		return model.RemoveProperties{Keys: w.Removals}, nil
	case "set-location":
		return model.SetLocation{Location: w.Location}, nil
	case "upgrade-format-version":
		return model.UpgradeFormatVersion{FormatVersion: w.FormatVersion}, nil
	case "assign-uuid":
		return model.AssignUUID{UUID: w.UUID}, nil
	default:
		return nil, catalogerr.InvalidRequest("unknown update action %q", w.Action)
	}
}

// commitTableRequest is the updateTable request body:
// `{ identifier?, requirements, updates }`; an identifier, if sent, is
// ignored (the table comes from the URL path).
type commitTableRequest struct {
	Requirements []json.RawMessage `json:"requirements"`
	Updates      []json.RawMessage `json:"updates"`
}

func (r commitTableRequest) decode() ([]model.Requirement, []model.Update, error) {
	reqs, err := decodeRequirements(r.Requirements)
	if err != nil {
		return nil, nil, err
	}
	updates, err := decodeUpdates(r.Updates)
	if err != nil {
		return nil, nil, err
	}
	return reqs, updates, nil
}

// createTableRequest is the createTable request body.
type createTableRequest struct {
	Name          string              `json:"name"`
	Location      string              `json:"location,omitempty"`
	Schema        model.Schema        `json:"schema"`
	PartitionSpec *model.PartitionSpec `json:"partition-spec,omitempty"`
	WriteOrder    *model.SortOrder    `json:"write-order,omitempty"`
	StageCreate   bool                `json:"stage-create,omitempty"`
	Properties    map[string]string   `json:"properties,omitempty"`
}

// registerTableRequest is the registerTable request body.
type registerTableRequest struct {
	Name             string `json:"name"`
	MetadataLocation string `json:"metadata-location"`
}

// loadTableResponse is what loadTable/createTable/registerTable return.
type loadTableResponse struct {
	MetadataLocation string              `json:"metadata-location"`
	Metadata         *model.TableMetadata `json:"metadata"`
	Config           map[string]string   `json:"config,omitempty"`
}

func namespacePathFromMultipart(encoded string) ([]string, error) {
	path, err := splitMultipartIdentifier(encoded)
	if err != nil {
		return nil, catalogerr.InvalidRequest("malformed namespace identifier: %v", err)
	}
	return path, nil
}

// splitMultipartIdentifier splits the Iceberg REST spec's unit-separator
// (\x1F)-joined multipart namespace path out of its URL path segment.
func splitMultipartIdentifier(encoded string) ([]string, error) {
	if encoded == "" {
		return nil, fmt.Errorf("empty namespace identifier")
	}
	var parts []string
	start := 0
	for i := 0; i < len(encoded); i++ {
		if encoded[i] == '\x1f' {
			parts = append(parts, encoded[start:i])
			start = i + 1
		}
	}
	parts = append(parts, encoded[start:])
	return parts, nil
}
