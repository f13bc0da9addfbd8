package commit

import (
	"encoding/json"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalog/store"
)

// diffMetadata computes the store.MetadataDelta a commit produces by
// comparing the pre- and post-image TableMetadata (spec.md §4.1
// "Persist-metadata delta"). The builder already validated every
// invariant; this step only translates the accepted result into the
// satellite-table mutations the store needs to apply.
func diffMetadata(tabularID model.TabularID, pre, post *model.TableMetadata) store.MetadataDelta {
	d := store.MetadataDelta{TabularID: tabularID}

	preSchemas := map[int]bool{}
	for _, s := range pre.Schemas {
		preSchemas[s.SchemaID] = true
	}
	for _, s := range post.Schemas {
		if !preSchemas[s.SchemaID] {
			d.AddSchemas = append(d.AddSchemas, s)
		}
	}

	preSpecs := map[int]bool{}
	for _, s := range pre.PartitionSpecs {
		preSpecs[s.SpecID] = true
	}
	for _, s := range post.PartitionSpecs {
		if !preSpecs[s.SpecID] {
			d.AddPartitionSpecs = append(d.AddPartitionSpecs, s)
		}
	}

	preSorts := map[int]bool{}
	for _, s := range pre.SortOrders {
		preSorts[s.SortID] = true
	}
	for _, s := range post.SortOrders {
		if !preSorts[s.SortID] {
			d.AddSortOrders = append(d.AddSortOrders, s)
		}
	}

	preSnaps := map[int64]bool{}
	for _, s := range pre.Snapshots {
		preSnaps[s.SnapshotID] = true
	}
	postSnaps := map[int64]bool{}
	for _, s := range post.Snapshots {
		postSnaps[s.SnapshotID] = true
		if !preSnaps[s.SnapshotID] {
			d.AddSnapshots = append(d.AddSnapshots, s)
		}
	}
	for id := range preSnaps {
		if !postSnaps[id] {
			d.RemoveSnapshotIDs = append(d.RemoveSnapshotIDs, id)
		}
	}

	if len(post.SnapshotLog) > len(pre.SnapshotLog) {
		d.SnapshotLogAppend = append(d.SnapshotLogAppend, post.SnapshotLog[len(pre.SnapshotLog):]...)
	}

	preRefs := map[string]model.Ref{}
	for _, r := range pre.Refs {
		preRefs[r.Name] = r
	}
	postRefNames := map[string]bool{}
	for _, r := range post.Refs {
		postRefNames[r.Name] = true
		if old, ok := preRefs[r.Name]; !ok || old != r {
			d.UpsertRefs = append(d.UpsertRefs, r)
		}
	}
	for name := range preRefs {
		if !postRefNames[name] {
			d.RemoveRefNames = append(d.RemoveRefNames, name)
		}
	}

	if set, remove := diffProperties(pre.Properties, post.Properties); len(set) > 0 || len(remove) > 0 {
		d.SetProperties = set
		d.RemovePropertyKeys = remove
	}

	preStats := map[int64]model.TableStatistics{}
	for _, s := range pre.TableStatistics {
		preStats[s.SnapshotID] = s
	}
	postStatIDs := map[int64]bool{}
	for _, s := range post.TableStatistics {
		postStatIDs[s.SnapshotID] = true
		if old, ok := preStats[s.SnapshotID]; !ok || old != s {
			d.UpsertTableStatistics = append(d.UpsertTableStatistics, s)
		}
	}
	for id := range preStats {
		if !postStatIDs[id] {
			d.RemoveTableStatisticsSnapshotIDs = append(d.RemoveTableStatisticsSnapshotIDs, id)
		}
	}

	d.NewLocation = post.Location
	d.NewLastSequenceNumber = post.LastSequenceNumber
	d.NewLastColumnID = post.LastColumnID
	d.NewLastUpdatedMs = post.LastUpdatedMs
	d.NewLastPartitionID = post.LastPartitionID
	d.NewFormatVersion = post.FormatVersion
	d.NewCurrentSchemaID = post.CurrentSchemaID
	d.NewDefaultSpecID = post.DefaultSpecID
	d.NewDefaultSortOrderID = post.DefaultSortOrderID
	d.NewCurrentSnapshotID = post.CurrentSnapshotID
	d.NewTableUUID = post.TableUUID

	return d
}

// diffProperties splits a before/after property-map comparison into the
// set of keys to upsert and the set of keys to remove.
func diffProperties(before, after map[string]string) (set map[string]string, remove []string) {
	set = map[string]string{}
	for k, v := range after {
		if before[k] != v {
			set[k] = v
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			remove = append(remove, k)
		}
	}
	return set, remove
}

// newMetadataDeltaFromScratch builds the delta for a table being adopted
// whole via registerTable: every satellite collection is a fresh insert,
// there is nothing to remove.
func newMetadataDeltaFromScratch(tabularID model.TabularID, meta *model.TableMetadata) store.MetadataDelta {
	return store.MetadataDelta{
		TabularID:             tabularID,
		AddSchemas:            meta.Schemas,
		AddPartitionSpecs:     meta.PartitionSpecs,
		AddSortOrders:         meta.SortOrders,
		AddSnapshots:          meta.Snapshots,
		SnapshotLogAppend:     meta.SnapshotLog,
		UpsertRefs:            meta.Refs,
		SetProperties:         meta.Properties,
		UpsertTableStatistics: meta.TableStatistics,
		NewLocation:           meta.Location,
		NewLastSequenceNumber: meta.LastSequenceNumber,
		NewLastColumnID:       meta.LastColumnID,
		NewLastUpdatedMs:      meta.LastUpdatedMs,
		NewLastPartitionID:    meta.LastPartitionID,
		NewFormatVersion:      meta.FormatVersion,
		NewCurrentSchemaID:    meta.CurrentSchemaID,
		NewDefaultSpecID:      meta.DefaultSpecID,
		NewDefaultSortOrderID: meta.DefaultSortOrderID,
		NewCurrentSnapshotID:  meta.CurrentSnapshotID,
		NewTableUUID:          meta.TableUUID,
	}
}

// decodeRegisteredMetadata parses a metadata JSON document a registerTable
// caller supplied the URI of. The wire format mirrors model.TableMetadata
// field-for-field, so a direct unmarshal suffices.
func decodeRegisteredMetadata(raw []byte) (*model.TableMetadata, error) {
	var meta model.TableMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
