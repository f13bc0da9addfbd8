package store

import (
	"context"
	"encoding/json"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// PersistMetadataDelta writes one commit's worth of satellite-table
// mutations and replaces the table row's scalar counters (spec.md §4.1
// "Persist-metadata delta"). Callers invoke this from within the
// transaction opened by WithTx, after LockForUpdate and after the
// model.TableMetadataBuilder has produced the new metadata plus this
// diff against the pre-image.
func (s *PostgresStore) PersistMetadataDelta(ctx context.Context, delta MetadataDelta) error {
	for _, schema := range delta.AddSchemas {
		fieldsJSON, _ := json.Marshal(schema.Fields)
		idJSON, _ := json.Marshal(schema.IdentifierFieldIDs)
		const q = `INSERT INTO lakekeeper.table_schema (tabular_id, schema_id, fields, identifier_field_ids)
			VALUES ($1,$2,$3,$4) ON CONFLICT (tabular_id, schema_id) DO NOTHING`
		if _, err := s.exec(ctx, q, delta.TabularID, schema.SchemaID, fieldsJSON, idJSON); err != nil {
			return catalogerr.InternalCatalogError(err)
		}
	}

	for _, spec := range delta.AddPartitionSpecs {
		fieldsJSON, _ := json.Marshal(spec.Fields)
		const q = `INSERT INTO lakekeeper.table_partition_spec (tabular_id, spec_id, fields)
			VALUES ($1,$2,$3) ON CONFLICT (tabular_id, spec_id) DO NOTHING`
		if _, err := s.exec(ctx, q, delta.TabularID, spec.SpecID, fieldsJSON); err != nil {
			return catalogerr.InternalCatalogError(err)
		}
	}

	for _, so := range delta.AddSortOrders {
		fieldsJSON, _ := json.Marshal(so.Fields)
		const q = `INSERT INTO lakekeeper.table_sort_order (tabular_id, sort_id, fields)
			VALUES ($1,$2,$3) ON CONFLICT (tabular_id, sort_id) DO NOTHING`
		if _, err := s.exec(ctx, q, delta.TabularID, so.SortID, fieldsJSON); err != nil {
			return catalogerr.InternalCatalogError(err)
		}
	}

	for _, snap := range delta.AddSnapshots {
		summaryJSON, _ := json.Marshal(snap.Summary)
		const q = `INSERT INTO lakekeeper.table_snapshot
			(tabular_id, snapshot_id, parent_snapshot_id, sequence_number, manifest_list, timestamp_ms, summary, schema_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8) ON CONFLICT (tabular_id, snapshot_id) DO NOTHING`
		if _, err := s.exec(ctx, q, delta.TabularID, snap.SnapshotID, snap.ParentSnapshotID, snap.SequenceNumber,
			snap.ManifestList, snap.TimestampMs, summaryJSON, snap.SchemaID); err != nil {
			return catalogerr.InternalCatalogError(err)
		}
	}

	if len(delta.RemoveSnapshotIDs) > 0 {
		const q = `DELETE FROM lakekeeper.table_snapshot WHERE tabular_id = $1 AND snapshot_id = ANY($2)`
		if _, err := s.exec(ctx, q, delta.TabularID, delta.RemoveSnapshotIDs); err != nil {
			return catalogerr.InternalCatalogError(err)
		}
	}

	for _, e := range delta.SnapshotLogAppend {
		const q = `INSERT INTO lakekeeper.table_snapshot_log (tabular_id, timestamp_ms, snapshot_id) VALUES ($1,$2,$3)`
		if _, err := s.exec(ctx, q, delta.TabularID, e.TimestampMs, e.SnapshotID); err != nil {
			return catalogerr.InternalCatalogError(err)
		}
	}

	if delta.MetadataLogAppend.MetadataFile != "" {
		const q = `INSERT INTO lakekeeper.table_metadata_log (tabular_id, timestamp_ms, metadata_file) VALUES ($1,$2,$3)`
		if _, err := s.exec(ctx, q, delta.TabularID, delta.MetadataLogAppend.TimestampMs, delta.MetadataLogAppend.MetadataFile); err != nil {
			return catalogerr.InternalCatalogError(err)
		}
	}

	for _, ref := range delta.UpsertRefs {
		const q = `INSERT INTO lakekeeper.table_ref
			(tabular_id, ref_name, ref_type, snapshot_id, min_snapshots_to_keep, max_snapshot_age_ms, max_ref_age_ms)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (tabular_id, ref_name) DO UPDATE SET
				ref_type = EXCLUDED.ref_type, snapshot_id = EXCLUDED.snapshot_id,
				min_snapshots_to_keep = EXCLUDED.min_snapshots_to_keep,
				max_snapshot_age_ms = EXCLUDED.max_snapshot_age_ms, max_ref_age_ms = EXCLUDED.max_ref_age_ms`
		if _, err := s.exec(ctx, q, delta.TabularID, ref.Name, ref.Type, ref.SnapshotID,
			ref.Retention.MinSnapshotsToKeep, ref.Retention.MaxSnapshotAgeMs, ref.Retention.MaxRefAgeMs); err != nil {
			return catalogerr.InternalCatalogError(err)
		}
	}

	if len(delta.RemoveRefNames) > 0 {
		const q = `DELETE FROM lakekeeper.table_ref WHERE tabular_id = $1 AND ref_name = ANY($2)`
		if _, err := s.exec(ctx, q, delta.TabularID, delta.RemoveRefNames); err != nil {
			return catalogerr.InternalCatalogError(err)
		}
	}

	for _, stat := range delta.UpsertTableStatistics {
		const q = `INSERT INTO lakekeeper.table_statistics (tabular_id, snapshot_id, statistics_path, file_size_in_bytes, file_footer_size_in_bytes)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (tabular_id, snapshot_id) DO UPDATE SET
				statistics_path = EXCLUDED.statistics_path, file_size_in_bytes = EXCLUDED.file_size_in_bytes,
				file_footer_size_in_bytes = EXCLUDED.file_footer_size_in_bytes`
		if _, err := s.exec(ctx, q, delta.TabularID, stat.SnapshotID, stat.StatisticsPath, stat.FileSizeInBytes, stat.FileFooterSizeInBytes); err != nil {
			return catalogerr.InternalCatalogError(err)
		}
	}

	if len(delta.RemoveTableStatisticsSnapshotIDs) > 0 {
		const q = `DELETE FROM lakekeeper.table_statistics WHERE tabular_id = $1 AND snapshot_id = ANY($2)`
		if _, err := s.exec(ctx, q, delta.TabularID, delta.RemoveTableStatisticsSnapshotIDs); err != nil {
			return catalogerr.InternalCatalogError(err)
		}
	}

	if delta.SetProperties != nil || len(delta.RemovePropertyKeys) > 0 {
		if err := s.mergeTableProperties(ctx, delta.TabularID, delta.SetProperties, delta.RemovePropertyKeys); err != nil {
			return err
		}
	}

	const scalarsQ = `
		UPDATE lakekeeper.table_metadata SET
			location = $2, last_sequence_number = $3, last_column_id = $4, last_updated_ms = $5,
			last_partition_id = $6, format_version = $7, current_schema_id = $8,
			default_spec_id = $9, default_sort_order_id = $10, current_snapshot_id = $11, table_uuid = $12
		WHERE tabular_id = $1`
	if _, err := s.exec(ctx, scalarsQ, delta.TabularID, delta.NewLocation, delta.NewLastSequenceNumber,
		delta.NewLastColumnID, delta.NewLastUpdatedMs, delta.NewLastPartitionID, delta.NewFormatVersion,
		delta.NewCurrentSchemaID, delta.NewDefaultSpecID, delta.NewDefaultSortOrderID,
		delta.NewCurrentSnapshotID, delta.NewTableUUID); err != nil {
		return catalogerr.InternalCatalogError(err)
	}

	if delta.SetTabularStatus != "" {
		const statusQ = `UPDATE lakekeeper.tabular SET metadata_location = $2, status = $3, updated_at = now() WHERE tabular_id = $1`
		if _, err := s.exec(ctx, statusQ, delta.TabularID, delta.NewMetadataLocation, delta.SetTabularStatus); err != nil {
			return catalogerr.InternalCatalogError(err)
		}
		return nil
	}

	const metaLocQ = `UPDATE lakekeeper.tabular SET metadata_location = $2, updated_at = now() WHERE tabular_id = $1`
	if _, err := s.exec(ctx, metaLocQ, delta.TabularID, delta.NewMetadataLocation); err != nil {
		return catalogerr.InternalCatalogError(err)
	}

	return nil
}

func (s *PostgresStore) mergeTableProperties(ctx context.Context, tabularID model.TabularID, set map[string]string, remove []string) error {
	const selectQ = `SELECT properties FROM lakekeeper.table_metadata WHERE tabular_id = $1 FOR UPDATE`
	var propsJSON []byte
	if err := s.queryRow(ctx, selectQ, tabularID).Scan(&propsJSON); err != nil {
		return catalogerr.InternalCatalogError(err)
	}
	props := map[string]string{}
	if len(propsJSON) > 0 {
		_ = json.Unmarshal(propsJSON, &props)
	}
	for _, k := range remove {
		delete(props, k)
	}
	for k, v := range set {
		props[k] = v
	}
	newJSON, _ := json.Marshal(props)
	const updateQ = `UPDATE lakekeeper.table_metadata SET properties = $2 WHERE tabular_id = $1`
	if _, err := s.exec(ctx, updateQ, tabularID, newJSON); err != nil {
		return catalogerr.InternalCatalogError(err)
	}
	return nil
}
