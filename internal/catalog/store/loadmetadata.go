package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// loadTableMetadataQuery assembles the full decomposed metadata graph for
// one tabular in a single round trip: each satellite table is pulled in
// via a correlated jsonb_agg subquery instead of a join, so the scalar
// columns on lakekeeper.tabular are not duplicated once per satellite
// row. Callers zip the jsonb arrays back into model.TableMetadata.
const loadTableMetadataQuery = `
SELECT
	t.table_uuid, t.format_version, t.location, t.last_sequence_number,
	t.last_column_id, t.last_updated_ms, t.last_partition_id, t.next_row_id,
	t.current_schema_id, t.default_spec_id, t.default_sort_order_id, t.current_snapshot_id,
	COALESCE((SELECT jsonb_agg(s ORDER BY (s->>'schema_id')::int)
		FROM (SELECT jsonb_build_object('schema_id', schema_id, 'fields', fields, 'identifier_field_ids', identifier_field_ids) AS s
			FROM lakekeeper.table_schema WHERE tabular_id = t.tabular_id) x), '[]'),
	COALESCE((SELECT jsonb_agg(s ORDER BY (s->>'spec_id')::int)
		FROM (SELECT jsonb_build_object('spec_id', spec_id, 'fields', fields) AS s
			FROM lakekeeper.table_partition_spec WHERE tabular_id = t.tabular_id) x), '[]'),
	COALESCE((SELECT jsonb_agg(s ORDER BY (s->>'sort_id')::int)
		FROM (SELECT jsonb_build_object('sort_id', sort_id, 'fields', fields) AS s
			FROM lakekeeper.table_sort_order WHERE tabular_id = t.tabular_id) x), '[]'),
	COALESCE((SELECT jsonb_agg(s ORDER BY (s->>'sequence_number')::bigint)
		FROM (SELECT jsonb_build_object(
				'snapshot_id', snapshot_id, 'parent_snapshot_id', parent_snapshot_id,
				'sequence_number', sequence_number, 'manifest_list', manifest_list,
				'timestamp_ms', timestamp_ms, 'summary', summary, 'schema_id', schema_id) AS s
			FROM lakekeeper.table_snapshot WHERE tabular_id = t.tabular_id) x), '[]'),
	COALESCE((SELECT jsonb_agg(s ORDER BY (s->>'timestamp_ms')::bigint)
		FROM (SELECT jsonb_build_object('timestamp_ms', timestamp_ms, 'snapshot_id', snapshot_id) AS s
			FROM lakekeeper.table_snapshot_log WHERE tabular_id = t.tabular_id) x), '[]'),
	COALESCE((SELECT jsonb_agg(s ORDER BY (s->>'timestamp_ms')::bigint)
		FROM (SELECT jsonb_build_object('timestamp_ms', timestamp_ms, 'metadata_file', metadata_file) AS s
			FROM lakekeeper.table_metadata_log WHERE tabular_id = t.tabular_id) x), '[]'),
	COALESCE((SELECT jsonb_agg(s)
		FROM (SELECT jsonb_build_object(
				'name', ref_name, 'type', ref_type, 'snapshot_id', snapshot_id,
				'min_snapshots_to_keep', min_snapshots_to_keep,
				'max_snapshot_age_ms', max_snapshot_age_ms, 'max_ref_age_ms', max_ref_age_ms) AS s
			FROM lakekeeper.table_ref WHERE tabular_id = t.tabular_id) x), '[]'),
	COALESCE(t.properties, '{}'),
	COALESCE((SELECT jsonb_agg(s)
		FROM (SELECT jsonb_build_object('snapshot_id', snapshot_id, 'statistics_path', statistics_path,
				'file_size_in_bytes', file_size_in_bytes, 'file_footer_size_in_bytes', file_footer_size_in_bytes) AS s
			FROM lakekeeper.table_statistics WHERE tabular_id = t.tabular_id) x), '[]'),
	COALESCE((SELECT jsonb_agg(s)
		FROM (SELECT jsonb_build_object('snapshot_id', snapshot_id, 'statistics_path', statistics_path,
				'file_size_in_bytes', file_size_in_bytes) AS s
			FROM lakekeeper.table_partition_statistics WHERE tabular_id = t.tabular_id) x), '[]')
FROM lakekeeper.table_metadata t
WHERE t.tabular_id = $1`

func (s *PostgresStore) LoadTableMetadata(ctx context.Context, tabularID model.TabularID) (*model.TableMetadata, error) {
	row := s.queryRow(ctx, loadTableMetadataQuery, tabularID)

	var meta model.TableMetadata
	var schemasJSON, specsJSON, sortOrdersJSON, snapshotsJSON, snapshotLogJSON, metadataLogJSON, refsJSON, propsJSON, tableStatsJSON, partitionStatsJSON []byte

	err := row.Scan(
		&meta.TableUUID, &meta.FormatVersion, &meta.Location, &meta.LastSequenceNumber,
		&meta.LastColumnID, &meta.LastUpdatedMs, &meta.LastPartitionID, &meta.NextRowID,
		&meta.CurrentSchemaID, &meta.DefaultSpecID, &meta.DefaultSortOrderID, &meta.CurrentSnapshotID,
		&schemasJSON, &specsJSON, &sortOrdersJSON, &snapshotsJSON,
		&snapshotLogJSON, &metadataLogJSON, &refsJSON, &propsJSON,
		&tableStatsJSON, &partitionStatsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalogerr.NotFound("table metadata for %s not found", tabularID)
		}
		return nil, catalogerr.InternalCatalogError(err)
	}

	for blob, target := range map[*[]byte]any{
		&schemasJSON:       &meta.Schemas,
		&specsJSON:         &meta.PartitionSpecs,
		&sortOrdersJSON:    &meta.SortOrders,
		&snapshotsJSON:     &meta.Snapshots,
		&snapshotLogJSON:   &meta.SnapshotLog,
		&metadataLogJSON:   &meta.MetadataLog,
		&refsJSON:          &meta.Refs,
		&propsJSON:         &meta.Properties,
		&tableStatsJSON:    &meta.TableStatistics,
		&partitionStatsJSON: &meta.PartitionStatistics,
	} {
		if err := json.Unmarshal(*blob, target); err != nil {
			return nil, catalogerr.InternalCatalogError(err)
		}
	}

	return &meta, nil
}
