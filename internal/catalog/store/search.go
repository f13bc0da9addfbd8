package store

import (
	"context"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// SearchTabulars ranks live tables and views in a warehouse by trigram
// similarity to fragment (spec.md §4.1, §5 "Supplemented Features"),
// using pg_trgm's similarity() so a short typo-tolerant fragment still
// surfaces the intended table.
func (s *PostgresStore) SearchTabulars(ctx context.Context, warehouseID model.WarehouseID, fragment string, limit int) ([]TabularSearchResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const q = `
		SELECT tabular_id, warehouse_id, namespace_id, kind, name, namespace_path, status,
		       metadata_location, fs_location, protected, deleted_at, created_at, updated_at,
		       similarity(name, $2) AS sim
		FROM lakekeeper.tabular
		WHERE warehouse_id = $1 AND deleted_at IS NULL AND name % $2
		ORDER BY sim DESC
		LIMIT $3`
	rows, err := s.query(ctx, q, warehouseID, fragment, limit)
	if err != nil {
		return nil, catalogerr.InternalCatalogError(err)
	}
	defer rows.Close()

	var results []TabularSearchResult
	for rows.Next() {
		var t model.Tabular
		var sim float64
		if err := rows.Scan(&t.ID, &t.WarehouseID, &t.NamespaceID, &t.Kind, &t.Name, &t.NamespacePath, &t.Status,
			&t.MetadataLocation, &t.FSLocation, &t.Protected, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt, &sim); err != nil {
			return nil, catalogerr.InternalCatalogError(err)
		}
		results = append(results, TabularSearchResult{Tabular: t, Similarity: sim})
	}
	return results, rows.Err()
}
