package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// pgconnCommandTag narrows the pgconn.CommandTag dependency to the one
// method this package uses.
type pgconnCommandTag interface {
	RowsAffected() int64
}

// PostgresStore implements Store over a pgxpool.Pool, generalizing the
// scan-helper/row-locking idiom of the node-pool repository into the
// catalog's entity set.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	// tx, when non-nil, is the active transaction this Store was handed
	// by WithTx; all queries run against it instead of the pool.
	tx pgx.Tx
}

// NewPostgresStore creates a Catalog Store over an already-connected
// pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger.With("component", "catalog-store")}
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	es := err.Error()
	return !errors.Is(err, pgx.ErrNoRows) &&
		(strings.Contains(es, "unique constraint") || strings.Contains(es, "duplicate key"))
}

func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	es := err.Error()
	return strings.Contains(es, "could not serialize access") || strings.Contains(es, "deadlock detected")
}

// Close releases the pool. Only meaningful on the root store, not on a
// transaction-scoped one.
func (s *PostgresStore) Close() {
	if s.tx == nil {
		s.pool.Close()
	}
}

// WithTx opens a transaction, hands a transaction-scoped Store to fn, and
// commits on success or rolls back on error/panic. A serialization
// failure on commit is surfaced as Conflict so the commit engine's
// retry loop (internal/catalog/commit) can retry it.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return catalogerr.InternalCatalogError(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	txStore := &PostgresStore{pool: s.pool, logger: s.logger, tx: tx}
	if err := fn(ctx, txStore); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return catalogerr.Conflict("serialization conflict committing transaction").WithStack(err.Error())
		}
		return catalogerr.InternalCatalogError(err)
	}
	committed = true
	return nil
}

// ---------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------

func (s *PostgresStore) CreateProject(ctx context.Context, p *model.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	propsJSON, _ := json.Marshal(p.Properties)
	const q = `
		INSERT INTO lakekeeper.project (project_id, name, properties)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`
	row := s.queryRow(ctx, q, p.ID, p.Name, propsJSON)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		if isDuplicateKeyError(err) {
			return catalogerr.AlreadyExists("project %q already exists", p.Name)
		}
		return catalogerr.InternalCatalogError(err)
	}
	return nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id model.ProjectID) (*model.Project, error) {
	const q = `
		SELECT project_id, name, properties, created_at, updated_at
		FROM lakekeeper.project WHERE project_id = $1`
	return s.scanProject(s.queryRow(ctx, q, id))
}

func (s *PostgresStore) ListProjects(ctx context.Context, opts ListOptions) (Page[model.Project], error) {
	pageSize := normalizePageSize(opts.PageSize)
	after, afterID := decodeCursor(opts.Cursor)
	const q = `
		SELECT project_id, name, properties, created_at, updated_at
		FROM lakekeeper.project
		WHERE (created_at, project_id) > ($1, $2)
		ORDER BY created_at, project_id
		LIMIT $3`
	rows, err := s.query(ctx, q, after, afterID, pageSize)
	if err != nil {
		return Page[model.Project]{}, catalogerr.InternalCatalogError(err)
	}
	defer rows.Close()

	var items []model.Project
	for rows.Next() {
		p, err := s.scanProjectRows(rows)
		if err != nil {
			return Page[model.Project]{}, err
		}
		items = append(items, *p)
	}
	return buildPage(items, pageSize, func(p model.Project) (time.Time, uuid.UUID) { return p.CreatedAt, p.ID }), rows.Err()
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id model.ProjectID) error {
	const q = `DELETE FROM lakekeeper.project WHERE project_id = $1`
	tag, err := s.exec(ctx, q, id)
	if err != nil {
		return catalogerr.InternalCatalogError(err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerr.NotFound("project %s not found", id)
	}
	return nil
}

func (s *PostgresStore) scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	var propsJSON []byte
	if err := row.Scan(&p.ID, &p.Name, &propsJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalogerr.NotFound("project not found")
		}
		return nil, catalogerr.InternalCatalogError(err)
	}
	_ = json.Unmarshal(propsJSON, &p.Properties)
	return &p, nil
}

func (s *PostgresStore) scanProjectRows(rows pgx.Rows) (*model.Project, error) {
	var p model.Project
	var propsJSON []byte
	if err := rows.Scan(&p.ID, &p.Name, &propsJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, catalogerr.InternalCatalogError(err)
	}
	_ = json.Unmarshal(propsJSON, &p.Properties)
	return &p, nil
}

// ---------------------------------------------------------------------
// Warehouses
// ---------------------------------------------------------------------

func (s *PostgresStore) CreateWarehouse(ctx context.Context, w *model.Warehouse) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	storageJSON, _ := json.Marshal(w.Storage)
	propsJSON, _ := json.Marshal(w.Properties)
	const q = `
		INSERT INTO lakekeeper.warehouse (
			warehouse_id, project_id, name, status, storage_profile,
			secret_backend, secret_path, delete_profile_type, delete_profile_ttl_seconds,
			vended_credentials_disabled, remote_signing_disabled, properties, version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,1)
		RETURNING created_at, updated_at, version`
	row := s.queryRow(ctx, q,
		w.ID, w.ProjectID, w.Name, w.Status, storageJSON,
		w.Credential.SecretBackend, w.Credential.SecretPath,
		w.Delete.Type, int64(w.Delete.TTL.Seconds()),
		w.VendedCredentialsDisabled, w.RemoteSigningDisabled, propsJSON)
	if err := row.Scan(&w.CreatedAt, &w.UpdatedAt, &w.Version); err != nil {
		if isDuplicateKeyError(err) {
			return catalogerr.AlreadyExists("warehouse %q already exists in this project", w.Name)
		}
		return catalogerr.InternalCatalogError(err)
	}
	return nil
}

func (s *PostgresStore) GetWarehouse(ctx context.Context, id model.WarehouseID) (*model.Warehouse, error) {
	const q = warehouseSelect + ` WHERE warehouse_id = $1`
	return s.scanWarehouse(s.queryRow(ctx, q, id))
}

func (s *PostgresStore) GetWarehouseByName(ctx context.Context, projectID model.ProjectID, name string) (*model.Warehouse, error) {
	const q = warehouseSelect + ` WHERE project_id = $1 AND lower(name) = lower($2)`
	return s.scanWarehouse(s.queryRow(ctx, q, projectID, name))
}

const warehouseSelect = `
	SELECT warehouse_id, project_id, name, status, storage_profile,
	       secret_backend, secret_path, delete_profile_type, delete_profile_ttl_seconds,
	       vended_credentials_disabled, remote_signing_disabled, properties, version,
	       created_at, updated_at
	FROM lakekeeper.warehouse`

func (s *PostgresStore) scanWarehouse(row pgx.Row) (*model.Warehouse, error) {
	var w model.Warehouse
	var storageJSON, propsJSON []byte
	var ttlSeconds int64
	if err := row.Scan(
		&w.ID, &w.ProjectID, &w.Name, &w.Status, &storageJSON,
		&w.Credential.SecretBackend, &w.Credential.SecretPath,
		&w.Delete.Type, &ttlSeconds,
		&w.VendedCredentialsDisabled, &w.RemoteSigningDisabled, &propsJSON, &w.Version,
		&w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalogerr.NotFound("warehouse not found")
		}
		return nil, catalogerr.InternalCatalogError(err)
	}
	_ = json.Unmarshal(storageJSON, &w.Storage)
	_ = json.Unmarshal(propsJSON, &w.Properties)
	w.Delete.TTL = time.Duration(ttlSeconds) * time.Second
	return &w, nil
}

func (s *PostgresStore) ListWarehouses(ctx context.Context, projectID model.ProjectID, opts ListOptions) (Page[model.Warehouse], error) {
	pageSize := normalizePageSize(opts.PageSize)
	after, afterID := decodeCursor(opts.Cursor)
	q := warehouseSelect + ` WHERE project_id = $1 AND (created_at, warehouse_id) > ($2, $3) ORDER BY created_at, warehouse_id LIMIT $4`
	rows, err := s.query(ctx, q, projectID, after, afterID, pageSize)
	if err != nil {
		return Page[model.Warehouse]{}, catalogerr.InternalCatalogError(err)
	}
	defer rows.Close()
	var items []model.Warehouse
	for rows.Next() {
		w, err := s.scanWarehouse(rows)
		if err != nil {
			return Page[model.Warehouse]{}, err
		}
		items = append(items, *w)
	}
	return buildPage(items, pageSize, func(w model.Warehouse) (time.Time, uuid.UUID) { return w.CreatedAt, w.ID }), rows.Err()
}

func (s *PostgresStore) UpdateWarehouse(ctx context.Context, w *model.Warehouse) (int64, error) {
	storageJSON, _ := json.Marshal(w.Storage)
	propsJSON, _ := json.Marshal(w.Properties)
	// Bumping version here is what invalidates the versioned warehouse
	// cache (spec.md §5): any reader holding a lower version refreshes.
	const q = `
		UPDATE lakekeeper.warehouse SET
			status = $2, storage_profile = $3, secret_backend = $4, secret_path = $5,
			delete_profile_type = $6, delete_profile_ttl_seconds = $7,
			vended_credentials_disabled = $8, remote_signing_disabled = $9,
			properties = $10, version = version + 1, updated_at = now()
		WHERE warehouse_id = $1
		RETURNING version`
	row := s.queryRow(ctx, q, w.ID, w.Status, storageJSON, w.Credential.SecretBackend, w.Credential.SecretPath,
		w.Delete.Type, int64(w.Delete.TTL.Seconds()), w.VendedCredentialsDisabled, w.RemoteSigningDisabled, propsJSON)
	var version int64
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, catalogerr.NotFound("warehouse %s not found", w.ID)
		}
		return 0, catalogerr.InternalCatalogError(err)
	}
	return version, nil
}

func (s *PostgresStore) RenameWarehouse(ctx context.Context, id model.WarehouseID, newName string) error {
	const q = `UPDATE lakekeeper.warehouse SET name = $2, updated_at = now() WHERE warehouse_id = $1`
	tag, err := s.exec(ctx, q, id, newName)
	if err != nil {
		if isDuplicateKeyError(err) {
			return catalogerr.AlreadyExists("warehouse %q already exists in this project", newName)
		}
		return catalogerr.InternalCatalogError(err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerr.NotFound("warehouse %s not found", id)
	}
	return nil
}

func (s *PostgresStore) DeleteWarehouse(ctx context.Context, id model.WarehouseID, force bool) error {
	if !force {
		var protected bool
		const checkQ = `SELECT EXISTS(SELECT 1 FROM lakekeeper.tabular WHERE warehouse_id = $1 AND protected AND deleted_at IS NULL)`
		if err := s.queryRow(ctx, checkQ, id).Scan(&protected); err != nil {
			return catalogerr.InternalCatalogError(err)
		}
		if protected {
			return catalogerr.Conflict("warehouse %s has protected tabulars; pass force to override", id)
		}
	}
	const q = `DELETE FROM lakekeeper.warehouse WHERE warehouse_id = $1`
	tag, err := s.exec(ctx, q, id)
	if err != nil {
		return catalogerr.InternalCatalogError(err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerr.NotFound("warehouse %s not found", id)
	}
	return nil
}

// ---------------------------------------------------------------------
// Namespaces
// ---------------------------------------------------------------------

func (s *PostgresStore) CreateNamespace(ctx context.Context, ns *model.Namespace) error {
	if ns.ID == uuid.Nil {
		ns.ID = uuid.New()
	}
	propsJSON, _ := json.Marshal(ns.Properties)
	const q = `
		INSERT INTO lakekeeper.namespace (namespace_id, warehouse_id, namespace_path, fold_path, properties, location, managed_access, protected)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`
	row := s.queryRow(ctx, q, ns.ID, ns.WarehouseID, ns.Path, model.FoldPath(ns.Path), propsJSON, ns.Location, ns.ManagedAccess, ns.Protected)
	if err := row.Scan(&ns.CreatedAt, &ns.UpdatedAt); err != nil {
		if isDuplicateKeyError(err) {
			return catalogerr.AlreadyExists("namespace %v already exists", ns.Path)
		}
		return catalogerr.InternalCatalogError(err)
	}
	return nil
}

const namespaceSelect = `
	SELECT namespace_id, warehouse_id, namespace_path, properties, location, managed_access, protected, deleted_at, created_at, updated_at
	FROM lakekeeper.namespace`

func (s *PostgresStore) GetNamespace(ctx context.Context, id model.NamespaceID) (*model.Namespace, error) {
	const q = namespaceSelect + ` WHERE namespace_id = $1 AND deleted_at IS NULL`
	return s.scanNamespace(s.queryRow(ctx, q, id))
}

func (s *PostgresStore) GetNamespaceByPath(ctx context.Context, warehouseID model.WarehouseID, path []string) (*model.Namespace, error) {
	const q = namespaceSelect + ` WHERE warehouse_id = $1 AND fold_path = $2 AND deleted_at IS NULL`
	return s.scanNamespace(s.queryRow(ctx, q, warehouseID, model.FoldPath(path)))
}

func (s *PostgresStore) scanNamespace(row pgx.Row) (*model.Namespace, error) {
	var ns model.Namespace
	var propsJSON []byte
	if err := row.Scan(&ns.ID, &ns.WarehouseID, &ns.Path, &propsJSON, &ns.Location, &ns.ManagedAccess, &ns.Protected, &ns.DeletedAt, &ns.CreatedAt, &ns.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalogerr.NotFound("namespace not found")
		}
		return nil, catalogerr.InternalCatalogError(err)
	}
	_ = json.Unmarshal(propsJSON, &ns.Properties)
	return &ns, nil
}

func (s *PostgresStore) ListNamespaces(ctx context.Context, warehouseID model.WarehouseID, parentPath []string, opts ListOptions) (Page[model.Namespace], error) {
	pageSize := normalizePageSize(opts.PageSize)
	after, afterID := decodeCursor(opts.Cursor)
	deletedClause := "AND deleted_at IS NULL"
	if opts.IncludeDeleted {
		deletedClause = ""
	}
	q := fmt.Sprintf(`%s WHERE warehouse_id = $1 AND fold_path[1:$2] = $3 %s AND (created_at, namespace_id) > ($4, $5) ORDER BY created_at, namespace_id LIMIT $6`,
		namespaceSelect, deletedClause)
	rows, err := s.query(ctx, q, warehouseID, len(parentPath), parentPath, after, afterID, pageSize)
	if err != nil {
		return Page[model.Namespace]{}, catalogerr.InternalCatalogError(err)
	}
	defer rows.Close()
	var items []model.Namespace
	for rows.Next() {
		ns, err := s.scanNamespaceRows(rows)
		if err != nil {
			return Page[model.Namespace]{}, err
		}
		items = append(items, *ns)
	}
	return buildPage(items, pageSize, func(n model.Namespace) (time.Time, uuid.UUID) { return n.CreatedAt, n.ID }), rows.Err()
}

func (s *PostgresStore) scanNamespaceRows(rows pgx.Rows) (*model.Namespace, error) {
	var ns model.Namespace
	var propsJSON []byte
	if err := rows.Scan(&ns.ID, &ns.WarehouseID, &ns.Path, &propsJSON, &ns.Location, &ns.ManagedAccess, &ns.Protected, &ns.DeletedAt, &ns.CreatedAt, &ns.UpdatedAt); err != nil {
		return nil, catalogerr.InternalCatalogError(err)
	}
	_ = json.Unmarshal(propsJSON, &ns.Properties)
	return &ns, nil
}

func (s *PostgresStore) UpdateNamespaceProperties(ctx context.Context, id model.NamespaceID, set map[string]string, remove []string) error {
	const selectQ = `SELECT properties FROM lakekeeper.namespace WHERE namespace_id = $1 FOR UPDATE`
	var propsJSON []byte
	if err := s.queryRow(ctx, selectQ, id).Scan(&propsJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalogerr.NotFound("namespace %s not found", id)
		}
		return catalogerr.InternalCatalogError(err)
	}
	props := map[string]string{}
	_ = json.Unmarshal(propsJSON, &props)
	for _, k := range remove {
		delete(props, k)
	}
	for k, v := range set {
		props[k] = v
	}
	newJSON, _ := json.Marshal(props)
	const updateQ = `UPDATE lakekeeper.namespace SET properties = $2, updated_at = now() WHERE namespace_id = $1`
	if _, err := s.exec(ctx, updateQ, id, newJSON); err != nil {
		return catalogerr.InternalCatalogError(err)
	}
	return nil
}

func (s *PostgresStore) SoftDeleteNamespace(ctx context.Context, id model.NamespaceID, force bool) error {
	if !force {
		var protected bool
		if err := s.queryRow(ctx, `SELECT protected FROM lakekeeper.namespace WHERE namespace_id = $1`, id).Scan(&protected); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return catalogerr.NotFound("namespace %s not found", id)
			}
			return catalogerr.InternalCatalogError(err)
		}
		if protected {
			return catalogerr.Conflict("namespace %s is protected; pass force to override", id)
		}
	}
	const q = `UPDATE lakekeeper.namespace SET deleted_at = now() WHERE namespace_id = $1 AND deleted_at IS NULL`
	tag, err := s.exec(ctx, q, id)
	if err != nil {
		return catalogerr.InternalCatalogError(err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerr.NotFound("namespace %s not found", id)
	}
	return nil
}

func (s *PostgresStore) HardDeleteNamespace(ctx context.Context, id model.NamespaceID) error {
	const q = `DELETE FROM lakekeeper.namespace WHERE namespace_id = $1`
	tag, err := s.exec(ctx, q, id)
	if err != nil {
		return catalogerr.InternalCatalogError(err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerr.NotFound("namespace %s not found", id)
	}
	return nil
}

// ---------------------------------------------------------------------
// Tabulars
// ---------------------------------------------------------------------

const tabularSelect = `
	SELECT tabular_id, warehouse_id, namespace_id, kind, name, namespace_path, status,
	       metadata_location, fs_location, protected, deleted_at, created_at, updated_at
	FROM lakekeeper.tabular`

func (s *PostgresStore) CreateTabular(ctx context.Context, t *model.Tabular) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	const q = `
		INSERT INTO lakekeeper.tabular (
			tabular_id, warehouse_id, namespace_id, kind, name, namespace_path, status,
			metadata_location, fs_location, protected
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`
	row := s.queryRow(ctx, q, t.ID, t.WarehouseID, t.NamespaceID, t.Kind, t.Name, t.NamespacePath, t.Status, t.MetadataLocation, t.FSLocation, t.Protected)
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		if isDuplicateKeyError(err) {
			return catalogerr.AlreadyExists("%s %q already exists in this namespace", t.Kind, t.Name)
		}
		return catalogerr.InternalCatalogError(err)
	}
	return nil
}

func (s *PostgresStore) GetTabular(ctx context.Context, id model.TabularID) (*model.Tabular, error) {
	const q = tabularSelect + ` WHERE tabular_id = $1 AND deleted_at IS NULL`
	return s.scanTabular(s.queryRow(ctx, q, id))
}

func (s *PostgresStore) GetTabularByPath(ctx context.Context, warehouseID model.WarehouseID, namespacePath []string, name string, kind model.TabularKind) (*model.Tabular, error) {
	const q = tabularSelect + ` WHERE warehouse_id = $1 AND namespace_path = $2 AND lower(name) = lower($3) AND kind = $4 AND deleted_at IS NULL`
	return s.scanTabular(s.queryRow(ctx, q, warehouseID, namespacePath, name, kind))
}

func (s *PostgresStore) scanTabular(row pgx.Row) (*model.Tabular, error) {
	var t model.Tabular
	if err := row.Scan(&t.ID, &t.WarehouseID, &t.NamespaceID, &t.Kind, &t.Name, &t.NamespacePath, &t.Status,
		&t.MetadataLocation, &t.FSLocation, &t.Protected, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalogerr.NotFound("table or view not found")
		}
		return nil, catalogerr.InternalCatalogError(err)
	}
	return &t, nil
}

func (s *PostgresStore) scanTabularRows(rows pgx.Rows) (*model.Tabular, error) {
	var t model.Tabular
	if err := rows.Scan(&t.ID, &t.WarehouseID, &t.NamespaceID, &t.Kind, &t.Name, &t.NamespacePath, &t.Status,
		&t.MetadataLocation, &t.FSLocation, &t.Protected, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, catalogerr.InternalCatalogError(err)
	}
	return &t, nil
}

func (s *PostgresStore) ListTabulars(ctx context.Context, namespaceID model.NamespaceID, kind model.TabularKind, opts ListOptions) (Page[model.Tabular], error) {
	pageSize := normalizePageSize(opts.PageSize)
	after, afterID := decodeCursor(opts.Cursor)
	deletedClause := "AND deleted_at IS NULL"
	if opts.IncludeDeleted {
		deletedClause = "AND deleted_at IS NOT NULL"
	}
	q := fmt.Sprintf(`%s WHERE namespace_id = $1 AND kind = $2 %s AND (created_at, tabular_id) > ($3, $4) ORDER BY created_at, tabular_id LIMIT $5`, tabularSelect, deletedClause)
	rows, err := s.query(ctx, q, namespaceID, kind, after, afterID, pageSize)
	if err != nil {
		return Page[model.Tabular]{}, catalogerr.InternalCatalogError(err)
	}
	defer rows.Close()
	var items []model.Tabular
	for rows.Next() {
		t, err := s.scanTabularRows(rows)
		if err != nil {
			return Page[model.Tabular]{}, err
		}
		items = append(items, *t)
	}
	return buildPage(items, pageSize, func(t model.Tabular) (time.Time, uuid.UUID) { return t.CreatedAt, t.ID }), rows.Err()
}

// ResolveByLocationPrefix finds the live tabular in warehouseID whose
// fs_location is the longest prefix of uri. The predicate
// left(uri, length(fs_location)) depends on each row's own fs_location,
// so it is evaluated for every live tabular of the warehouse rather than
// answered by an index lookup on fs_location.
func (s *PostgresStore) ResolveByLocationPrefix(ctx context.Context, warehouseID model.WarehouseID, uri string) (model.TabularID, string, error) {
	const q = `
		SELECT tabular_id, fs_location FROM lakekeeper.tabular
		WHERE warehouse_id = $1 AND deleted_at IS NULL
		  AND fs_location = left($2, length(fs_location))
		ORDER BY length(fs_location) DESC
		LIMIT 1`
	row := s.queryRow(ctx, q, warehouseID, uri)
	var id model.TabularID
	var prefix string
	if err := row.Scan(&id, &prefix); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, "", catalogerr.NotFound("no table in this warehouse owns uri %q", uri)
		}
		return uuid.Nil, "", catalogerr.InternalCatalogError(err)
	}
	return id, prefix, nil
}

func (s *PostgresStore) RenameTabular(ctx context.Context, id model.TabularID, newNamespacePath []string, newName string) error {
	const q = `UPDATE lakekeeper.tabular SET namespace_path = $2, name = $3, updated_at = now() WHERE tabular_id = $1 AND deleted_at IS NULL`
	tag, err := s.exec(ctx, q, id, newNamespacePath, newName)
	if err != nil {
		if isDuplicateKeyError(err) {
			return catalogerr.AlreadyExists("a table or view named %q already exists at the destination", newName)
		}
		return catalogerr.InternalCatalogError(err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerr.NotFound("table or view %s not found", id)
	}
	return nil
}

func (s *PostgresStore) SoftDeleteTabular(ctx context.Context, id model.TabularID, force bool) error {
	if !force {
		var protected bool
		if err := s.queryRow(ctx, `SELECT protected FROM lakekeeper.tabular WHERE tabular_id = $1`, id).Scan(&protected); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return catalogerr.NotFound("table or view %s not found", id)
			}
			return catalogerr.InternalCatalogError(err)
		}
		if protected {
			return catalogerr.Conflict("tabular %s is protected; pass force to override", id)
		}
	}
	const q = `UPDATE lakekeeper.tabular SET status = $2, deleted_at = now() WHERE tabular_id = $1 AND deleted_at IS NULL`
	tag, err := s.exec(ctx, q, id, model.StatusSoftDeleted)
	if err != nil {
		return catalogerr.InternalCatalogError(err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerr.NotFound("table or view %s not found", id)
	}
	return nil
}

func (s *PostgresStore) HardDeleteTabular(ctx context.Context, id model.TabularID) error {
	const q = `DELETE FROM lakekeeper.tabular WHERE tabular_id = $1`
	tag, err := s.exec(ctx, q, id)
	if err != nil {
		return catalogerr.InternalCatalogError(err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerr.NotFound("table or view %s not found", id)
	}
	return nil
}

// LockForUpdate takes the row-level lock the commit engine serializes
// on (spec.md §4.2 step 3). It must run inside a transaction opened by
// WithTx; calling it outside one still issues the FOR UPDATE clause, but
// the lock is released the instant the statement completes, which is
// never what a caller wants — commit.Engine always calls it from within
// WithTx.
func (s *PostgresStore) LockForUpdate(ctx context.Context, id model.TabularID) (*model.Tabular, error) {
	const q = tabularSelect + ` WHERE tabular_id = $1 FOR UPDATE`
	t, err := s.scanTabular(s.queryRow(ctx, q, id))
	if err != nil {
		if catalogerr.Is(err, catalogerr.TypeNotFound) {
			return nil, err
		}
		if isSerializationFailure(err) {
			return nil, catalogerr.Conflict("lock contention on tabular %s", id)
		}
		return nil, err
	}
	return t, nil
}

// ---------------------------------------------------------------------
// generic helpers
// ---------------------------------------------------------------------

func (s *PostgresStore) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.tx != nil {
		return s.tx.Query(ctx, sql, args...)
	}
	return s.pool.Query(ctx, sql, args...)
}

func (s *PostgresStore) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.tx != nil {
		return s.tx.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}

func (s *PostgresStore) exec(ctx context.Context, sql string, args ...any) (pgconnCommandTag, error) {
	if s.tx != nil {
		tag, err := s.tx.Exec(ctx, sql, args...)
		return tag, err
	}
	tag, err := s.pool.Exec(ctx, sql, args...)
	return tag, err
}

func normalizePageSize(n int) int {
	if n <= 0 || n > 1000 {
		return 100
	}
	return n
}
