// Package commit implements the Commit Engine (C2): the orchestration
// of an Iceberg updateTable/updateView transaction — authorize, lock,
// load, check requirements, apply updates, persist, write the metadata
// file, emit events — plus createTable, registerTable, stageTable,
// loadTable, and dropTable.
package commit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalog/store"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// Principal is the authenticated caller a commit acts on behalf of.
type Principal struct {
	ID        string
	IsService bool
}

// Authorizer is the narrow slice of the Authorization Engine (C3) the
// commit engine depends on. The concrete backends live in
// internal/catalog/authz; this interface is defined here, by the
// consumer, so the engine never imports a specific backend.
type Authorizer interface {
	Authorize(ctx context.Context, principal Principal, action string, tabularID model.TabularID) error
}

// ContractVerifier is C6's veto hook.
type ContractVerifier interface {
	Verify(ctx context.Context, tabularID model.TabularID, before, after *model.TableMetadata) error
}

// EventSink is C6's fire-and-forget publication hook.
type EventSink interface {
	Publish(ctx context.Context, event Event)
}

// Event is one change notification, per spec.md §4.6.
type Event struct {
	EventID       string
	EventType     string // created | updated | dropped
	TabularID     model.TabularID
	WarehouseID   model.WarehouseID
	NamespacePath []string
	Actor         string
	CorrelationID string
	Timestamp     time.Time
	Requirements  []model.Requirement
	Updates       []model.Update
}

// MetadataWriter is C4's privileged server-side write/read path for the
// metadata JSON document itself (distinct from the client-facing vended
// credentials or signing endpoints).
type MetadataWriter interface {
	WriteMetadata(ctx context.Context, w *model.Warehouse, uri string, body []byte) error
	ReadMetadata(ctx context.Context, w *model.Warehouse, uri string) ([]byte, error)
}

// TaskEnqueuer is the slice of C5 the engine drives post-commit.
type TaskEnqueuer interface {
	EnqueueMetadataLogCleanup(ctx context.Context, warehouseID model.WarehouseID, tabularID model.TabularID, keep int) error
	EnqueueExpiration(ctx context.Context, warehouseID model.WarehouseID, tabularID model.TabularID, fireAt time.Time) error
	EnqueuePurge(ctx context.Context, warehouseID model.WarehouseID, tabularID model.TabularID, location string) error
}

// MetadataEncoder renders a TableMetadata as the bytes written to
// object storage. Defined here so the engine does not hard-code the
// Iceberg JSON wire format.
type MetadataEncoder interface {
	Encode(meta *model.TableMetadata) ([]byte, error)
}

// Engine is the C2 public contract.
type Engine struct {
	store    store.Store
	authz    Authorizer
	verifier ContractVerifier
	sink     EventSink
	writer   MetadataWriter
	tasks    TaskEnqueuer
	encoder  MetadataEncoder
	retryer  *Retryer
	clock    store.Clock
	logger   *slog.Logger

	// MetadataLogCap is the configured maximum metadata_log length before
	// a cleanup task is enqueued (spec.md §4.2 step 11).
	MetadataLogCap int
}

// NewEngine wires the Commit Engine's collaborators.
func NewEngine(
	st store.Store,
	authz Authorizer,
	verifier ContractVerifier,
	sink EventSink,
	writer MetadataWriter,
	tasks TaskEnqueuer,
	encoder MetadataEncoder,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:          st,
		authz:          authz,
		verifier:       verifier,
		sink:           sink,
		writer:         writer,
		tasks:          tasks,
		encoder:        encoder,
		retryer:        NewRetryer(DefaultRetryPolicy(), logger),
		clock:          store.RealClock,
		logger:         logger.With("component", "commit-engine"),
		MetadataLogCap: 100,
	}
}

// TableRef identifies a table by warehouse-scoped path: warehouse id,
// namespace path, and table name.
type TableRef struct {
	WarehouseID model.WarehouseID
	Namespace   []string
	Name        string
}

// CommitResult is what every mutating operation returns.
type CommitResult struct {
	Metadata        *model.TableMetadata
	MetadataFileURI string
	TabularID       model.TabularID
}

// UpdateTable runs the full algorithm of spec.md §4.2 steps 1-14,
// wrapped in the bounded-retry policy so a lock-contention or
// requirement race against a concurrent commit on the same table is
// retried transparently.
func (e *Engine) UpdateTable(ctx context.Context, ref TableRef, principal Principal, reqs []model.Requirement, updates []model.Update) (*CommitResult, error) {
	var result *CommitResult
	err := e.retryer.Execute(ctx, func(ctx context.Context) error {
		r, err := e.commitOnce(ctx, ref, principal, reqs, updates, false)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, unwrapRetryError(err)
	}
	return result, nil
}

// CreateTable follows steps 1-13 with an empty starting metadata and an
// implicit assert-create requirement (spec.md §4.2 "createTable /
// registerTable").
func (e *Engine) CreateTable(ctx context.Context, ref TableRef, principal Principal, schema model.Schema, spec model.PartitionSpec, sortOrder model.SortOrder, location string, formatVersion int, properties map[string]string) (*CommitResult, error) {
	reqs := []model.Requirement{model.AssertCreate{}}
	updates := []model.Update{
		model.AddSchema{Schema: schema, LastColumnID: schema.MaxFieldID()},
		model.SetCurrentSchema{SchemaID: -1},
		model.AddPartitionSpec{Spec: spec},
		model.SetDefaultSpec{SpecID: spec.SpecID},
		model.AddSortOrder{SortOrder: sortOrder},
		model.SetDefaultSortOrder{SortOrderID: sortOrder.SortID},
		model.SetLocation{Location: location},
		model.UpgradeFormatVersion{FormatVersion: formatVersion},
	}
	if len(properties) > 0 {
		updates = append(updates, model.SetProperties{Properties: properties})
	}

	var result *CommitResult
	err := e.retryer.Execute(ctx, func(ctx context.Context) error {
		r, err := e.commitOnce(ctx, ref, principal, reqs, updates, false)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, unwrapRetryError(err)
	}
	return result, nil
}

// RegisterTable adopts a table whose metadata file already exists in
// object storage; it skips the metadata-file write (step 10) because
// the client supplied the URI of a file C4 can read back to validate.
// It fails with AlreadyExists when a live table already exists at the
// path; the metadata file's table-uuid is not compared with any
// existing tabular, live or soft-deleted.
func (e *Engine) RegisterTable(ctx context.Context, ref TableRef, principal Principal, metadataFileURI string, warehouse *model.Warehouse) (*CommitResult, error) {
	raw, err := e.writer.ReadMetadata(ctx, warehouse, metadataFileURI)
	if err != nil {
		return nil, catalogerr.StorageUnavailable("registerTable: could not read metadata file %s: %v", metadataFileURI, err)
	}
	meta, err := decodeRegisteredMetadata(raw)
	if err != nil {
		return nil, catalogerr.InvalidRequest("registerTable: malformed metadata file: %v", err)
	}

	if err := e.authz.Authorize(ctx, principal, "CreateTable", uuid.Nil); err != nil {
		return nil, err
	}

	var result *CommitResult
	err = e.store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		ns, err := tx.GetNamespaceByPath(ctx, ref.WarehouseID, ref.Namespace)
		if err != nil {
			return err
		}
		existing, err := tx.GetTabularByPath(ctx, ref.WarehouseID, ref.Namespace, ref.Name, model.KindTable)
		if err == nil && existing != nil {
			return catalogerr.AlreadyExists("table %q already exists", ref.Name)
		}

		t := &model.Tabular{
			WarehouseID:      ref.WarehouseID,
			NamespaceID:      ns.ID,
			Kind:             model.KindTable,
			Name:             ref.Name,
			NamespacePath:    ref.Namespace,
			Status:           model.StatusLive,
			MetadataLocation: metadataFileURI,
			FSLocation:       meta.Location,
		}
		if err := tx.CreateTabular(ctx, t); err != nil {
			return err
		}

		delta := newMetadataDeltaFromScratch(t.ID, meta)
		delta.NewMetadataLocation = metadataFileURI
		delta.SetTabularStatus = model.StatusLive
		if err := tx.PersistMetadataDelta(ctx, delta); err != nil {
			return err
		}

		result = &CommitResult{Metadata: meta, MetadataFileURI: metadataFileURI, TabularID: t.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.sink.Publish(ctx, Event{
		EventID: uuid.NewString(), EventType: "created", TabularID: result.TabularID,
		WarehouseID: ref.WarehouseID, NamespacePath: ref.Namespace, Actor: principal.ID,
		Timestamp: e.clock.Now(),
	})
	return result, nil
}

// StageTable creates a tabular in the "staged" state without committing
// any metadata — the pre-create half of the state machine in spec.md
// §4.2. A subsequent UpdateTable with assert-create transitions it to
// live.
func (e *Engine) StageTable(ctx context.Context, ref TableRef, principal Principal) (model.TabularID, error) {
	if err := e.authz.Authorize(ctx, principal, "CreateTable", uuid.Nil); err != nil {
		return model.TabularID{}, err
	}
	var id model.TabularID
	err := e.store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		ns, err := tx.GetNamespaceByPath(ctx, ref.WarehouseID, ref.Namespace)
		if err != nil {
			return err
		}
		t := &model.Tabular{
			WarehouseID: ref.WarehouseID, NamespaceID: ns.ID, Kind: model.KindTable,
			Name: ref.Name, NamespacePath: ref.Namespace, Status: model.StatusStaged,
		}
		if err := tx.CreateTabular(ctx, t); err != nil {
			return err
		}
		id = t.ID
		return nil
	})
	return id, err
}

// LoadTable is the read-only path: resolve, authorize ReadTableMetadata,
// and assemble via the store's one-query path. The result carries no
// access-delegation config: neither vended credentials nor a
// remote-signing endpoint is attached, whatever the warehouse flags.
func (e *Engine) LoadTable(ctx context.Context, ref TableRef, principal Principal) (*CommitResult, error) {
	t, err := e.store.GetTabularByPath(ctx, ref.WarehouseID, ref.Namespace, ref.Name, model.KindTable)
	if err != nil {
		return nil, err
	}
	if err := e.authz.Authorize(ctx, principal, "ReadTableMetadata", t.ID); err != nil {
		return nil, err
	}
	meta, err := e.store.LoadTableMetadata(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return &CommitResult{Metadata: meta, MetadataFileURI: t.MetadataLocation, TabularID: t.ID}, nil
}

// DropTable authorizes DropTable and, depending on the warehouse's
// delete profile and whether the caller asked to purge immediately,
// either soft-deletes (enqueuing an expiration task) or hard-deletes
// (enqueuing an immediate purge task when purge was requested), per
// spec.md §4.2.
func (e *Engine) DropTable(ctx context.Context, ref TableRef, principal Principal, warehouse *model.Warehouse, purgeRequested bool) error {
	t, err := e.store.GetTabularByPath(ctx, ref.WarehouseID, ref.Namespace, ref.Name, model.KindTable)
	if err != nil {
		return err
	}
	if err := e.authz.Authorize(ctx, principal, "DropTable", t.ID); err != nil {
		return err
	}

	if warehouse.Delete.Type == model.DeleteProfileSoft && !purgeRequested {
		if err := e.store.SoftDeleteTabular(ctx, t.ID, false); err != nil {
			return err
		}
		fireAt := e.clock.Now().Add(warehouse.Delete.TTL)
		if err := e.tasks.EnqueueExpiration(ctx, ref.WarehouseID, t.ID, fireAt); err != nil {
			e.logger.Warn("failed to enqueue expiration task", "tabular_id", t.ID, "error", err)
		}
	} else {
		if err := e.store.HardDeleteTabular(ctx, t.ID); err != nil {
			return err
		}
		if purgeRequested {
			if err := e.tasks.EnqueuePurge(ctx, ref.WarehouseID, t.ID, t.FSLocation); err != nil {
				e.logger.Warn("failed to enqueue purge task", "tabular_id", t.ID, "error", err)
			}
		}
	}

	e.sink.Publish(ctx, Event{
		EventID: uuid.NewString(), EventType: "dropped", TabularID: t.ID,
		WarehouseID: ref.WarehouseID, NamespacePath: ref.Namespace, Actor: principal.ID,
		Timestamp: e.clock.Now(),
	})
	return nil
}

// commitOnce runs one (non-retried) attempt of the updateTable
// algorithm. Errors of type Conflict are what the caller's Retryer
// loop retries on.
func (e *Engine) commitOnce(ctx context.Context, ref TableRef, principal Principal, reqs []model.Requirement, updates []model.Update, isCreate bool) (*CommitResult, error) {
	existing, lookupErr := e.store.GetTabularByPath(ctx, ref.WarehouseID, ref.Namespace, ref.Name, model.KindTable)
	exists := lookupErr == nil && existing != nil

	if !exists && !requirementsContainAssertCreate(reqs) {
		return nil, catalogerr.NotFound("table %q not found", ref.Name)
	}

	var action string
	if !exists {
		action = "CreateTable"
	} else {
		action = "CommitTable"
	}
	var resourceID model.TabularID
	if exists {
		resourceID = existing.ID
	}
	if err := e.authz.Authorize(ctx, principal, action, resourceID); err != nil {
		return nil, err
	}

	var result *CommitResult
	err := e.store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		var t *model.Tabular
		var pre model.TableMetadata
		var err error

		if exists {
			t, err = tx.LockForUpdate(ctx, existing.ID)
			if err != nil {
				return err
			}
			loaded, err := tx.LoadTableMetadata(ctx, t.ID)
			if err != nil {
				return err
			}
			pre = *loaded
		} else {
			ns, err := tx.GetNamespaceByPath(ctx, ref.WarehouseID, ref.Namespace)
			if err != nil {
				return err
			}
			t = &model.Tabular{
				WarehouseID: ref.WarehouseID, NamespaceID: ns.ID, Kind: model.KindTable,
				Name: ref.Name, NamespacePath: ref.Namespace, Status: model.StatusStaged,
			}
			if err := tx.CreateTabular(ctx, t); err != nil {
				return err
			}
		}

		if err := model.EvaluateRequirements(reqs, &pre, exists); err != nil {
			return catalogerr.Conflict("%s", err.Error()).WithStack("requirement evaluation")
		}

		builder := model.NewTableMetadataBuilder(pre, e.clock.Now().UnixMilli())
		post, err := builder.Apply(updates)
		if err != nil {
			return catalogerr.Conflict("%s", err.Error()).WithStack("update application")
		}

		if err := e.verifier.Verify(ctx, t.ID, &pre, post); err != nil {
			return catalogerr.ContractViolated(err.Error())
		}

		version := len(post.MetadataLog) + 1
		metadataURI := fmt.Sprintf("%s/metadata/%05d-%s.metadata.json", post.Location, version, uuid.NewString())
		post.MetadataLog = append(post.MetadataLog, model.MetadataLogEntry{TimestampMs: post.LastUpdatedMs, MetadataFile: metadataURI})

		delta := diffMetadata(t.ID, &pre, post)
		delta.NewMetadataLocation = metadataURI
		delta.MetadataLogAppend = model.MetadataLogEntry{TimestampMs: post.LastUpdatedMs, MetadataFile: metadataURI}
		if !exists {
			delta.SetTabularStatus = model.StatusLive
		}

		if err := tx.PersistMetadataDelta(ctx, delta); err != nil {
			return err
		}

		body, err := e.encoder.Encode(post)
		if err != nil {
			return catalogerr.InternalCatalogError(err)
		}
		warehouse, err := tx.GetWarehouse(ctx, ref.WarehouseID)
		if err != nil {
			return err
		}
		if err := e.writer.WriteMetadata(ctx, warehouse, metadataURI, body); err != nil {
			return catalogerr.StorageUnavailable("writing metadata file %s: %v", metadataURI, err)
		}

		if len(post.MetadataLog) > e.MetadataLogCap && post.Properties["write.metadata.delete-after-commit.enabled"] == "true" {
			if err := e.tasks.EnqueueMetadataLogCleanup(ctx, ref.WarehouseID, t.ID, e.MetadataLogCap); err != nil {
				e.logger.Warn("failed to enqueue metadata-log cleanup", "tabular_id", t.ID, "error", err)
			}
		}

		result = &CommitResult{Metadata: post, MetadataFileURI: metadataURI, TabularID: t.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := "updated"
	if !exists {
		eventType = "created"
	}
	e.sink.Publish(ctx, Event{
		EventID: uuid.NewString(), EventType: eventType, TabularID: result.TabularID,
		WarehouseID: ref.WarehouseID, NamespacePath: ref.Namespace, Actor: principal.ID,
		Timestamp: e.clock.Now(), Requirements: reqs, Updates: updates,
	})
	return result, nil
}

func requirementsContainAssertCreate(reqs []model.Requirement) bool {
	for _, r := range reqs {
		if _, ok := r.(model.AssertCreate); ok {
			return true
		}
	}
	return false
}

func unwrapRetryError(err error) error {
	var retryErr *RetryError
	if e, ok := err.(*RetryError); ok {
		retryErr = e
		return retryErr.Err
	}
	return err
}
