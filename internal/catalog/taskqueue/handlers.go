package taskqueue

import (
	"context"
	"fmt"

	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
)

// WarehouseGetter is the narrow slice of store.Store the built-in
// handlers need to resolve a task's warehouse; defined here so this
// package never imports store directly.
type WarehouseGetter interface {
	GetWarehouse(ctx context.Context, id model.WarehouseID) (*model.Warehouse, error)
}

// TabularHardDeleter removes a tabular's row entirely, the last step of
// expiration.
type TabularHardDeleter interface {
	HardDeleteTabular(ctx context.Context, id model.TabularID) error
}

// PrefixPurger deletes every object under a storage location, the C4
// side of a tabular_purge task.
type PrefixPurger interface {
	PurgePrefix(ctx context.Context, w *model.Warehouse, location string) error
}

// NewExpirationHandler builds the tabular_expiration Handler: promote a
// soft-deleted tabular past its TTL to a hard delete, per spec.md §4.5.
func NewExpirationHandler(tabulars TabularHardDeleter) Handler {
	return func(ctx context.Context, t *Task) error {
		if t.EntityID == nil {
			return fmt.Errorf("expiration task %s has no entity id", t.TaskID)
		}
		if err := tabulars.HardDeleteTabular(ctx, *t.EntityID); err != nil {
			return fmt.Errorf("hard-deleting tabular %s: %w", *t.EntityID, err)
		}
		return nil
	}
}

// NewPurgeHandler builds the tabular_purge Handler: delete the
// object-storage prefix of a dropped table. The tabular row is already
// gone by the time this runs, so the prefix travels in the task's
// ExecutionDetails field, captured from the tabular's FSLocation at
// drop time (see commit.Engine.DropTable).
func NewPurgeHandler(warehouses WarehouseGetter, purger PrefixPurger) Handler {
	return func(ctx context.Context, t *Task) error {
		if t.WarehouseID == nil {
			return fmt.Errorf("purge task %s has no warehouse id", t.TaskID)
		}
		w, err := warehouses.GetWarehouse(ctx, *t.WarehouseID)
		if err != nil {
			return fmt.Errorf("resolving warehouse %s: %w", *t.WarehouseID, err)
		}
		location := t.ExecutionDetails
		if location == "" {
			return fmt.Errorf("purge task %s carries no location in execution_details", t.TaskID)
		}
		if err := purger.PurgePrefix(ctx, w, location); err != nil {
			return fmt.Errorf("purging %s: %w", location, err)
		}
		return nil
	}
}
