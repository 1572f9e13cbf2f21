package services

import (
	"context"
	"fmt"

	"naver-trends/models"
	"naver-trends/storage"
	"naver-trends/utils"
)

// Plan is what the reconciler decided for one client's table.
type Plan struct {
	Table   storage.TableRef
	Mode    models.SyncMode
	Latest  models.LatestDates
	Created bool
}

// Reconciler makes sure a client's table exists and reads how far it is filled.
type Reconciler struct {
	warehouse storage.Warehouse
	logger    *utils.Logger
}

// NewReconciler creates a Reconciler over warehouse.
func NewReconciler(warehouse storage.Warehouse, logger *utils.Logger) *Reconciler {
	return &Reconciler{warehouse: warehouse, logger: logger}
}

// Reconcile creates the client's table when it is missing and returns the
// latest stored date per (device, keyword). A new or empty table is loaded
// in backfill mode.
func (r *Reconciler) Reconcile(ctx context.Context, client models.Client) (*Plan, error) {
	ref := r.warehouse.Ref(client.Name)
	plan := &Plan{Table: ref, Latest: models.LatestDates{}}

	status, err := r.warehouse.LookupTable(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("lookup table %s: %w", ref.ID(), err)
	}

	if status == storage.TableNotFound {
		if err := r.warehouse.CreateTable(ctx, ref); err != nil {
			return nil, fmt.Errorf("create table %s: %w", ref.ID(), err)
		}
		r.logger.Info("[reconciler] Created table %s", ref.ID())
		plan.Created = true
		plan.Mode = models.ModeBackfill
		return plan, nil
	}

	latest, err := r.warehouse.LatestDates(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("latest dates %s: %w", ref.ID(), err)
	}
	if latest != nil {
		plan.Latest = latest
	}

	plan.Mode = models.ModeIncremental
	if plan.Latest.Len() == 0 {
		plan.Mode = models.ModeBackfill
	}
	r.logger.Info("[reconciler] %s: %s mode, %d (device, keyword) pairs on record",
		ref.ID(), plan.Mode, plan.Latest.Len())
	return plan, nil
}
