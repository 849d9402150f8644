package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BatchRepository is the store behind the batch ledger. Reads return
// snapshots; the only mutation path for quantities is ApplyPlan, invoked by
// the dispense coordinator inside its critical section.
type BatchRepository interface {
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	// ListByMedicine returns every batch of a medicine, including expired
	// and emptied ones.
	ListByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*Batch, error)
	// ListExpiring returns active batches expiring within the window,
	// earliest first.
	ListExpiring(ctx context.Context, from time.Time, withinDays int) ([]*Batch, error)
	// ApplyPlan decrements every batch in the plan by its planned amount,
	// guarded by the versions observed at planning time. All-or-nothing:
	// a version mismatch returns ErrVersionConflict with no change applied,
	// a missing batch or a decrement below zero returns
	// InvalidBatchStateError.
	ApplyPlan(ctx context.Context, plan *Plan) error
}
