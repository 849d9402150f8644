package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Engine computes FIFO-by-expiry allocation plans. Planning is a pure
// function over an immutable snapshot: it never mutates state, so a plan
// can be retried or discarded without consequence, and identical inputs
// always produce the identical plan.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Plan walks the active batches in FIFO order, drawing from each until the
// requested quantity is covered. Returns InsufficientStockError when the
// active stock cannot cover it; the snapshot is untouched either way.
func (e *Engine) Plan(medicineID uuid.UUID, quantity int, asOf time.Time, snapshot []*Batch) (*Plan, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be > 0, got %d", quantity)
	}

	active := ActiveBatches(snapshot, asOf)

	plan := &Plan{
		MedicineID: medicineID,
		Requested:  quantity,
		AsOf:       asOf,
		Versions:   make(map[uuid.UUID]int64),
	}
	remaining := quantity
	for _, b := range active {
		if remaining == 0 {
			break
		}
		take := b.Quantity
		if take > remaining {
			take = remaining
		}
		plan.Lines = append(plan.Lines, PlanLine{BatchID: b.ID, Quantity: take})
		plan.Versions[b.ID] = b.Version
		remaining -= take
	}

	if remaining > 0 {
		return nil, &InsufficientStockError{
			MedicineID: medicineID,
			Requested:  quantity,
			Available:  quantity - remaining,
		}
	}
	return plan, nil
}
