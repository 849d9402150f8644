package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBatchRepository is an in-memory BatchRepository. ApplyPlan holds
// the repository mutex for the whole plan, giving the same all-or-nothing
// semantics as the SQL implementation's transaction. Used in tests and by
// the concurrency tests of the dispense coordinator.
type MemoryBatchRepository struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*Batch
}

func NewMemoryBatchRepository() *MemoryBatchRepository {
	return &MemoryBatchRepository{batches: make(map[uuid.UUID]*Batch)}
}

func (r *MemoryBatchRepository) Create(_ context.Context, b *Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Version == 0 {
		b.Version = 1
	}
	cp := *b
	r.batches[b.ID] = &cp
	return nil
}

func (r *MemoryBatchRepository) GetByID(_ context.Context, id uuid.UUID) (*Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, fmt.Errorf("batch %s not found", id)
	}
	cp := *b
	return &cp, nil
}

func (r *MemoryBatchRepository) ListByMedicine(_ context.Context, medicineID uuid.UUID) ([]*Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Batch
	for _, b := range r.batches {
		if b.MedicineID == medicineID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryBatchRepository) ListExpiring(_ context.Context, from time.Time, withinDays int) ([]*Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until := from.AddDate(0, 0, withinDays)
	var out []*Batch
	for _, b := range r.batches {
		if b.Quantity > 0 && !b.ExpiryDate.Before(from) && !b.ExpiryDate.After(until) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return ActiveBatches(out, from), nil
}

func (r *MemoryBatchRepository) ApplyPlan(_ context.Context, plan *Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate every line before touching anything.
	for _, line := range plan.Lines {
		b, ok := r.batches[line.BatchID]
		if !ok {
			return &InvalidBatchStateError{
				MedicineID: plan.MedicineID, BatchID: line.BatchID,
				Reason: "plan references a batch that no longer exists",
			}
		}
		if line.Quantity <= 0 {
			return &InvalidBatchStateError{
				MedicineID: plan.MedicineID, BatchID: line.BatchID,
				Reason: fmt.Sprintf("non-positive plan quantity %d", line.Quantity),
			}
		}
		if b.Version != plan.Versions[line.BatchID] {
			return ErrVersionConflict
		}
		if b.Quantity < line.Quantity {
			return &InvalidBatchStateError{
				MedicineID: plan.MedicineID, BatchID: line.BatchID,
				Reason: fmt.Sprintf("decrement of %d would take quantity %d negative", line.Quantity, b.Quantity),
			}
		}
	}

	for _, line := range plan.Lines {
		b := r.batches[line.BatchID]
		b.Quantity -= line.Quantity
		b.Version++
		b.UpdatedAt = time.Now().UTC()
	}
	return nil
}
