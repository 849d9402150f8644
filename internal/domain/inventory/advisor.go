package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Advisor evaluates restock thresholds. Pure; it only reads a snapshot and
// emits advisory signals, never purchase orders.
type Advisor struct{}

func NewAdvisor() *Advisor {
	return &Advisor{}
}

// Evaluate returns a ReorderSignal when active stock is at or below the
// medicine's reorder level, nil otherwise. The suggested quantity restores
// stock to twice the reorder level.
func (a *Advisor) Evaluate(medicineID uuid.UUID, medicineName string, reorderLevel int, snapshot []*Batch, asOf time.Time) *ReorderSignal {
	onHand := TotalOnHand(snapshot, asOf)
	if onHand > reorderLevel {
		return nil
	}
	return &ReorderSignal{
		MedicineID:   medicineID,
		MedicineName: medicineName,
		OnHand:       onHand,
		ReorderLevel: reorderLevel,
		Suggested:    2*reorderLevel - onHand,
	}
}
