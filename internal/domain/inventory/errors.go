package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrVersionConflict signals that a batch changed between planning and
// commit. The caller re-plans against a fresh snapshot.
var ErrVersionConflict = errors.New("batch version conflict")

// InsufficientStockError reports that active stock cannot satisfy a
// request. Expected and non-fatal; the ledger is untouched.
type InsufficientStockError struct {
	MedicineID uuid.UUID
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for medicine %s: requested %d, available %d (shortfall %d)",
		e.MedicineID, e.Requested, e.Available, e.Shortfall())
}

// Shortfall is the quantity that could not be covered.
func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}

// InvalidBatchStateError reports an invariant violation found at commit
// time, such as a decrement that would go negative or a plan line whose
// batch no longer exists. Fatal for the medicine until reconciled manually.
type InvalidBatchStateError struct {
	MedicineID uuid.UUID
	BatchID    uuid.UUID
	Reason     string
}

func (e *InvalidBatchStateError) Error() string {
	return fmt.Sprintf("invalid batch state for medicine %s (batch %s): %s",
		e.MedicineID, e.BatchID, e.Reason)
}
