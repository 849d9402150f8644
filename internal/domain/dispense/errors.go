package dispense

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicore/pharmacy/internal/domain/safety"
)

// ErrLockTimeout signals that the per-medicine critical section could not
// be entered within the configured wait.
var ErrLockTimeout = errors.New("timed out waiting for medicine lock")

// ErrNotFound signals a transaction lookup miss.
var ErrNotFound = errors.New("transaction not found")

// ErrOverrideReasonRequired is returned when a contraindicated finding is
// overridden without a reason and configuration demands one.
var ErrOverrideReasonRequired = errors.New("override of a contraindicated finding requires a reason")

// BlockingFindingsError carries the findings that must be acknowledged
// before a commit is attempted. No mutation has occurred.
type BlockingFindingsError struct {
	Findings []safety.Finding
}

func (e *BlockingFindingsError) Error() string {
	return fmt.Sprintf("dispense blocked by %d safety finding(s); acknowledge to proceed", len(e.Findings))
}

// ContentionError is returned after the bounded re-plan budget is
// exhausted by concurrent commits on the same medicine.
type ContentionError struct {
	Attempts int
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("dispense abandoned after %d conflicting commit attempts", e.Attempts)
}

// QuarantinedError rejects dispensing against a medicine halted by a prior
// invariant violation. Cleared only by manual reconciliation.
type QuarantinedError struct {
	MedicineID uuid.UUID
	Reason     string
}

func (e *QuarantinedError) Error() string {
	return fmt.Sprintf("medicine %s is quarantined: %s", e.MedicineID, e.Reason)
}
