package dispense

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/pharmacy/internal/domain/safety"
)

// Request is one dispense submission from the prescription service. The
// medication and allergy lists are the caller's snapshot; this core never
// fetches patient data itself.
type Request struct {
	MedicineID          uuid.UUID `json:"medicine_id"`
	Quantity            int       `json:"quantity"`
	PatientID           uuid.UUID `json:"patient_id"`
	Token               string    `json:"token"`
	AsOf                time.Time `json:"as_of,omitempty"`
	ExistingMedications []string  `json:"existing_medications,omitempty"`
	Allergies           []string  `json:"allergies,omitempty"`
	Actor               string    `json:"actor,omitempty"`

	// ProceedDespiteFindings acknowledges blocking safety findings from a
	// prior attempt. OverrideReason may be mandatory by configuration when
	// a contraindicated finding is overridden.
	ProceedDespiteFindings bool   `json:"proceed_despite_findings,omitempty"`
	OverrideReason         string `json:"override_reason,omitempty"`
}

// Line is one committed batch draw.
type Line struct {
	BatchID  uuid.UUID `json:"batch_id"`
	Quantity int       `json:"quantity"`
}

// Transaction is the immutable record of a committed dispense. Append-only;
// never mutated or deleted.
type Transaction struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	Token          string           `db:"token" json:"token"`
	MedicineID     uuid.UUID        `db:"medicine_id" json:"medicine_id"`
	PatientID      uuid.UUID        `db:"patient_id" json:"patient_id"`
	Quantity       int              `db:"quantity" json:"quantity"`
	Lines          []Line           `db:"lines" json:"lines"`
	Findings       []safety.Finding `db:"findings" json:"findings,omitempty"`
	Override       bool             `db:"override" json:"override"`
	OverrideReason string           `db:"override_reason" json:"override_reason,omitempty"`
	Controlled     bool             `db:"controlled" json:"controlled"`
	Actor          string           `db:"actor" json:"actor"`
	CommittedAt    time.Time        `db:"committed_at" json:"committed_at"`
}
