package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Batch maps to the batch table: a discrete, dated quantity of one medicine
// received together. Quantity only decreases through a committed allocation
// plan. Version supports the compare-and-swap commit; every successful
// decrement increments it.
type Batch struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	MedicineID   uuid.UUID       `db:"medicine_id" json:"medicine_id"`
	BatchNumber  string          `db:"batch_number" json:"batch_number"`
	ExpiryDate   time.Time       `db:"expiry_date" json:"expiry_date"`
	Quantity     int             `db:"quantity" json:"quantity"`
	Location     *string         `db:"location" json:"location,omitempty"`
	Supplier     *string         `db:"supplier" json:"supplier,omitempty"`
	CostPrice    decimal.Decimal `db:"cost_price" json:"cost_price"`
	SellingPrice decimal.Decimal `db:"selling_price" json:"selling_price"`
	ReceivedDate time.Time       `db:"received_date" json:"received_date"`
	Version      int64           `db:"version" json:"version"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// PlanLine is one batch draw within an allocation plan.
type PlanLine struct {
	BatchID  uuid.UUID `json:"batch_id"`
	Quantity int       `json:"quantity"`
}

// Plan is a proposed, uncommitted allocation. Line quantities sum exactly
// to the requested amount. Plans are pure data; committing them is the
// dispense coordinator's job.
type Plan struct {
	MedicineID uuid.UUID  `json:"medicine_id"`
	Requested  int        `json:"requested"`
	Lines      []PlanLine `json:"lines"`
	AsOf       time.Time  `json:"as_of"`
	// Versions holds the batch versions observed when the plan was built,
	// for the commit-time compare-and-swap.
	Versions map[uuid.UUID]int64 `json:"-"`
}

// ReorderSignal is the advisory emitted when a medicine's active stock
// falls to or below its reorder level. It never triggers an order itself.
type ReorderSignal struct {
	MedicineID   uuid.UUID `json:"medicine_id"`
	MedicineName string    `json:"medicine_name"`
	OnHand       int       `json:"on_hand"`
	ReorderLevel int       `json:"reorder_level"`
	Suggested    int       `json:"suggested_order_quantity"`
}
