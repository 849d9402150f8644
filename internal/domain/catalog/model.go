package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Medicine maps to the medicine table (the drug catalog). Records are
// immutable outside administrative edits; dispensing never touches them.
type Medicine struct {
	ID                   uuid.UUID       `db:"id" json:"id"`
	Name                 string          `db:"name" json:"name"`
	GenericName          string          `db:"generic_name" json:"generic_name"`
	Category             *string         `db:"category" json:"category,omitempty"`
	ClassTags            []string        `db:"class_tags" json:"class_tags,omitempty"`
	UnitPrice            decimal.Decimal `db:"unit_price" json:"unit_price"`
	ReorderLevel         int             `db:"reorder_level" json:"reorder_level"`
	IsControlled         bool            `db:"is_controlled" json:"is_controlled"`
	RequiresPrescription bool            `db:"requires_prescription" json:"requires_prescription"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}
