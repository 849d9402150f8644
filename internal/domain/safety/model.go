package safety

import (
	"time"

	"github.com/google/uuid"
)

// Severity of an interaction rule or finding.
type Severity string

const (
	SeverityContraindicated Severity = "contraindicated"
	SeverityMajor           Severity = "major"
	SeverityModerate        Severity = "moderate"
	SeverityMinor           Severity = "minor"
)

var severityRank = map[Severity]int{
	SeverityContraindicated: 4,
	SeverityMajor:           3,
	SeverityModerate:        2,
	SeverityMinor:           1,
}

// MoreSevere reports whether s ranks above other.
func (s Severity) MoreSevere(other Severity) bool {
	return severityRank[s] > severityRank[other]
}

// Valid reports whether s is a known severity value.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Blocking reports whether findings of this severity must be acknowledged
// by the caller before a dispense commit is attempted.
func (s Severity) Blocking() bool {
	return s == SeverityContraindicated || s == SeverityMajor
}

// FindingKind classifies a safety finding.
type FindingKind string

const (
	KindDrugDrug     FindingKind = "drug-drug"
	KindDrugAllergy  FindingKind = "drug-allergy"
	KindCrossAllergy FindingKind = "cross-allergy"
	KindUnverified   FindingKind = "unverified"
)

// InteractionRule maps to the interaction_rule table. The pair is
// unordered; SubstanceA/SubstanceB may name either a substance or a class
// tag.
type InteractionRule struct {
	ID          uuid.UUID `db:"id" json:"id"`
	SubstanceA  string    `db:"substance_a" json:"substance_a"`
	SubstanceB  string    `db:"substance_b" json:"substance_b"`
	Severity    Severity  `db:"severity" json:"severity"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// AllergyGroup maps to the allergy_group table. Members are considered
// allergically equivalent.
type AllergyGroup struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Members   []string  `db:"members" json:"members"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Finding is one safety concern raised for a candidate order. Findings form
// a set: no duplicates for the same substances and kind.
type Finding struct {
	Kind       FindingKind `json:"kind"`
	Severity   Severity    `json:"severity,omitempty"`
	Substances []string    `json:"substances"`
	Advisory   string      `json:"advisory"`
}
