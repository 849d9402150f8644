package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/pharmacy/internal/domain/catalog"
)

type Service struct {
	batches   BatchRepository
	medicines catalog.MedicineRepository
	advisor   *Advisor
}

func NewService(batches BatchRepository, medicines catalog.MedicineRepository) *Service {
	return &Service{batches: batches, medicines: medicines, advisor: NewAdvisor()}
}

// ReceiveBatch records a stock intake.
func (s *Service) ReceiveBatch(ctx context.Context, b *Batch) error {
	if b.MedicineID == uuid.Nil {
		return fmt.Errorf("medicine_id is required")
	}
	if strings.TrimSpace(b.BatchNumber) == "" {
		return fmt.Errorf("batch_number is required")
	}
	if b.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0")
	}
	if b.ExpiryDate.IsZero() {
		return fmt.Errorf("expiry_date is required")
	}
	if _, err := s.medicines.GetByID(ctx, b.MedicineID); err != nil {
		return fmt.Errorf("unknown medicine %s", b.MedicineID)
	}
	if b.ReceivedDate.IsZero() {
		b.ReceivedDate = time.Now().UTC()
	}
	return s.batches.Create(ctx, b)
}

func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error) {
	return s.batches.GetByID(ctx, id)
}

// Snapshot returns every batch of a medicine, including expired and
// emptied ones.
func (s *Service) Snapshot(ctx context.Context, medicineID uuid.UUID) ([]*Batch, error) {
	return s.batches.ListByMedicine(ctx, medicineID)
}

// ActiveBatches returns the FIFO-ordered ledger view for a medicine.
func (s *Service) ActiveBatches(ctx context.Context, medicineID uuid.UUID, asOf time.Time) ([]*Batch, error) {
	snapshot, err := s.batches.ListByMedicine(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	return ActiveBatches(snapshot, asOf), nil
}

// StockOnHand sums a medicine's active stock.
func (s *Service) StockOnHand(ctx context.Context, medicineID uuid.UUID, asOf time.Time) (int, error) {
	snapshot, err := s.batches.ListByMedicine(ctx, medicineID)
	if err != nil {
		return 0, err
	}
	return TotalOnHand(snapshot, asOf), nil
}

// ExpiringBatches lists active batches that expire within the window,
// earliest first.
func (s *Service) ExpiringBatches(ctx context.Context, asOf time.Time, withinDays int) ([]*Batch, error) {
	if withinDays < 0 {
		return nil, fmt.Errorf("withinDays must be >= 0")
	}
	return s.batches.ListExpiring(ctx, asOf, withinDays)
}

// Evaluate runs the reorder advisor for one medicine.
func (s *Service) Evaluate(ctx context.Context, medicineID uuid.UUID, asOf time.Time) (*ReorderSignal, error) {
	med, err := s.medicines.GetByID(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.batches.ListByMedicine(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	return s.advisor.Evaluate(med.ID, med.Name, med.ReorderLevel, snapshot, asOf), nil
}

// ReorderList evaluates every medicine and returns the signals for those at
// or below their reorder level.
func (s *Service) ReorderList(ctx context.Context, asOf time.Time) ([]*ReorderSignal, error) {
	meds, err := s.medicines.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var signals []*ReorderSignal
	for _, med := range meds {
		snapshot, err := s.batches.ListByMedicine(ctx, med.ID)
		if err != nil {
			return nil, err
		}
		if sig := s.advisor.Evaluate(med.ID, med.Name, med.ReorderLevel, snapshot, asOf); sig != nil {
			signals = append(signals, sig)
		}
	}
	return signals, nil
}
