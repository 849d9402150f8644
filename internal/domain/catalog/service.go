package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	medicines MedicineRepository
}

func NewService(medicines MedicineRepository) *Service {
	return &Service{medicines: medicines}
}

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(m.GenericName) == "" {
		return fmt.Errorf("generic_name is required")
	}
	if m.ReorderLevel < 0 {
		return fmt.Errorf("reorder_level must be >= 0")
	}
	if m.UnitPrice.IsNegative() {
		return fmt.Errorf("unit_price must not be negative")
	}
	return s.medicines.Create(ctx, m)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) GetMedicineByName(ctx context.Context, name string) (*Medicine, error) {
	return s.medicines.GetByName(ctx, name)
}

func (s *Service) UpdateMedicine(ctx context.Context, m *Medicine) error {
	if m.ReorderLevel < 0 {
		return fmt.Errorf("reorder_level must be >= 0")
	}
	if m.UnitPrice.IsNegative() {
		return fmt.Errorf("unit_price must not be negative")
	}
	return s.medicines.Update(ctx, m)
}

func (s *Service) DeleteMedicine(ctx context.Context, id uuid.UUID) error {
	return s.medicines.Delete(ctx, id)
}

func (s *Service) SearchMedicines(ctx context.Context, params map[string]string, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.Search(ctx, params, limit, offset)
}

func (s *Service) ListMedicines(ctx context.Context) ([]*Medicine, error) {
	return s.medicines.ListAll(ctx)
}

// ClassTags returns the substance-to-class-tag mapping derived from the
// catalog, keyed by lower-cased generic name. The safety rule set is built
// from this.
func (s *Service) ClassTags(ctx context.Context) (map[string][]string, error) {
	meds, err := s.medicines.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	tags := make(map[string][]string, len(meds))
	for _, m := range meds {
		if len(m.ClassTags) == 0 {
			continue
		}
		tags[strings.ToLower(m.GenericName)] = m.ClassTags
	}
	return tags, nil
}
