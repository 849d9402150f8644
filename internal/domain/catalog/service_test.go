package catalog

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type mockMedicineRepo struct {
	data map[uuid.UUID]*Medicine
}

func newMockMedicineRepo() *mockMedicineRepo {
	return &mockMedicineRepo{data: make(map[uuid.UUID]*Medicine)}
}

func (m *mockMedicineRepo) Create(_ context.Context, med *Medicine) error {
	med.ID = uuid.New()
	m.data[med.ID] = med
	return nil
}
func (m *mockMedicineRepo) GetByID(_ context.Context, id uuid.UUID) (*Medicine, error) {
	if med, ok := m.data[id]; ok {
		return med, nil
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockMedicineRepo) GetByName(_ context.Context, name string) (*Medicine, error) {
	for _, med := range m.data {
		if strings.EqualFold(med.Name, name) {
			return med, nil
		}
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockMedicineRepo) Update(_ context.Context, med *Medicine) error {
	if _, ok := m.data[med.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.data[med.ID] = med
	return nil
}
func (m *mockMedicineRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.data, id)
	return nil
}
func (m *mockMedicineRepo) Search(_ context.Context, _ map[string]string, _, _ int) ([]*Medicine, int, error) {
	var out []*Medicine
	for _, med := range m.data {
		out = append(out, med)
	}
	return out, len(out), nil
}
func (m *mockMedicineRepo) ListAll(_ context.Context) ([]*Medicine, error) {
	var out []*Medicine
	for _, med := range m.data {
		out = append(out, med)
	}
	return out, nil
}

func TestCreateMedicineValidation(t *testing.T) {
	svc := NewService(newMockMedicineRepo())
	ctx := context.Background()

	tests := []struct {
		name    string
		med     Medicine
		wantErr bool
	}{
		{"valid", Medicine{Name: "Aspirin 75mg", GenericName: "aspirin", ReorderLevel: 20}, false},
		{"missing name", Medicine{GenericName: "aspirin"}, true},
		{"missing generic", Medicine{Name: "Aspirin 75mg"}, true},
		{"negative reorder level", Medicine{Name: "X", GenericName: "x", ReorderLevel: -1}, true},
		{"negative price", Medicine{Name: "X", GenericName: "x", UnitPrice: decimal.NewFromInt(-5)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CreateMedicine(ctx, &tt.med)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateMedicine() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClassTags(t *testing.T) {
	repo := newMockMedicineRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.CreateMedicine(ctx, &Medicine{
		Name: "Amoxil", GenericName: "Amoxicillin", ClassTags: []string{"penicillins", "antibiotic"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := svc.CreateMedicine(ctx, &Medicine{Name: "Paracetamol", GenericName: "paracetamol"}); err != nil {
		t.Fatal(err)
	}

	tags, err := svc.ClassTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 {
		t.Fatalf("expected 1 tagged substance, got %d", len(tags))
	}
	got, ok := tags["amoxicillin"]
	if !ok {
		t.Fatal("expected lower-cased generic name key")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tags, got %v", got)
	}
}
