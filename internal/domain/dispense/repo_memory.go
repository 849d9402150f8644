package dispense

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryTransactionRepository is an in-memory append-only transaction log.
type MemoryTransactionRepository struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*Transaction
	byToken map[string]*Transaction
	order   []*Transaction
}

func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{
		byID:    make(map[uuid.UUID]*Transaction),
		byToken: make(map[string]*Transaction),
	}
}

func (r *MemoryTransactionRepository) Create(_ context.Context, t *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	r.byID[t.ID] = &cp
	r.byToken[t.Token] = &cp
	r.order = append(r.order, &cp)
	return nil
}

func (r *MemoryTransactionRepository) GetByID(_ context.Context, id uuid.UUID) (*Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryTransactionRepository) GetByToken(_ context.Context, token string) (*Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryTransactionRepository) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*Transaction
	for _, t := range r.order {
		if t.PatientID == patientID {
			cp := *t
			matched = append(matched, &cp)
		}
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// MemoryAtomic runs fn directly; the in-memory repositories provide their
// own locking.
type MemoryAtomic struct{}

func (MemoryAtomic) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
