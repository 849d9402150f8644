package dispense

import (
	"context"

	"github.com/google/uuid"
)

// TransactionRepository is the append-only dispense transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// GetByToken returns ErrNotFound when no transaction carries the token.
	GetByToken(ctx context.Context, token string) (*Transaction, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Transaction, int, error)
}

// AtomicRunner executes fn as one all-or-nothing step. The SQL
// implementation wraps fn in a database transaction; the in-memory one
// relies on its repositories' own locking.
type AtomicRunner interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}
