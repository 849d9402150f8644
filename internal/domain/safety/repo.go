package safety

import (
	"context"

	"github.com/google/uuid"
)

type RuleRepository interface {
	Create(ctx context.Context, r *InteractionRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*InteractionRule, error)
	Update(ctx context.Context, r *InteractionRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*InteractionRule, int, error)
	ListAll(ctx context.Context) ([]*InteractionRule, error)
}

type GroupRepository interface {
	Create(ctx context.Context, g *AllergyGroup) error
	GetByID(ctx context.Context, id uuid.UUID) (*AllergyGroup, error)
	Update(ctx context.Context, g *AllergyGroup) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*AllergyGroup, int, error)
	ListAll(ctx context.Context) ([]*AllergyGroup, error)
}
