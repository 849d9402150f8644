package safety

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/pharmacy/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== InteractionRule Repository ===========

type ruleRepoPG struct{ pool *pgxpool.Pool }

func NewRuleRepoPG(pool *pgxpool.Pool) RuleRepository {
	return &ruleRepoPG{pool: pool}
}

func (r *ruleRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const ruleCols = `id, substance_a, substance_b, severity, description, created_at, updated_at`

func scanRule(row pgx.Row) (*InteractionRule, error) {
	var ir InteractionRule
	err := row.Scan(&ir.ID, &ir.SubstanceA, &ir.SubstanceB, &ir.Severity,
		&ir.Description, &ir.CreatedAt, &ir.UpdatedAt)
	return &ir, err
}

func (r *ruleRepoPG) Create(ctx context.Context, ir *InteractionRule) error {
	ir.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO interaction_rule (id, substance_a, substance_b, severity, description)
		VALUES ($1,$2,$3,$4,$5)`,
		ir.ID, ir.SubstanceA, ir.SubstanceB, ir.Severity, ir.Description)
	return err
}

func (r *ruleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*InteractionRule, error) {
	return scanRule(r.conn(ctx).QueryRow(ctx,
		`SELECT `+ruleCols+` FROM interaction_rule WHERE id = $1`, id))
}

func (r *ruleRepoPG) Update(ctx context.Context, ir *InteractionRule) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE interaction_rule SET substance_a=$2, substance_b=$3, severity=$4,
			description=$5, updated_at=NOW()
		WHERE id = $1`,
		ir.ID, ir.SubstanceA, ir.SubstanceB, ir.Severity, ir.Description)
	return err
}

func (r *ruleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM interaction_rule WHERE id = $1`, id)
	return err
}

func (r *ruleRepoPG) List(ctx context.Context, limit, offset int) ([]*InteractionRule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM interaction_rule`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+ruleCols+` FROM interaction_rule ORDER BY substance_a, substance_b LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*InteractionRule
	for rows.Next() {
		ir, err := scanRule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, ir)
	}
	return items, total, nil
}

func (r *ruleRepoPG) ListAll(ctx context.Context) ([]*InteractionRule, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+ruleCols+` FROM interaction_rule`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*InteractionRule
	for rows.Next() {
		ir, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ir)
	}
	return items, nil
}

// =========== AllergyGroup Repository ===========

type groupRepoPG struct{ pool *pgxpool.Pool }

func NewGroupRepoPG(pool *pgxpool.Pool) GroupRepository {
	return &groupRepoPG{pool: pool}
}

func (r *groupRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const groupCols = `id, name, members, created_at, updated_at`

func scanGroup(row pgx.Row) (*AllergyGroup, error) {
	var g AllergyGroup
	err := row.Scan(&g.ID, &g.Name, &g.Members, &g.CreatedAt, &g.UpdatedAt)
	return &g, err
}

func (r *groupRepoPG) Create(ctx context.Context, g *AllergyGroup) error {
	g.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO allergy_group (id, name, members) VALUES ($1,$2,$3)`,
		g.ID, g.Name, g.Members)
	return err
}

func (r *groupRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*AllergyGroup, error) {
	return scanGroup(r.conn(ctx).QueryRow(ctx,
		`SELECT `+groupCols+` FROM allergy_group WHERE id = $1`, id))
}

func (r *groupRepoPG) Update(ctx context.Context, g *AllergyGroup) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE allergy_group SET name=$2, members=$3, updated_at=NOW() WHERE id = $1`,
		g.ID, g.Name, g.Members)
	return err
}

func (r *groupRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM allergy_group WHERE id = $1`, id)
	return err
}

func (r *groupRepoPG) List(ctx context.Context, limit, offset int) ([]*AllergyGroup, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM allergy_group`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+groupCols+` FROM allergy_group ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*AllergyGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, g)
	}
	return items, total, nil
}

func (r *groupRepoPG) ListAll(ctx context.Context) ([]*AllergyGroup, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+groupCols+` FROM allergy_group`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*AllergyGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, nil
}
