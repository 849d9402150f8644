package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clinicore/pharmacy/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type medicineRepoPG struct{ pool *pgxpool.Pool }

func NewMedicineRepoPG(pool *pgxpool.Pool) MedicineRepository {
	return &medicineRepoPG{pool: pool}
}

func (r *medicineRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const medCols = `id, name, generic_name, category, class_tags, unit_price::text,
	reorder_level, is_controlled, requires_prescription, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	var price string
	err := row.Scan(&m.ID, &m.Name, &m.GenericName, &m.Category, &m.ClassTags, &price,
		&m.ReorderLevel, &m.IsControlled, &m.RequiresPrescription, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.UnitPrice, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse unit_price: %w", err)
	}
	return &m, nil
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medicine (id, name, generic_name, category, class_tags, unit_price,
			reorder_level, is_controlled, requires_prescription)
		VALUES ($1,$2,$3,$4,$5,$6::numeric,$7,$8,$9)`,
		m.ID, m.Name, m.GenericName, m.Category, m.ClassTags, m.UnitPrice.String(),
		m.ReorderLevel, m.IsControlled, m.RequiresPrescription)
	return err
}

func (r *medicineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx, `SELECT `+medCols+` FROM medicine WHERE id = $1`, id))
}

func (r *medicineRepoPG) GetByName(ctx context.Context, name string) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medCols+` FROM medicine WHERE LOWER(name) = LOWER($1)`, name))
}

func (r *medicineRepoPG) Update(ctx context.Context, m *Medicine) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicine SET name=$2, generic_name=$3, category=$4, class_tags=$5,
			unit_price=$6::numeric, reorder_level=$7, is_controlled=$8,
			requires_prescription=$9, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.GenericName, m.Category, m.ClassTags,
		m.UnitPrice.String(), m.ReorderLevel, m.IsControlled, m.RequiresPrescription)
	return err
}

func (r *medicineRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medicine WHERE id = $1`, id)
	return err
}

func (r *medicineRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Medicine, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if name := params["name"]; name != "" {
		args = append(args, "%"+name+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR generic_name ILIKE $%d)", len(args), len(args)))
	}
	if cat := params["category"]; cat != "" {
		args = append(args, cat)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medicine WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medCols+` FROM medicine WHERE `+cond+
			fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}

func (r *medicineRepoPG) ListAll(ctx context.Context) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+medCols+` FROM medicine ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, nil
}
