package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

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

type batchRepoPG struct{ pool *pgxpool.Pool }

func NewBatchRepoPG(pool *pgxpool.Pool) BatchRepository {
	return &batchRepoPG{pool: pool}
}

func (r *batchRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const batchCols = `id, medicine_id, batch_number, expiry_date, quantity, location, supplier,
	cost_price::text, selling_price::text, received_date, version, created_at, updated_at`

func scanBatch(row pgx.Row) (*Batch, error) {
	var b Batch
	var cost, selling string
	err := row.Scan(&b.ID, &b.MedicineID, &b.BatchNumber, &b.ExpiryDate, &b.Quantity,
		&b.Location, &b.Supplier, &cost, &selling, &b.ReceivedDate, &b.Version,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if b.CostPrice, err = decimal.NewFromString(cost); err != nil {
		return nil, fmt.Errorf("parse cost_price: %w", err)
	}
	if b.SellingPrice, err = decimal.NewFromString(selling); err != nil {
		return nil, fmt.Errorf("parse selling_price: %w", err)
	}
	return &b, nil
}

func (r *batchRepoPG) Create(ctx context.Context, b *Batch) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO batch (id, medicine_id, batch_number, expiry_date, quantity,
			location, supplier, cost_price, selling_price, received_date, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric,$9::numeric,$10,1)`,
		b.ID, b.MedicineID, b.BatchNumber, b.ExpiryDate, b.Quantity,
		b.Location, b.Supplier, b.CostPrice.String(), b.SellingPrice.String(), b.ReceivedDate)
	if err == nil {
		b.Version = 1
	}
	return err
}

func (r *batchRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Batch, error) {
	return scanBatch(r.conn(ctx).QueryRow(ctx, `SELECT `+batchCols+` FROM batch WHERE id = $1`, id))
}

func (r *batchRepoPG) ListByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*Batch, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+batchCols+` FROM batch WHERE medicine_id = $1
		ORDER BY expiry_date, received_date, id`, medicineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, nil
}

func (r *batchRepoPG) ListExpiring(ctx context.Context, from time.Time, withinDays int) ([]*Batch, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+batchCols+` FROM batch
		WHERE quantity > 0 AND expiry_date >= $1 AND expiry_date <= $2
		ORDER BY expiry_date, received_date, id`,
		from, from.AddDate(0, 0, withinDays))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, nil
}

// ApplyPlan performs the version-checked decrements. The caller wraps it in
// a transaction (db.WithTx) together with the transaction-log insert, so the
// whole commit is one all-or-nothing step.
func (r *batchRepoPG) ApplyPlan(ctx context.Context, plan *Plan) error {
	c := r.conn(ctx)
	for _, line := range plan.Lines {
		if line.Quantity <= 0 {
			return &InvalidBatchStateError{
				MedicineID: plan.MedicineID, BatchID: line.BatchID,
				Reason: fmt.Sprintf("non-positive plan quantity %d", line.Quantity),
			}
		}
		tag, err := c.Exec(ctx, `
			UPDATE batch
			SET quantity = quantity - $2, version = version + 1, updated_at = NOW()
			WHERE id = $1 AND version = $3 AND quantity >= $2`,
			line.BatchID, line.Quantity, plan.Versions[line.BatchID])
		if err != nil {
			return fmt.Errorf("apply plan line: %w", err)
		}
		if tag.RowsAffected() == 1 {
			continue
		}

		// The guarded update missed: distinguish a concurrent change from a
		// broken invariant.
		var qty int
		var version int64
		err = c.QueryRow(ctx, `SELECT quantity, version FROM batch WHERE id = $1`, line.BatchID).
			Scan(&qty, &version)
		if errors.Is(err, pgx.ErrNoRows) {
			return &InvalidBatchStateError{
				MedicineID: plan.MedicineID, BatchID: line.BatchID,
				Reason: "plan references a batch that no longer exists",
			}
		}
		if err != nil {
			return fmt.Errorf("inspect batch after failed decrement: %w", err)
		}
		if version != plan.Versions[line.BatchID] {
			return ErrVersionConflict
		}
		return &InvalidBatchStateError{
			MedicineID: plan.MedicineID, BatchID: line.BatchID,
			Reason: fmt.Sprintf("decrement of %d would take quantity %d negative", line.Quantity, qty),
		}
	}
	return nil
}
