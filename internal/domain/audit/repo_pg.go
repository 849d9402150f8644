package audit

import (
	"context"
	"fmt"
	"time"

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

// PGEmitter appends events to the audit_event table. Insert-only; there is
// no update or delete path.
type PGEmitter struct{ pool *pgxpool.Pool }

func NewPGEmitter(pool *pgxpool.Pool) *PGEmitter {
	return &PGEmitter{pool: pool}
}

func (r *PGEmitter) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *PGEmitter) Emit(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_event (id, kind, actor, medicine_id, payload, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.Kind, e.Actor, e.MedicineID, e.Payload, e.OccurredAt)
	return err
}

// List returns events newest first, optionally filtered by kind.
func (r *PGEmitter) List(ctx context.Context, kind string, limit, offset int) ([]*Event, int, error) {
	where := ``
	args := []interface{}{}
	if kind != "" {
		args = append(args, kind)
		where = ` WHERE kind = $1`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM audit_event`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, kind, actor, medicine_id, payload, occurred_at
		FROM audit_event%s
		ORDER BY occurred_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.Actor, &e.MedicineID, &e.Payload, &e.OccurredAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &e)
	}
	return items, total, nil
}
