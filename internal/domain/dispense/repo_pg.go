package dispense

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

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

type transactionRepoPG struct{ pool *pgxpool.Pool }

func NewTransactionRepoPG(pool *pgxpool.Pool) TransactionRepository {
	return &transactionRepoPG{pool: pool}
}

func (r *transactionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const txCols = `id, token, medicine_id, patient_id, quantity, lines, findings,
	override, override_reason, controlled, actor, committed_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	var lines, findings []byte
	err := row.Scan(&t.ID, &t.Token, &t.MedicineID, &t.PatientID, &t.Quantity,
		&lines, &findings, &t.Override, &t.OverrideReason, &t.Controlled,
		&t.Actor, &t.CommittedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(lines, &t.Lines); err != nil {
		return nil, fmt.Errorf("decode lines: %w", err)
	}
	if len(findings) > 0 {
		if err := json.Unmarshal(findings, &t.Findings); err != nil {
			return nil, fmt.Errorf("decode findings: %w", err)
		}
	}
	return &t, nil
}

func (r *transactionRepoPG) Create(ctx context.Context, t *Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	lines, err := json.Marshal(t.Lines)
	if err != nil {
		return fmt.Errorf("encode lines: %w", err)
	}
	var findings []byte
	if t.Findings != nil {
		if findings, err = json.Marshal(t.Findings); err != nil {
			return fmt.Errorf("encode findings: %w", err)
		}
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO dispense_transaction (id, token, medicine_id, patient_id, quantity,
			lines, findings, override, override_reason, controlled, actor, committed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		t.ID, t.Token, t.MedicineID, t.PatientID, t.Quantity,
		lines, findings, t.Override, t.OverrideReason, t.Controlled, t.Actor, t.CommittedAt)
	return err
}

func (r *transactionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	t, err := scanTransaction(r.conn(ctx).QueryRow(ctx,
		`SELECT `+txCols+` FROM dispense_transaction WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *transactionRepoPG) GetByToken(ctx context.Context, token string) (*Transaction, error) {
	t, err := scanTransaction(r.conn(ctx).QueryRow(ctx,
		`SELECT `+txCols+` FROM dispense_transaction WHERE token = $1`, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *transactionRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM dispense_transaction WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+txCols+` FROM dispense_transaction
		WHERE patient_id = $1 ORDER BY committed_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, nil
}

// PGAtomic runs the commit step inside one database transaction.
type PGAtomic struct{ pool *pgxpool.Pool }

func NewPGAtomic(pool *pgxpool.Pool) *PGAtomic {
	return &PGAtomic{pool: pool}
}

func (a *PGAtomic) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, a.pool, fn)
}
