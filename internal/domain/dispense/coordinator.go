package dispense

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/pharmacy/internal/domain/audit"
	"github.com/clinicore/pharmacy/internal/domain/catalog"
	"github.com/clinicore/pharmacy/internal/domain/inventory"
	"github.com/clinicore/pharmacy/internal/domain/safety"
	"github.com/clinicore/pharmacy/internal/platform/telemetry"
)

// SafetyChecker is the slice of the safety service the coordinator needs.
type SafetyChecker interface {
	Check(candidates, existingMedications, allergies []string) []safety.Finding
}

// Config are the coordinator's operational knobs.
type Config struct {
	// LockTimeout bounds the wait for the per-medicine critical section.
	LockTimeout time.Duration
	// MaxRetries bounds re-planning after commit-time version conflicts.
	MaxRetries int
	// OverrideRequiresReason makes the override reason mandatory when a
	// contraindicated finding is acknowledged.
	OverrideRequiresReason bool
}

// Coordinator orchestrates safety check, allocation, and atomic commit for
// dispense requests. It owns the concurrency discipline: one request per
// medicine at a time, version-checked all-or-nothing commits, bounded
// retries under contention.
type Coordinator struct {
	cfg          Config
	medicines    catalog.MedicineRepository
	batches      inventory.BatchRepository
	transactions TransactionRepository
	atomic       AtomicRunner
	checker      SafetyChecker
	engine       *inventory.Engine
	advisor      *inventory.Advisor
	auditor      audit.Emitter
	notifier     Notifier
	metrics      *telemetry.Metrics
	logger       zerolog.Logger

	locks *keyedLocks

	mu          sync.Mutex
	quarantined map[uuid.UUID]string
}

func NewCoordinator(
	cfg Config,
	medicines catalog.MedicineRepository,
	batches inventory.BatchRepository,
	transactions TransactionRepository,
	atomic AtomicRunner,
	checker SafetyChecker,
	auditor audit.Emitter,
	notifier Notifier,
	metrics *telemetry.Metrics,
	logger zerolog.Logger,
) *Coordinator {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Coordinator{
		cfg:          cfg,
		medicines:    medicines,
		batches:      batches,
		transactions: transactions,
		atomic:       atomic,
		checker:      checker,
		engine:       inventory.NewEngine(),
		advisor:      inventory.NewAdvisor(),
		auditor:      auditor,
		notifier:     notifier,
		metrics:      metrics,
		logger:       logger,
		locks:        newKeyedLocks(),
		quarantined:  make(map[uuid.UUID]string),
	}
}

// Dispense runs the two-phase dispense protocol. On success the returned
// transaction is committed and audited. A BlockingFindingsError means the
// caller must acknowledge the findings and resubmit; nothing was mutated.
func (c *Coordinator) Dispense(ctx context.Context, req *Request) (*Transaction, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}
	// Idempotent replay before anything else. A duplicate token is never an
	// error; the prior transaction is returned even when the medicine was
	// quarantined after it committed, since replay mutates nothing.
	if prior, err := c.transactions.GetByToken(ctx, req.Token); err == nil {
		return prior, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("look up token: %w", err)
	}

	if reason, ok := c.quarantineReason(req.MedicineID); ok {
		return nil, &QuarantinedError{MedicineID: req.MedicineID, Reason: reason}
	}

	med, err := c.medicines.GetByID(ctx, req.MedicineID)
	if err != nil {
		return nil, fmt.Errorf("unknown medicine %s", req.MedicineID)
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	findings := c.checker.Check([]string{med.GenericName}, req.ExistingMedications, req.Allergies)
	c.countFindings(findings)
	override, err := c.gateFindings(req, findings)
	if err != nil {
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, c.cfg.LockTimeout)
	defer cancel()
	if err := c.locks.Acquire(lockCtx, req.MedicineID); err != nil {
		c.metrics.IncCounter("pharmacy_dispense_rejected_total", map[string]string{"reason": "lock_timeout"})
		return nil, err
	}
	defer c.locks.Release(req.MedicineID)

	// Replay check again inside the critical section: a duplicate submission
	// may have committed while this one waited for the lock.
	if prior, err := c.transactions.GetByToken(ctx, req.Token); err == nil {
		return prior, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("look up token: %w", err)
	}

	// The previous lock holder may have quarantined the medicine.
	if reason, ok := c.quarantineReason(req.MedicineID); ok {
		return nil, &QuarantinedError{MedicineID: req.MedicineID, Reason: reason}
	}

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snapshot, err := c.batches.ListByMedicine(ctx, req.MedicineID)
		if err != nil {
			return nil, fmt.Errorf("snapshot ledger: %w", err)
		}
		plan, err := c.engine.Plan(req.MedicineID, req.Quantity, asOf, snapshot)
		if err != nil {
			var insufficient *inventory.InsufficientStockError
			if errors.As(err, &insufficient) {
				c.metrics.IncCounter("pharmacy_dispense_rejected_total", map[string]string{"reason": "insufficient_stock"})
			}
			return nil, err
		}

		tx := c.buildTransaction(req, med, plan, findings, override)

		// Once the commit step starts it runs to completion; abandoning the
		// request mid-commit must not leave a partial decrement.
		commitCtx := context.WithoutCancel(ctx)
		err = c.atomic.RunAtomic(commitCtx, func(txCtx context.Context) error {
			if err := c.batches.ApplyPlan(txCtx, plan); err != nil {
				return err
			}
			return c.transactions.Create(txCtx, tx)
		})
		switch {
		case err == nil:
			c.afterCommit(commitCtx, tx, med, override)
			return tx, nil
		case errors.Is(err, inventory.ErrVersionConflict):
			c.metrics.IncCounter("pharmacy_dispense_retries_total", nil)
			c.logger.Debug().
				Str("medicine_id", req.MedicineID.String()).
				Int("attempt", attempt).
				Msg("commit conflict, re-planning")
			continue
		default:
			var invalid *inventory.InvalidBatchStateError
			if errors.As(err, &invalid) {
				c.quarantine(commitCtx, invalid, req.Actor)
			}
			return nil, err
		}
	}

	c.metrics.IncCounter("pharmacy_dispense_rejected_total", map[string]string{"reason": "contention"})
	return nil, &ContentionError{Attempts: c.cfg.MaxRetries}
}

func (c *Coordinator) validate(req *Request) error {
	if req.MedicineID == uuid.Nil {
		return fmt.Errorf("medicine_id is required")
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0, got %d", req.Quantity)
	}
	if req.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if strings.TrimSpace(req.Token) == "" {
		return fmt.Errorf("idempotency token is required")
	}
	return nil
}

// gateFindings enforces the safety gate: blocking findings must be
// acknowledged, and overriding a contraindicated finding may require a
// reason. Returns whether this dispense is an override.
func (c *Coordinator) gateFindings(req *Request, findings []safety.Finding) (bool, error) {
	blocking := false
	contraindicated := false
	for _, f := range findings {
		if f.Severity.Blocking() {
			blocking = true
		}
		if f.Severity == safety.SeverityContraindicated {
			contraindicated = true
		}
	}
	if !blocking {
		return false, nil
	}
	if !req.ProceedDespiteFindings {
		return false, &BlockingFindingsError{Findings: findings}
	}
	if contraindicated && c.cfg.OverrideRequiresReason && strings.TrimSpace(req.OverrideReason) == "" {
		return false, ErrOverrideReasonRequired
	}
	return true, nil
}

func (c *Coordinator) buildTransaction(req *Request, med *catalog.Medicine, plan *inventory.Plan, findings []safety.Finding, override bool) *Transaction {
	lines := make([]Line, len(plan.Lines))
	for i, l := range plan.Lines {
		lines[i] = Line{BatchID: l.BatchID, Quantity: l.Quantity}
	}
	return &Transaction{
		ID:             uuid.New(),
		Token:          req.Token,
		MedicineID:     req.MedicineID,
		PatientID:      req.PatientID,
		Quantity:       req.Quantity,
		Lines:          lines,
		Findings:       findings,
		Override:       override,
		OverrideReason: req.OverrideReason,
		Controlled:     med.IsControlled,
		Actor:          req.Actor,
		CommittedAt:    time.Now().UTC(),
	}
}

func (c *Coordinator) afterCommit(ctx context.Context, tx *Transaction, med *catalog.Medicine, override bool) {
	c.metrics.IncCounter("pharmacy_dispense_committed_total", nil)

	medID := tx.MedicineID
	c.emitAudit(ctx, &audit.Event{
		Kind:       audit.KindDispenseCommitted,
		Actor:      tx.Actor,
		MedicineID: &medID,
		Payload: map[string]interface{}{
			"transaction_id": tx.ID.String(),
			"patient_id":     tx.PatientID.String(),
			"quantity":       tx.Quantity,
			"controlled":     tx.Controlled,
		},
	})
	if override {
		c.metrics.IncCounter("pharmacy_safety_overrides_total", nil)
		c.emitAudit(ctx, &audit.Event{
			Kind:       audit.KindOverrideRecorded,
			Actor:      tx.Actor,
			MedicineID: &medID,
			Payload: map[string]interface{}{
				"transaction_id": tx.ID.String(),
				"reason":         tx.OverrideReason,
			},
		})
	}

	c.notifier.DispenseCommitted(ctx, tx)

	snapshot, err := c.batches.ListByMedicine(ctx, tx.MedicineID)
	if err != nil {
		c.logger.Warn().Err(err).Msg("post-commit reorder evaluation skipped")
		return
	}
	if sig := c.advisor.Evaluate(med.ID, med.Name, med.ReorderLevel, snapshot, tx.CommittedAt); sig != nil {
		c.metrics.SetGauge("pharmacy_reorder_signals", map[string]string{"medicine": med.Name}, 1)
		c.notifier.ReorderAdvised(ctx, sig)
	} else {
		c.metrics.SetGauge("pharmacy_reorder_signals", map[string]string{"medicine": med.Name}, 0)
	}
}

func (c *Coordinator) emitAudit(ctx context.Context, e *audit.Event) {
	if err := c.auditor.Emit(ctx, e); err != nil {
		c.logger.Error().Err(err).Str("kind", e.Kind).Msg("audit emission failed")
	}
}

func (c *Coordinator) countFindings(findings []safety.Finding) {
	for _, f := range findings {
		labels := map[string]string{"kind": string(f.Kind)}
		if f.Severity != "" {
			labels["severity"] = string(f.Severity)
		}
		c.metrics.IncCounter("pharmacy_safety_findings_total", labels)
	}
}

// quarantine halts further dispensing of a medicine after an invariant
// violation. Never auto-corrected; ClearQuarantine is the manual path.
func (c *Coordinator) quarantine(ctx context.Context, violation *inventory.InvalidBatchStateError, actor string) {
	c.mu.Lock()
	c.quarantined[violation.MedicineID] = violation.Reason
	c.mu.Unlock()

	medID := violation.MedicineID
	c.logger.Error().
		Str("medicine_id", medID.String()).
		Str("batch_id", violation.BatchID.String()).
		Str("reason", violation.Reason).
		Msg("medicine quarantined after invariant violation")
	c.emitAudit(ctx, &audit.Event{
		Kind:       audit.KindBatchQuarantined,
		Actor:      actor,
		MedicineID: &medID,
		Payload: map[string]interface{}{
			"batch_id": violation.BatchID.String(),
			"reason":   violation.Reason,
		},
	})
}

func (c *Coordinator) quarantineReason(medicineID uuid.UUID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reason, ok := c.quarantined[medicineID]
	return reason, ok
}

// Quarantined lists medicines currently halted for reconciliation.
func (c *Coordinator) Quarantined() map[uuid.UUID]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[uuid.UUID]string, len(c.quarantined))
	for id, reason := range c.quarantined {
		out[id] = reason
	}
	return out
}

// ClearQuarantine re-enables dispensing after manual reconciliation.
func (c *Coordinator) ClearQuarantine(medicineID uuid.UUID) {
	c.mu.Lock()
	delete(c.quarantined, medicineID)
	c.mu.Unlock()
}

// GetTransaction returns a committed transaction.
func (c *Coordinator) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return c.transactions.GetByID(ctx, id)
}

// ListTransactionsByPatient pages a patient's dispense history.
func (c *Coordinator) ListTransactionsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	return c.transactions.ListByPatient(ctx, patientID, limit, offset)
}
