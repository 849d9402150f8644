package dispense

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/pharmacy/internal/domain/audit"
	"github.com/clinicore/pharmacy/internal/domain/catalog"
	"github.com/clinicore/pharmacy/internal/domain/inventory"
	"github.com/clinicore/pharmacy/internal/domain/safety"
	"github.com/clinicore/pharmacy/internal/platform/telemetry"
)

type mockMedicineRepo struct {
	mu        sync.Mutex
	medicines map[uuid.UUID]*catalog.Medicine
}

func newMockMedicineRepo() *mockMedicineRepo {
	return &mockMedicineRepo{medicines: make(map[uuid.UUID]*catalog.Medicine)}
}

func (m *mockMedicineRepo) Create(_ context.Context, med *catalog.Medicine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.medicines[med.ID] = med
	return nil
}

func (m *mockMedicineRepo) GetByID(_ context.Context, id uuid.UUID) (*catalog.Medicine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	med, ok := m.medicines[id]
	if !ok {
		return nil, fmt.Errorf("medicine %s not found", id)
	}
	return med, nil
}

func (m *mockMedicineRepo) GetByName(_ context.Context, name string) (*catalog.Medicine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, med := range m.medicines {
		if med.Name == name {
			return med, nil
		}
	}
	return nil, fmt.Errorf("medicine %q not found", name)
}

func (m *mockMedicineRepo) Update(_ context.Context, med *catalog.Medicine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.medicines[med.ID] = med
	return nil
}

func (m *mockMedicineRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.medicines, id)
	return nil
}

func (m *mockMedicineRepo) Search(_ context.Context, _ map[string]string, _, _ int) ([]*catalog.Medicine, int, error) {
	return nil, 0, nil
}

func (m *mockMedicineRepo) ListAll(_ context.Context) ([]*catalog.Medicine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*catalog.Medicine
	for _, med := range m.medicines {
		out = append(out, med)
	}
	return out, nil
}

// stubChecker returns a fixed set of findings regardless of input.
type stubChecker struct {
	findings []safety.Finding
}

func (s stubChecker) Check(_, _, _ []string) []safety.Finding {
	return s.findings
}

type recordingNotifier struct {
	mu        sync.Mutex
	committed []*Transaction
	reorders  []*inventory.ReorderSignal
}

func (n *recordingNotifier) DispenseCommitted(_ context.Context, t *Transaction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.committed = append(n.committed, t)
}

func (n *recordingNotifier) ReorderAdvised(_ context.Context, sig *inventory.ReorderSignal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reorders = append(n.reorders, sig)
}

// conflictingBatchRepo injects version conflicts into the first n commit
// attempts, then delegates.
type conflictingBatchRepo struct {
	inventory.BatchRepository
	mu        sync.Mutex
	conflicts int
}

func (r *conflictingBatchRepo) ApplyPlan(ctx context.Context, plan *inventory.Plan) error {
	r.mu.Lock()
	inject := r.conflicts > 0
	if inject {
		r.conflicts--
	}
	r.mu.Unlock()
	if inject {
		return inventory.ErrVersionConflict
	}
	return r.BatchRepository.ApplyPlan(ctx, plan)
}

type fixture struct {
	coord     *Coordinator
	medicines *mockMedicineRepo
	batches   inventory.BatchRepository
	txs       *MemoryTransactionRepository
	auditor   *audit.MemoryEmitter
	notifier  *recordingNotifier
	metrics   *telemetry.Metrics
	medicine  *catalog.Medicine
}

func newFixture(t *testing.T, checker SafetyChecker, cfg Config, batches inventory.BatchRepository) *fixture {
	t.Helper()
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	f := &fixture{
		medicines: newMockMedicineRepo(),
		batches:   batches,
		txs:       NewMemoryTransactionRepository(),
		auditor:   audit.NewMemoryEmitter(),
		notifier:  &recordingNotifier{},
		metrics:   telemetry.NewMetrics(),
	}
	f.medicine = &catalog.Medicine{
		ID:           uuid.New(),
		Name:         "Amoxil",
		GenericName:  "amoxicillin",
		ReorderLevel: 10,
	}
	if err := f.medicines.Create(context.Background(), f.medicine); err != nil {
		t.Fatalf("seed medicine: %v", err)
	}
	f.coord = NewCoordinator(cfg, f.medicines, f.batches, f.txs, MemoryAtomic{},
		checker, f.auditor, f.notifier, f.metrics, zerolog.Nop())
	return f
}

func seedBatch(t *testing.T, repo inventory.BatchRepository, medicineID uuid.UUID, qty int, expiry, received time.Time) *inventory.Batch {
	t.Helper()
	b := &inventory.Batch{
		ID:           uuid.New(),
		MedicineID:   medicineID,
		BatchNumber:  fmt.Sprintf("BN-%d", qty),
		ExpiryDate:   expiry,
		Quantity:     qty,
		ReceivedDate: received,
	}
	if err := repo.Create(context.Background(), b); err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	return b
}

func baseRequest(f *fixture, qty int, token string) *Request {
	return &Request{
		MedicineID: f.medicine.ID,
		Quantity:   qty,
		PatientID:  uuid.New(),
		Token:      token,
		Actor:      "pharm-1",
	}
}

func TestDispenseCommitsFIFO(t *testing.T) {
	batches := inventory.NewMemoryBatchRepository()
	f := newFixture(t, stubChecker{}, Config{}, batches)
	now := time.Now().UTC()
	early := seedBatch(t, batches, f.medicine.ID, 100, now.AddDate(0, 2, 0), now.AddDate(0, -3, 0))
	late := seedBatch(t, batches, f.medicine.ID, 80, now.AddDate(0, 6, 0), now.AddDate(0, -1, 0))

	tx, err := f.coord.Dispense(context.Background(), baseRequest(f, 120, "tok-1"))
	if err != nil {
		t.Fatalf("Dispense: %v", err)
	}
	if len(tx.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(tx.Lines))
	}
	if tx.Lines[0].BatchID != early.ID || tx.Lines[0].Quantity != 100 {
		t.Errorf("first line = (%s, %d), want (%s, 100)", tx.Lines[0].BatchID, tx.Lines[0].Quantity, early.ID)
	}
	if tx.Lines[1].BatchID != late.ID || tx.Lines[1].Quantity != 20 {
		t.Errorf("second line = (%s, %d), want (%s, 20)", tx.Lines[1].BatchID, tx.Lines[1].Quantity, late.ID)
	}

	got, err := batches.GetByID(context.Background(), late.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Quantity != 60 {
		t.Errorf("later batch quantity = %d, want 60", got.Quantity)
	}

	events := f.auditor.ByKind(audit.KindDispenseCommitted)
	if len(events) != 1 {
		t.Fatalf("expected 1 committed audit event, got %d", len(events))
	}
	if events[0].Actor != "pharm-1" {
		t.Errorf("audit actor = %q", events[0].Actor)
	}
	if len(f.notifier.committed) != 1 {
		t.Errorf("expected 1 committed notification, got %d", len(f.notifier.committed))
	}
	if v := f.metrics.CounterValue("pharmacy_dispense_committed_total", nil); v != 1 {
		t.Errorf("committed counter = %v, want 1", v)
	}
}

func TestDispenseIdempotentReplay(t *testing.T) {
	batches := inventory.NewMemoryBatchRepository()
	f := newFixture(t, stubChecker{}, Config{}, batches)
	now := time.Now().UTC()
	b := seedBatch(t, batches, f.medicine.ID, 50, now.AddDate(1, 0, 0), now)

	req := baseRequest(f, 10, "tok-replay")
	first, err := f.coord.Dispense(context.Background(), req)
	if err != nil {
		t.Fatalf("first Dispense: %v", err)
	}
	second, err := f.coord.Dispense(context.Background(), req)
	if err != nil {
		t.Fatalf("replay Dispense: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("replay returned a different transaction: %s vs %s", second.ID, first.ID)
	}

	got, _ := batches.GetByID(context.Background(), b.ID)
	if got.Quantity != 40 {
		t.Errorf("quantity after replay = %d, want 40 (decremented once)", got.Quantity)
	}
	if v := f.metrics.CounterValue("pharmacy_dispense_committed_total", nil); v != 1 {
		t.Errorf("committed counter = %v, want 1", v)
	}
}

func TestDispenseInsufficientStockLeavesLedgerUntouched(t *testing.T) {
	batches := inventory.NewMemoryBatchRepository()
	f := newFixture(t, stubChecker{}, Config{}, batches)
	now := time.Now().UTC()
	b := seedBatch(t, batches, f.medicine.ID, 30, now.AddDate(1, 0, 0), now)

	_, err := f.coord.Dispense(context.Background(), baseRequest(f, 50, "tok-short"))
	var insufficient *inventory.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Shortfall() != 20 {
		t.Errorf("shortfall = %d, want 20", insufficient.Shortfall())
	}

	got, _ := batches.GetByID(context.Background(), b.ID)
	if got.Quantity != 30 {
		t.Errorf("quantity = %d, want 30 (untouched)", got.Quantity)
	}
	if _, err := f.txs.GetByToken(context.Background(), "tok-short"); !errors.Is(err, ErrNotFound) {
		t.Errorf("no transaction should exist for a rejected request")
	}
}

func TestDispenseConcurrentRequestsConserveStock(t *testing.T) {
	batches := inventory.NewMemoryBatchRepository()
	f := newFixture(t, stubChecker{}, Config{LockTimeout: 5 * time.Second}, batches)
	now := time.Now().UTC()
	seedBatch(t, batches, f.medicine.ID, 60, now.AddDate(0, 3, 0), now.AddDate(0, -2, 0))
	seedBatch(t, batches, f.medicine.ID, 140, now.AddDate(0, 9, 0), now.AddDate(0, -1, 0))

	const workers = 20
	const each = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.coord.Dispense(context.Background(),
				baseRequest(f, each, fmt.Sprintf("tok-c-%d", i)))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
	snapshot, _ := batches.ListByMedicine(context.Background(), f.medicine.ID)
	if got := inventory.TotalOnHand(snapshot, now); got != 0 {
		t.Errorf("on hand after %d x %d = %d, want 0", workers, each, got)
	}
	if v := f.metrics.CounterValue("pharmacy_dispense_committed_total", nil); v != workers {
		t.Errorf("committed counter = %v, want %d", v, workers)
	}
}

func TestDispenseRetriesOnVersionConflict(t *testing.T) {
	inner := inventory.NewMemoryBatchRepository()
	batches := &conflictingBatchRepo{BatchRepository: inner, conflicts: 2}
	f := newFixture(t, stubChecker{}, Config{MaxRetries: 3}, batches)
	now := time.Now().UTC()
	seedBatch(t, inner, f.medicine.ID, 50, now.AddDate(1, 0, 0), now)

	tx, err := f.coord.Dispense(context.Background(), baseRequest(f, 10, "tok-retry"))
	if err != nil {
		t.Fatalf("Dispense: %v", err)
	}
	if tx == nil {
		t.Fatal("expected a committed transaction")
	}
	if v := f.metrics.CounterValue("pharmacy_dispense_retries_total", nil); v != 2 {
		t.Errorf("retry counter = %v, want 2", v)
	}
}

func TestDispenseContentionExhaustion(t *testing.T) {
	inner := inventory.NewMemoryBatchRepository()
	batches := &conflictingBatchRepo{BatchRepository: inner, conflicts: 100}
	f := newFixture(t, stubChecker{}, Config{MaxRetries: 3}, batches)
	now := time.Now().UTC()
	seedBatch(t, inner, f.medicine.ID, 50, now.AddDate(1, 0, 0), now)

	_, err := f.coord.Dispense(context.Background(), baseRequest(f, 10, "tok-exhaust"))
	var contention *ContentionError
	if !errors.As(err, &contention) {
		t.Fatalf("expected ContentionError, got %v", err)
	}
	if contention.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", contention.Attempts)
	}
	if _, err := f.txs.GetByToken(context.Background(), "tok-exhaust"); !errors.Is(err, ErrNotFound) {
		t.Errorf("no transaction should exist after exhaustion")
	}
}

func TestDispenseLockTimeout(t *testing.T) {
	batches := inventory.NewMemoryBatchRepository()
	f := newFixture(t, stubChecker{}, Config{LockTimeout: 30 * time.Millisecond}, batches)
	now := time.Now().UTC()
	seedBatch(t, batches, f.medicine.ID, 50, now.AddDate(1, 0, 0), now)

	// Hold the medicine lock so the request cannot enter.
	if err := f.coord.locks.Acquire(context.Background(), f.medicine.ID); err != nil {
		t.Fatalf("pre-acquire: %v", err)
	}
	defer f.coord.locks.Release(f.medicine.ID)

	_, err := f.coord.Dispense(context.Background(), baseRequest(f, 10, "tok-locked"))
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
}

func TestDispenseBlockingFindingsRequireAcknowledgement(t *testing.T) {
	finding := safety.Finding{
		Kind:       safety.KindDrugDrug,
		Severity:   safety.SeverityMajor,
		Substances: []string{"amoxicillin", "warfarin"},
	}
	batches := inventory.NewMemoryBatchRepository()
	f := newFixture(t, stubChecker{findings: []safety.Finding{finding}}, Config{}, batches)
	now := time.Now().UTC()
	b := seedBatch(t, batches, f.medicine.ID, 50, now.AddDate(1, 0, 0), now)

	req := baseRequest(f, 10, "tok-block")
	_, err := f.coord.Dispense(context.Background(), req)
	var blocked *BlockingFindingsError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockingFindingsError, got %v", err)
	}
	if len(blocked.Findings) != 1 {
		t.Fatalf("expected the finding to be carried, got %d", len(blocked.Findings))
	}
	got, _ := batches.GetByID(context.Background(), b.ID)
	if got.Quantity != 50 {
		t.Errorf("quantity = %d, want 50 (no mutation before acknowledgement)", got.Quantity)
	}

	// Resubmit with acknowledgement.
	req.ProceedDespiteFindings = true
	tx, err := f.coord.Dispense(context.Background(), req)
	if err != nil {
		t.Fatalf("acknowledged Dispense: %v", err)
	}
	if !tx.Override {
		t.Error("transaction should be flagged as an override")
	}
	overrides := f.auditor.ByKind(audit.KindOverrideRecorded)
	if len(overrides) != 1 {
		t.Errorf("expected 1 override audit event, got %d", len(overrides))
	}
	if v := f.metrics.CounterValue("pharmacy_safety_overrides_total", nil); v != 1 {
		t.Errorf("override counter = %v, want 1", v)
	}
}

func TestDispenseContraindicatedOverrideNeedsReason(t *testing.T) {
	finding := safety.Finding{
		Kind:       safety.KindDrugDrug,
		Severity:   safety.SeverityContraindicated,
		Substances: []string{"phenelzine", "sertraline"},
	}
	batches := inventory.NewMemoryBatchRepository()
	f := newFixture(t, stubChecker{findings: []safety.Finding{finding}},
		Config{OverrideRequiresReason: true}, batches)
	now := time.Now().UTC()
	seedBatch(t, batches, f.medicine.ID, 50, now.AddDate(1, 0, 0), now)

	req := baseRequest(f, 5, "tok-reason")
	req.ProceedDespiteFindings = true
	_, err := f.coord.Dispense(context.Background(), req)
	if !errors.Is(err, ErrOverrideReasonRequired) {
		t.Fatalf("expected ErrOverrideReasonRequired, got %v", err)
	}

	req.OverrideReason = "specialist approved under supervision"
	tx, err := f.coord.Dispense(context.Background(), req)
	if err != nil {
		t.Fatalf("Dispense with reason: %v", err)
	}
	if tx.OverrideReason != req.OverrideReason {
		t.Errorf("override reason not recorded: %q", tx.OverrideReason)
	}
}

func TestDispenseMinorFindingsDoNotBlock(t *testing.T) {
	finding := safety.Finding{
		Kind:       safety.KindDrugDrug,
		Severity:   safety.SeverityModerate,
		Substances: []string{"amoxicillin", "ibuprofen"},
	}
	batches := inventory.NewMemoryBatchRepository()
	f := newFixture(t, stubChecker{findings: []safety.Finding{finding}}, Config{}, batches)
	now := time.Now().UTC()
	seedBatch(t, batches, f.medicine.ID, 50, now.AddDate(1, 0, 0), now)

	tx, err := f.coord.Dispense(context.Background(), baseRequest(f, 5, "tok-minor"))
	if err != nil {
		t.Fatalf("Dispense: %v", err)
	}
	if tx.Override {
		t.Error("non-blocking findings must not mark the transaction as an override")
	}
	if len(tx.Findings) != 1 {
		t.Errorf("findings should still be recorded on the transaction, got %d", len(tx.Findings))
	}
}

func TestDispenseQuarantineAfterInvariantViolation(t *testing.T) {
	inner := inventory.NewMemoryBatchRepository()
	f := newFixture(t, stubChecker{}, Config{}, inner)
	now := time.Now().UTC()
	b := seedBatch(t, inner, f.medicine.ID, 50, now.AddDate(1, 0, 0), now)

	// Corrupt the commit path: the plan will reference a batch that vanishes
	// before ApplyPlan runs.
	vanishing := &vanishingBatchRepo{BatchRepository: inner, victim: b.ID}
	f.coord.batches = vanishing

	_, err := f.coord.Dispense(context.Background(), baseRequest(f, 10, "tok-q1"))
	var invalid *inventory.InvalidBatchStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidBatchStateError, got %v", err)
	}

	// The medicine is now quarantined; further requests are rejected fast.
	_, err = f.coord.Dispense(context.Background(), baseRequest(f, 10, "tok-q2"))
	var quarantined *QuarantinedError
	if !errors.As(err, &quarantined) {
		t.Fatalf("expected QuarantinedError, got %v", err)
	}
	if quarantined.MedicineID != f.medicine.ID {
		t.Errorf("quarantined medicine = %s, want %s", quarantined.MedicineID, f.medicine.ID)
	}
	if len(f.auditor.ByKind(audit.KindBatchQuarantined)) != 1 {
		t.Error("expected a quarantine audit event")
	}

	// Manual reconciliation re-enables dispensing.
	f.coord.ClearQuarantine(f.medicine.ID)
	f.coord.batches = inner
	if _, err := f.coord.Dispense(context.Background(), baseRequest(f, 10, "tok-q3")); err != nil {
		t.Fatalf("Dispense after clearing quarantine: %v", err)
	}
}

func TestDispenseReplayOfCommittedTokenSurvivesQuarantine(t *testing.T) {
	inner := inventory.NewMemoryBatchRepository()
	f := newFixture(t, stubChecker{}, Config{}, inner)
	now := time.Now().UTC()
	b := seedBatch(t, inner, f.medicine.ID, 50, now.AddDate(1, 0, 0), now)

	req := baseRequest(f, 10, "tok-replay-q")
	first, err := f.coord.Dispense(context.Background(), req)
	if err != nil {
		t.Fatalf("Dispense: %v", err)
	}

	// Quarantine the medicine after the commit.
	vanishing := &vanishingBatchRepo{BatchRepository: inner, victim: b.ID}
	f.coord.batches = vanishing
	if _, err := f.coord.Dispense(context.Background(), baseRequest(f, 5, "tok-trigger-q")); err == nil {
		t.Fatal("expected the corrupted commit to fail")
	}
	if _, ok := f.coord.Quarantined()[f.medicine.ID]; !ok {
		t.Fatal("medicine should be quarantined")
	}

	// Replaying the committed token is not a mutation; it must return the
	// prior transaction, not QuarantinedError.
	replayed, err := f.coord.Dispense(context.Background(), req)
	if err != nil {
		t.Fatalf("replay during quarantine: %v", err)
	}
	if replayed.ID != first.ID {
		t.Errorf("replay returned %s, want prior transaction %s", replayed.ID, first.ID)
	}

	// A fresh token is still rejected while quarantined.
	var quarantined *QuarantinedError
	if _, err := f.coord.Dispense(context.Background(), baseRequest(f, 5, "tok-fresh-q")); !errors.As(err, &quarantined) {
		t.Fatalf("expected QuarantinedError for a new token, got %v", err)
	}
}

// vanishingBatchRepo simulates an inconsistent ledger by pretending the
// victim batch no longer exists at commit time.
type vanishingBatchRepo struct {
	inventory.BatchRepository
	victim uuid.UUID
}

func (r *vanishingBatchRepo) ApplyPlan(_ context.Context, plan *inventory.Plan) error {
	for _, line := range plan.Lines {
		if line.BatchID == r.victim {
			return &inventory.InvalidBatchStateError{
				MedicineID: plan.MedicineID, BatchID: r.victim,
				Reason: "plan references a batch that no longer exists",
			}
		}
	}
	return r.BatchRepository.ApplyPlan(context.Background(), plan)
}

func TestDispenseReorderSignalAfterCommit(t *testing.T) {
	batches := inventory.NewMemoryBatchRepository()
	f := newFixture(t, stubChecker{}, Config{}, batches)
	now := time.Now().UTC()
	seedBatch(t, batches, f.medicine.ID, 15, now.AddDate(1, 0, 0), now)

	// Reorder level is 10; dropping to 8 must emit a signal.
	if _, err := f.coord.Dispense(context.Background(), baseRequest(f, 7, "tok-reorder")); err != nil {
		t.Fatalf("Dispense: %v", err)
	}
	if len(f.notifier.reorders) != 1 {
		t.Fatalf("expected 1 reorder advisory, got %d", len(f.notifier.reorders))
	}
	sig := f.notifier.reorders[0]
	if sig.OnHand != 8 {
		t.Errorf("on hand = %d, want 8", sig.OnHand)
	}
	if sig.Suggested != 12 {
		t.Errorf("suggested = %d, want 12", sig.Suggested)
	}
}

func TestDispenseValidation(t *testing.T) {
	batches := inventory.NewMemoryBatchRepository()
	f := newFixture(t, stubChecker{}, Config{}, batches)

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing medicine", func(r *Request) { r.MedicineID = uuid.Nil }},
		{"zero quantity", func(r *Request) { r.Quantity = 0 }},
		{"negative quantity", func(r *Request) { r.Quantity = -5 }},
		{"missing patient", func(r *Request) { r.PatientID = uuid.Nil }},
		{"missing token", func(r *Request) { r.Token = "  " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest(f, 10, "tok-v")
			tt.mutate(req)
			if _, err := f.coord.Dispense(context.Background(), req); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestDispenseUnknownMedicine(t *testing.T) {
	batches := inventory.NewMemoryBatchRepository()
	f := newFixture(t, stubChecker{}, Config{}, batches)

	req := baseRequest(f, 10, "tok-unknown")
	req.MedicineID = uuid.New()
	if _, err := f.coord.Dispense(context.Background(), req); err == nil {
		t.Error("expected an error for an uncatalogued medicine")
	}
}
