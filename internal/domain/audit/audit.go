// Package audit emits append-only compliance events. The core only emits;
// retention and analysis belong to the external audit system.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event kinds emitted by the pharmacy core.
const (
	KindDispenseCommitted = "dispense.committed"
	KindOverrideRecorded  = "safety.override"
	KindBatchQuarantined  = "inventory.quarantined"
)

// Event is one append-only audit record. Events are never updated or
// deleted.
type Event struct {
	ID         uuid.UUID              `db:"id" json:"id"`
	Kind       string                 `db:"kind" json:"kind"`
	Actor      string                 `db:"actor" json:"actor"`
	MedicineID *uuid.UUID             `db:"medicine_id" json:"medicine_id,omitempty"`
	Payload    map[string]interface{} `db:"payload" json:"payload"`
	OccurredAt time.Time              `db:"occurred_at" json:"occurred_at"`
}

// Emitter appends events. Implementations must never mutate prior events.
type Emitter interface {
	Emit(ctx context.Context, e *Event) error
}

// LogEmitter writes events to the structured log. Used when no durable
// audit store is configured.
type LogEmitter struct {
	logger zerolog.Logger
}

func NewLogEmitter(logger zerolog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (l *LogEmitter) Emit(_ context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	l.logger.Info().
		Str("event_id", e.ID.String()).
		Str("kind", e.Kind).
		Str("actor", e.Actor).
		Interface("payload", e.Payload).
		Msg("audit event")
	return nil
}

// MemoryEmitter collects events in memory. Test double.
type MemoryEmitter struct {
	mu     sync.Mutex
	events []*Event
}

func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{}
}

func (m *MemoryEmitter) Emit(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	m.events = append(m.events, e)
	return nil
}

// Events returns a copy of the emitted events.
func (m *MemoryEmitter) Events() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

// ByKind filters emitted events.
func (m *MemoryEmitter) ByKind(kind string) []*Event {
	var out []*Event
	for _, e := range m.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
