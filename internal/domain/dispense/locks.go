package dispense

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// keyedLocks serializes dispensing per medicine. Requests for different
// medicines proceed fully in parallel; requests for the same medicine queue
// on a one-slot channel. Acquisition is bounded by the caller's context so
// a stuck holder surfaces as ErrLockTimeout instead of a hang.
type keyedLocks struct {
	mu    sync.Mutex
	slots map[uuid.UUID]chan struct{}
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{slots: make(map[uuid.UUID]chan struct{})}
}

func (k *keyedLocks) slot(id uuid.UUID) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.slots[id]
	if !ok {
		s = make(chan struct{}, 1)
		k.slots[id] = s
	}
	return s
}

// Acquire enters the critical section for id, or fails with ErrLockTimeout
// when ctx expires first.
func (k *keyedLocks) Acquire(ctx context.Context, id uuid.UUID) error {
	select {
	case k.slot(id) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ErrLockTimeout
	}
}

// Release leaves the critical section. Must only be called after a
// successful Acquire.
func (k *keyedLocks) Release(id uuid.UUID) {
	<-k.slot(id)
}
