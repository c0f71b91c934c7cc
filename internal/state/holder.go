package state

import (
	"context"
	"sync"

	"github.com/MimeLyc/dvr-mirror/pkg/log"
)

// Holder owns the current ActiveJobSet and its persisted copy. Reads and cycle
// application are serialized by one mutex, so readers never see a partial cycle.
type Holder struct {
	store Store

	mu      sync.Mutex
	current ActiveJobSet
}

// NewHolder seeds the holder from store.
func NewHolder(ctx context.Context, store Store) *Holder {
	return &Holder{
		store:   store,
		current: LoadOrEmpty(ctx, store),
	}
}

// Read returns a copy of the current set.
func (h *Holder) Read() ActiveJobSet {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current.Clone()
}

// ApplyCycle runs act against the previous set, then replaces it with next and
// persists it. All of it happens under the lock. Save failures are logged and
// otherwise ignored.
func (h *Holder) ApplyCycle(ctx context.Context, next ActiveJobSet, act func(previous ActiveJobSet)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if act != nil {
		act(h.current.Clone())
	}

	h.current = next.Clone()
	if h.store == nil {
		return
	}
	if err := h.store.Save(ctx, h.current); err != nil {
		log.Error("Failed to save state with %d active jobs: %v", len(h.current), err)
	}
}
