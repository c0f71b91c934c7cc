package state

import (
	"context"

	"github.com/MimeLyc/dvr-mirror/pkg/log"
)

// Store persists the last reconciled ActiveJobSet across restarts.
type Store interface {
	// Load returns the persisted set. A store that was never written returns
	// an empty set and no error.
	Load(ctx context.Context) (ActiveJobSet, error)
	// Save overwrites the persisted set.
	Save(ctx context.Context, set ActiveJobSet) error
	Close() error
}

// LoadOrEmpty loads from store and falls back to an empty set on any error,
// so a corrupt store reads as "nothing was recording".
func LoadOrEmpty(ctx context.Context, store Store) ActiveJobSet {
	if store == nil {
		return ActiveJobSet{}
	}
	set, err := store.Load(ctx)
	if err != nil {
		log.Error("Failed to load previous state, starting fresh: %v", err)
		return ActiveJobSet{}
	}
	if set == nil {
		set = ActiveJobSet{}
	}
	log.Info("Loaded previous state with %d active jobs", len(set))
	return set
}
