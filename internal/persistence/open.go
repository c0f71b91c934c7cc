package persistence

import (
	"fmt"

	"github.com/MimeLyc/dvr-mirror/internal/config"
	"github.com/MimeLyc/dvr-mirror/internal/state"
)

// Open builds the state store selected by cfg.
func Open(cfg config.StateConfig) (state.Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		store, err := NewFileStore(cfg.File)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendSQLite:
		store, err := NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}
