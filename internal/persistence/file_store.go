package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MimeLyc/dvr-mirror/internal/state"
	"github.com/MimeLyc/dvr-mirror/pkg/file"
	"github.com/MimeLyc/dvr-mirror/pkg/log"
)

// FileStore keeps the active job set as a JSON object keyed by "ingest|job".
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("state file path is required")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(_ context.Context) (state.ActiveJobSet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info("No previous state file found at %s", s.path)
		return state.ActiveJobSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file %s: %w", s.path, err)
	}

	var raw map[string]state.JobRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode state file %s: %w", s.path, err)
	}
	if raw == nil {
		// a literal "null" document
		return nil, fmt.Errorf("decode state file %s: expected an object", s.path)
	}

	set, skipped := state.Decode(raw)
	for _, key := range skipped {
		log.Warn("Ignoring state entry with invalid key %q in %s", key, s.path)
	}
	return set, nil
}

func (s *FileStore) Save(_ context.Context, set state.ActiveJobSet) error {
	data, err := json.Marshal(set.Encode())
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := file.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write state file %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
