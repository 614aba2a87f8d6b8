package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cypherx_sim/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultStateFile defines where we save our data on disk.
const DefaultStateFile = "cypherx_state.json"

// JSONFileStore keeps the state in a single pretty-printed JSON file.
type JSONFileStore struct {
	Path string
}

var _ Store = (*JSONFileStore)(nil)

func NewJSONFileStore(path string) *JSONFileStore {
	if path == "" {
		path = DefaultStateFile
	}
	return &JSONFileStore{Path: path}
}

// Load reads the state file and migrates older schemas in place.
func (s *JSONFileStore) Load(_ context.Context) (models.PortfolioState, bool, error) {
	var st models.PortfolioState

	if _, err := os.Stat(s.Path); os.IsNotExist(err) {
		zap.L().Info("state file missing, starting fresh", zap.String("path", s.Path))
		return st, false, nil
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return st, false, fmt.Errorf("open state: %w", err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return st, false, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return st, false, fmt.Errorf("decode state %s: %w", s.Path, err)
	}

	if migrateState(&st) {
		zap.L().Info("state migrated", zap.String("version", st.Version))
		if err := s.write(st); err != nil {
			return st, true, err
		}
	}
	return st, true, nil
}

// migrateState handles schema evolution.
// Returns true if changes were made and the state needs to be saved.
func migrateState(s *models.PortfolioState) bool {
	updated := false

	// 1.0 -> 1.1: trades get IDs, initial balance is persisted.
	if s.Version < "1.1" {
		for i := range s.TradeHistory {
			if s.TradeHistory[i].ID == "" {
				s.TradeHistory[i].ID = uuid.NewString()
			}
		}
		// 1.0 always started from the demo balance.
		if s.InitialBalance.IsZero() {
			s.InitialBalance = models.DefaultInitialBalance
		}
		s.Version = "1.1"
		updated = true
	}

	return updated
}

// Save writes the state using an atomic write pattern:
// write a temp file, sync it, then rename it over the destination.
func (s *JSONFileStore) Save(_ context.Context, st models.PortfolioState) error {
	st.LastSave = time.Now().UTC().Format(time.RFC3339)
	return s.write(st)
}

func (s *JSONFileStore) write(st models.PortfolioState) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	// Same directory as the target so the rename stays on one filesystem.
	tmpFile := s.Path + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync temp state file: %w", err)
	}
	// Close explicitly before renaming (essential on Windows)
	f.Close()

	if err := os.Rename(tmpFile, s.Path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (s *JSONFileStore) Close() error { return nil }
