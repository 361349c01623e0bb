package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"chimed/internal/model"
	"chimed/internal/store"
)

// Snapshot is the on-disk shape: the task list plus the alert settings.
type Snapshot struct {
	Tasks    []model.Task        `json:"tasks"`
	Settings model.AlertSettings `json:"settings"`
}

// LocalStore persists tasks and settings to a JSON file: loaded once at
// startup, saved on every change. Records missing newer fields are
// defaulted on load.
type LocalStore struct {
	path   string
	logger *zap.Logger
}

func New(path string, logger *zap.Logger) *LocalStore {
	return &LocalStore{path: path, logger: logger}
}

// Load reads the snapshot file. A missing file yields defaults, not an
// error; a corrupt file is an error so the caller can decide.
func (l *LocalStore) Load() (Snapshot, error) {
	snap := Snapshot{Settings: model.DefaultAlertSettings()}

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{Settings: model.DefaultAlertSettings()},
			fmt.Errorf("failed to parse snapshot file: %w", err)
	}

	for i := range snap.Tasks {
		snap.Tasks[i].ApplyDefaults()
	}
	snap.Settings.ApplyDefaults()
	return snap, nil
}

// Save writes the snapshot atomically (temp file + rename).
func (l *LocalStore) Save(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), l.path)
}

// Run saves the current state after every task-store change signal until
// the context is canceled. Settings changes are saved through the settings
// store's change hook instead.
func (l *LocalStore) Run(ctx context.Context, taskStore *store.Store, settings *store.SettingsStore) {
	changes := taskStore.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			snap := Snapshot{
				Tasks:    taskStore.Snapshot(),
				Settings: settings.Get(),
			}
			if err := l.Save(snap); err != nil {
				l.logger.Error("Failed to save local snapshot", zap.Error(err))
			}
		}
	}
}
