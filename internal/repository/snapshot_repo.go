package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"chimed/internal/model"
)

// SnapshotRepository stores the synced task list in Postgres as one row per
// list: last writer wins at whole-list granularity, matching the sync
// design's replacement semantics.
type SnapshotRepository struct {
	db     *pgxpool.Pool
	listID string
	logger *zap.Logger
}

func NewSnapshotRepository(db *pgxpool.Pool, listID string, logger *zap.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:     db,
		listID: listID,
		logger: logger,
	}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS task_snapshots (
            list_id    TEXT PRIMARY KEY,
            device_id  TEXT NOT NULL,
            payload    JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )
    `
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure snapshot schema: %w", err)
	}
	return nil
}

// SaveSnapshot upserts the whole list.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, deviceID string, tasks []model.Task) error {
	payload, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `
        INSERT INTO task_snapshots (list_id, device_id, payload, updated_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (list_id)
        DO UPDATE SET device_id = $2, payload = $3, updated_at = now()
    `
	if _, err := r.db.Exec(ctx, query, r.listID, deviceID, payload); err != nil {
		r.logger.Error("Failed to save snapshot",
			zap.String("list_id", r.listID),
			zap.Error(err),
		)
		return err
	}

	r.logger.Debug("Snapshot saved",
		zap.String("list_id", r.listID),
		zap.Int("task_count", len(tasks)),
	)
	return nil
}

// LoadSnapshot reads the stored list. The second return value is false when
// no snapshot exists yet.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context) ([]model.Task, bool, error) {
	query := `SELECT payload FROM task_snapshots WHERE list_id = $1`

	var payload []byte
	err := r.db.QueryRow(ctx, query, r.listID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var tasks []model.Task
	if err := json.Unmarshal(payload, &tasks); err != nil {
		return nil, false, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	for i := range tasks {
		tasks[i].ApplyDefaults()
	}
	return tasks, true, nil
}
