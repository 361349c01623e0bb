package syncbridge

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chimed/internal/model"
	"chimed/internal/store"
	"chimed/pkg/metrics"
)

// RemoteStore persists whole-list snapshots remotely. Last writer wins at
// list granularity; there is no merge.
type RemoteStore interface {
	SaveSnapshot(ctx context.Context, deviceID string, tasks []model.Task) error
	LoadSnapshot(ctx context.Context) ([]model.Task, bool, error)
}

// envelope is the pub/sub wire shape for whole-list replacements.
type envelope struct {
	DeviceID string       `json:"device_id"`
	Tasks    []model.Task `json:"tasks"`
}

// Bridge connects the local task store to the other devices: it pushes the
// list to the remote store after a quiet period with no further changes, and
// applies inbound replacements published by other devices. Sync failures are
// logged and counted; local scanning and alerting keep working offline.
type Bridge struct {
	store    *store.Store
	remote   RemoteStore
	rdb      *redis.Client
	channel  string
	deviceID string
	debounce time.Duration
	logger   *zap.Logger

	// subscribed at construction so no change between NewBridge and Run
	// is lost
	changes <-chan struct{}

	// version produced by the last inbound replacement, so the push loop
	// does not echo a remote update straight back
	lastApplied atomic.Uint64
}

func NewBridge(
	taskStore *store.Store,
	remote RemoteStore,
	rdb *redis.Client,
	channel, deviceID string,
	debounce time.Duration,
	logger *zap.Logger,
) *Bridge {
	if debounce <= 0 {
		debounce = time.Second
	}
	return &Bridge{
		store:    taskStore,
		remote:   remote,
		rdb:      rdb,
		channel:  channel,
		deviceID: deviceID,
		debounce: debounce,
		logger:   logger,
		changes:  taskStore.Subscribe(),
	}
}

// Restore pulls the remote snapshot once, replacing the local list when one
// exists. Called at startup after the local snapshot is loaded.
func (b *Bridge) Restore(ctx context.Context) {
	if b.remote == nil {
		return
	}

	tasks, ok, err := b.remote.LoadSnapshot(ctx)
	if err != nil {
		b.logger.Warn("Failed to load remote snapshot, continuing with local state", zap.Error(err))
		metrics.IncrementSyncPull("failed")
		return
	}
	if !ok {
		return
	}

	v := b.store.ReplaceAll(tasks)
	b.lastApplied.Store(v)
	metrics.IncrementSyncPull("applied")
	b.logger.Info("Restored task list from remote snapshot", zap.Int("task_count", len(tasks)))
}

// Run is the debounced push loop: every burst of store changes coalesces
// into a single push once the quiet period elapses.
func (b *Bridge) Run(ctx context.Context) {
	b.logger.Info("Starting sync bridge",
		zap.Duration("debounce", b.debounce),
		zap.String("device_id", b.deviceID),
	)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			b.logger.Info("Sync bridge stopped")
			return
		case <-b.changes:
			// arm or rewind the quiet-period timer
			if timer == nil {
				timer = time.NewTimer(b.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(b.debounce)
			}
		case <-fire:
			timer = nil
			fire = nil
			b.push(ctx)
		}
	}
}

func (b *Bridge) push(ctx context.Context) {
	version := b.store.Version()
	if version == b.lastApplied.Load() {
		// the latest mutation was an inbound replacement; nothing to echo
		return
	}

	tasks := b.store.Snapshot()

	if b.remote != nil {
		if err := b.remote.SaveSnapshot(ctx, b.deviceID, tasks); err != nil {
			b.logger.Error("Failed to push snapshot to remote store", zap.Error(err))
			metrics.IncrementSyncPush("failed")
			return
		}
	}

	if b.rdb != nil {
		body, err := json.Marshal(envelope{DeviceID: b.deviceID, Tasks: tasks})
		if err != nil {
			b.logger.Error("Failed to encode sync envelope", zap.Error(err))
			metrics.IncrementSyncPush("failed")
			return
		}
		if err := b.rdb.Publish(ctx, b.channel, body).Err(); err != nil {
			b.logger.Warn("Failed to publish sync event", zap.Error(err))
		}
	}

	metrics.IncrementSyncPush("success")
	b.logger.Info("Pushed task snapshot",
		zap.Int("task_count", len(tasks)),
		zap.Uint64("version", version),
	)
}

// Subscribe applies whole-list replacements published by other devices.
// Runs until the context is canceled; requires redis.
func (b *Bridge) Subscribe(ctx context.Context) {
	if b.rdb == nil {
		return
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	b.logger.Info("Subscribed to sync channel", zap.String("channel", b.channel))

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			b.apply(msg.Payload)
		}
	}
}

func (b *Bridge) apply(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("Dropping malformed sync event", zap.Error(err))
		metrics.IncrementSyncPull("failed")
		return
	}

	if env.DeviceID == b.deviceID {
		metrics.IncrementSyncPull("skipped")
		return
	}

	// whole-list replacement; the next scanner tick simply scans the new
	// collection
	v := b.store.ReplaceAll(env.Tasks)
	b.lastApplied.Store(v)
	metrics.IncrementSyncPull("applied")
	b.logger.Info("Applied remote task list",
		zap.String("from_device", env.DeviceID),
		zap.Int("task_count", len(env.Tasks)),
	)
}
