package scanner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chimed/internal/model"
	"chimed/internal/store"
	"chimed/pkg/metrics"
)

// AlertPlayer starts one alert session for a due task.
type AlertPlayer interface {
	Start(settings model.AlertSettings, message string, onEnd func())
}

// Notifier emits a best-effort platform notification for a due task.
// Failures never affect the alert flow.
type Notifier interface {
	NotifyDue(ctx context.Context, task model.Task)
}

// Scanner runs the per-second due-task scan: it compares the current local
// date and minute against every incomplete, not-yet-notified task, marks
// matches notified in a single store update and triggers the alert player.
type Scanner struct {
	store    *store.Store
	settings *store.SettingsStore
	player   AlertPlayer
	notifier Notifier
	logger   *zap.Logger

	interval time.Duration
	now      func() time.Time
}

func NewScanner(
	taskStore *store.Store,
	settings *store.SettingsStore,
	player AlertPlayer,
	notifier Notifier,
	logger *zap.Logger,
) *Scanner {
	return &Scanner{
		store:    taskStore,
		settings: settings,
		player:   player,
		notifier: notifier,
		logger:   logger,
		interval: time.Second,
		now:      time.Now,
	}
}

// Run drives the scan on a fixed cadence until the context is canceled.
// Ticks run sequentially on this goroutine, each against its own snapshot,
// so a slow tick can never race a later one.
func (s *Scanner) Run(ctx context.Context) {
	s.logger.Info("Starting due-task scanner", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Due-task scanner stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one scan pass. A task is newly due when it is incomplete,
// not yet notified, and its date and minute equal the clock's. Tasks whose
// schedule fails to parse are skipped, never fatal.
func (s *Scanner) Tick(ctx context.Context) {
	started := time.Now()
	now := s.now()

	var due []model.Task
	for _, t := range s.store.Snapshot() {
		if t.Completed || t.Notified {
			continue
		}
		if t.DueAt(now) {
			due = append(due, t)
		}
	}

	metrics.ObserveScanTick(time.Since(started))
	if len(due) == 0 {
		return
	}

	cfg := s.settings.Get()

	// one batched update: the notified transition happens-before any
	// playback for these tasks, and none of it can be lost to a
	// concurrent write
	ids := make([]string, len(due))
	for i, t := range due {
		ids[i] = t.ID
	}
	s.store.MarkDue(ids, cfg.AutoComplete)
	metrics.IncrementDueTasks(len(due))

	for _, t := range due {
		t := t
		s.logger.Info("Task due",
			zap.String("task_id", t.ID),
			zap.String("title", t.Title),
			zap.String("time", t.Time),
			zap.String("sound_mode", cfg.SoundMode),
		)

		// the player keeps at most one session: with several tasks due in
		// the same tick the last one owns the audible alert, every task
		// still gets its notified flag and its notification
		s.player.Start(cfg, t.Title, func() {
			s.logger.Debug("Alert session ended", zap.String("task_id", t.ID))
		})

		if s.notifier != nil {
			s.notifier.NotifyDue(ctx, t)
		}
	}
}
