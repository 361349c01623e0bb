package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chimed/internal/alert"
	"chimed/internal/config"
	"chimed/internal/handler"
	"chimed/internal/httpserver"
	"chimed/internal/localstore"
	"chimed/internal/model"
	"chimed/internal/notify"
	"chimed/internal/repository"
	"chimed/internal/scanner"
	"chimed/internal/store"
	"chimed/internal/syncbridge"
	"chimed/pkg/db"
	"chimed/pkg/logger"
	"chimed/pkg/mq"
	"chimed/pkg/redis"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting chimed...",
		zap.String("port", cfg.Server.Port),
		zap.String("snapshot_path", cfg.Store.SnapshotPath),
		zap.Bool("sync_enabled", cfg.Sync.Enabled),
	)

	// Local snapshot (load-on-start)
	local := localstore.New(cfg.Store.SnapshotPath, log)
	snap, err := local.Load()
	if err != nil {
		log.Warn("Failed to load local snapshot, starting empty", zap.Error(err))
	}

	taskStore := store.NewStore()
	taskStore.ReplaceAll(snap.Tasks)
	settings := store.NewSettingsStore(snap.Settings)
	log.Info("Local state loaded", zap.Int("task_count", len(snap.Tasks)))

	// Alert player with the host's audio tooling
	player := alert.NewPlayer(
		alert.NewSystemTone(log),
		alert.NewSystemSpeech(log),
		alert.NewSystemSink(log),
		log,
	)

	// Settings changes: persist and invalidate the decoded-audio cache
	// when the custom sound payload is replaced
	settings.OnChange(func(prev, next model.AlertSettings) {
		if prev.CustomSoundData != next.CustomSoundData {
			player.ClearCache()
		}
		if err := local.Save(localstore.Snapshot{
			Tasks:    taskStore.Snapshot(),
			Settings: next,
		}); err != nil {
			log.Error("Failed to persist settings", zap.Error(err))
		}
	})

	// MQ publisher for task.due events (best-effort)
	var publisher *mq.Publisher
	if cfg.Notify.MQEnabled {
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Warn("MQ unavailable, due events will not be published", zap.Error(err))
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}
	notifier := notify.NewNotifier(publisher, log)

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence (save-on-change)
	go local.Run(rootCtx, taskStore, settings)

	// Multi-device sync
	if cfg.Sync.Enabled {
		deviceID := cfg.Sync.DeviceID
		if deviceID == "" {
			deviceID = uuid.NewString()
			log.Info("Generated device id", zap.String("device_id", deviceID))
		}

		var remote syncbridge.RemoteStore
		dbConn, err := db.NewConnection(cfg.DB, log)
		if err != nil {
			log.Warn("Remote snapshot store unavailable, sync degraded to pub/sub only", zap.Error(err))
		} else {
			defer dbConn.Close()
			repo := repository.NewSnapshotRepository(dbConn, cfg.Sync.ListID, log)
			schemaCtx, schemaCancel := context.WithTimeout(rootCtx, 5*time.Second)
			if err := repo.EnsureSchema(schemaCtx); err != nil {
				log.Warn("Failed to ensure snapshot schema", zap.Error(err))
			}
			schemaCancel()
			remote = repo
		}

		rdb := redis.NewClient(cfg.Redis)
		defer rdb.Close()

		bridge := syncbridge.NewBridge(
			taskStore,
			remote,
			rdb,
			cfg.Sync.Channel,
			deviceID,
			cfg.Sync.Debounce(),
			log,
		)
		bridge.Restore(rootCtx)
		go bridge.Run(rootCtx)
		go bridge.Subscribe(rootCtx)
	}

	// Due-task scanner
	scan := scanner.NewScanner(taskStore, settings, player, notifier, log)
	go scan.Run(rootCtx)

	// HTTP API
	router := httpserver.NewRouter(
		handler.NewTaskHandler(taskStore, log),
		handler.NewSettingsHandler(settings, log),
		handler.NewAlarmHandler(player, log),
		handler.NewAuthHandler(cfg.Sync.PasswordHash, cfg.JWT.Secret, log),
		cfg.JWT.Secret,
		log,
	)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("chimed is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down chimed gracefully...")
	cancel()
	player.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("chimed shutdown complete")
}
