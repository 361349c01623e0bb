package config

import (
	"log"
	"time"

	"gopkg.in/yaml.v3"

	"chimed/pkg/config"
)

// SyncConfig controls multi-device synchronization. When disabled the
// engine runs fully local; scanning and alerting never depend on it.
type SyncConfig struct {
	Enabled         bool   `yaml:"enabled"`
	ListID          string `yaml:"list_id"`
	DeviceID        string `yaml:"device_id"`
	Channel         string `yaml:"channel"`
	DebounceSeconds int    `yaml:"debounce_seconds"`
	PasswordHash    string `yaml:"password_hash"` // bcrypt hash of the sync passphrase
}

func (s SyncConfig) Debounce() time.Duration {
	if s.DebounceSeconds <= 0 {
		return time.Second
	}
	return time.Duration(s.DebounceSeconds) * time.Second
}

// StoreConfig locates the local snapshot file.
type StoreConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
}

// NotifyConfig controls the best-effort due-event publishing.
type NotifyConfig struct {
	MQEnabled bool `yaml:"mq_enabled"`
}

type Config struct {
	Server config.ServerConfig `yaml:"server"`
	DB     config.DBConfig     `yaml:"db"`
	MQ     config.MQConfig     `yaml:"mq"`
	Redis  config.RedisConfig  `yaml:"redis"`
	JWT    config.JWTConfig    `yaml:"jwt"`
	Sync   SyncConfig          `yaml:"sync"`
	Store  StoreConfig         `yaml:"store"`
	Notify NotifyConfig        `yaml:"notify"`
}

func Load() *Config {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var cfg Config
	cfgData, err := yaml.Marshal(cfgMap)
	if err != nil {
		log.Fatalf("failed to marshal config: %v", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	// 环境变量覆盖（优先级最高）
	cfg.Server.ApplyEnv()
	cfg.DB.ApplyEnv()
	cfg.MQ.ApplyEnv()
	cfg.Redis.ApplyEnv()
	cfg.JWT.ApplyEnv()

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8090"
	}
	if cfg.Store.SnapshotPath == "" {
		cfg.Store.SnapshotPath = "data/tasks.json"
	}
	if cfg.Sync.Channel == "" {
		cfg.Sync.Channel = "chimed:sync"
	}

	return &cfg
}
