package config

import "testing"

func TestApplyEnvOverridesFileValues(t *testing.T) {
	t.Setenv("DB_HOST", "db.example")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("REDIS_DB", "not a number")

	db := DBConfig{Host: "localhost", Port: 5432, User: "chimed"}
	db.ApplyEnv()
	if db.Host != "db.example" || db.Port != 5433 {
		t.Fatalf("env must override file values, got %s:%d", db.Host, db.Port)
	}
	if db.User != "chimed" {
		t.Fatalf("fields without an env var must keep the file value, got %q", db.User)
	}

	rdb := RedisConfig{Addr: "localhost:6379", DB: 2}
	rdb.ApplyEnv()
	if rdb.DB != 2 {
		t.Fatalf("unparsable int override must be ignored, got %d", rdb.DB)
	}
}
