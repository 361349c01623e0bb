package config

import (
	"os"
	"strconv"
)

// Infrastructure config sections populated by the layered YAML loader.
// ApplyEnv applies environment overrides, which win over file values.

type ServerConfig struct {
	Port string `yaml:"port"`
}

func (c *ServerConfig) ApplyEnv() {
	envString("SERVER_PORT", &c.Port)
}

// DBConfig 远程快照存储的数据库配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

func (c *DBConfig) ApplyEnv() {
	envString("DB_HOST", &c.Host)
	envInt("DB_PORT", &c.Port)
	envString("DB_USER", &c.User)
	envString("DB_PASSWORD", &c.Password)
	envString("DB_NAME", &c.Name)
}

type MQConfig struct {
	URL string `yaml:"url"`
}

func (c *MQConfig) ApplyEnv() {
	envString("MQ_URL", &c.URL)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (c *RedisConfig) ApplyEnv() {
	envString("REDIS_ADDR", &c.Addr)
	envString("REDIS_PASSWORD", &c.Password)
	envInt("REDIS_DB", &c.DB)
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

func (c *JWTConfig) ApplyEnv() {
	envString("JWT_SECRET", &c.Secret)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
