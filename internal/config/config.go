package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string `yaml:"listen_addr"`
	Port          string `yaml:"port"`
	DatabasePath  string `yaml:"database_path"`
	GinMode       string `yaml:"gin_mode"`
	Timezone      string `yaml:"timezone"`
	CapacityBytes int64  `yaml:"store_capacity_bytes"`
	RetentionDays int    `yaml:"retention_days"`
	PruneSchedule string `yaml:"prune_schedule"`
}

const (
	defaultPort          = "8080"
	defaultDatabasePath  = "dayflow.db"
	defaultGinMode       = "release"
	defaultCapacityBytes = 5 * 1024 * 1024
	defaultRetentionDays = 90
)

// Load 读取可选的 YAML 配置文件（DAYFLOW_CONFIG），再用环境变量覆盖，
// 并为缺失项提供默认值。
func Load() (AppConfig, error) {
	var cfg AppConfig

	if path := strings.TrimSpace(os.Getenv("DAYFLOW_CONFIG")); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}

	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.ListenAddr, "LISTEN_ADDR")
	overrideString(&cfg.DatabasePath, "DATABASE_PATH")
	overrideString(&cfg.GinMode, "GIN_MODE")
	overrideString(&cfg.Timezone, "TIMEZONE")
	overrideString(&cfg.PruneSchedule, "PRUNE_SCHEDULE")

	if raw := strings.TrimSpace(os.Getenv("STORE_CAPACITY_BYTES")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid STORE_CAPACITY_BYTES: %w", err)
		}
		cfg.CapacityBytes = value
	}

	if raw := strings.TrimSpace(os.Getenv("RETENTION_DAYS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			return cfg, fmt.Errorf("invalid RETENTION_DAYS %q", raw)
		}
		cfg.RetentionDays = value
	}

	cfg.applyDefaults()

	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadFile 解析 YAML 配置文件，不应用默认值。
func LoadFile(path string) (AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Location 返回用于计算“今天”的时区，未配置时使用本地时区。
func (c AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return loc, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.ListenAddr == "" {
		c.ListenAddr = fmt.Sprintf(":%s", c.Port)
	}
	if c.DatabasePath == "" {
		c.DatabasePath = defaultDatabasePath
	}
	if c.GinMode == "" {
		c.GinMode = defaultGinMode
	}
	if c.CapacityBytes == 0 {
		c.CapacityBytes = defaultCapacityBytes
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = defaultRetentionDays
	}
}

func overrideString(dst *string, env string) {
	if value := strings.TrimSpace(os.Getenv(env)); value != "" {
		*dst = value
	}
}
