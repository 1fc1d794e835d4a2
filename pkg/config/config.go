package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
	Logger    LoggerConfig    `yaml:"logger"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port   int    `yaml:"port"`
	Mode   string `yaml:"mode"`    // debug, release
	APIKey string `yaml:"api_key"` // API key for admin endpoints (optional, if empty, auth is disabled)
}

// MySQLConfig MySQL configuration
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// ArchiveConfig archive manager configuration
type ArchiveConfig struct {
	QueueSize        int `yaml:"queue_size"`         // bounded record queue capacity
	BatchSize        int `yaml:"batch_size"`         // records per size-triggered flush
	Workers          int `yaml:"workers"`            // queue drain workers
	FlushIntervalSec int `yaml:"flush_interval_sec"` // time-triggered flush period (seconds)
}

// SchedulerConfig scheduler configuration
type SchedulerConfig struct {
	PollIntervalSec int    `yaml:"poll_interval_sec"` // due-task scan period (seconds)
	TaskTimeoutMin  int    `yaml:"task_timeout_min"`  // per-execution wall-clock bound (minutes)
	ArchiveRule     string `yaml:"archive_rule"`      // recurrence for the hourly archive sweep
	CleanupRule     string `yaml:"cleanup_rule"`      // recurrence for daily cleanup
	DeepRule        string `yaml:"deep_rule"`         // recurrence for deep cleanup
}

// CleanupConfig retention cleanup configuration
type CleanupConfig struct {
	Enabled              bool `yaml:"enabled"`
	TrafficRetentionDays int  `yaml:"traffic_retention_days"`
	StatusRetentionDays  int  `yaml:"status_retention_days"`
}

// DefaultArchiveConfig returns archive defaults used when values are missing or invalid
func DefaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		QueueSize:        1000,
		BatchSize:        100,
		Workers:          2,
		FlushIntervalSec: 30,
	}
}

// DefaultSchedulerConfig returns scheduler defaults used when values are missing or invalid
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		PollIntervalSec: 60,
		TaskTimeoutMin:  30,
		ArchiveRule:     "hourly",
		CleanupRule:     "daily 03:30",
		DeepRule:        "weekly sunday 02:00",
	}
}

// DefaultCleanupConfig returns cleanup defaults used when values are missing or invalid
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Enabled:              true,
		TrafficRetentionDays: 90,
		StatusRetentionDays:  30,
	}
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	validateAndApplyDefaults(&cfg)
	GlobalConfig = &cfg
	return nil
}

// validateAndApplyDefaults replaces missing or invalid values with defaults so
// a partially filled config file still produces an operational process.
func validateAndApplyDefaults(cfg *Config) {
	archiveDefaults := DefaultArchiveConfig()
	if cfg.Archive.QueueSize <= 0 {
		cfg.Archive.QueueSize = archiveDefaults.QueueSize
	}
	if cfg.Archive.BatchSize <= 0 {
		cfg.Archive.BatchSize = archiveDefaults.BatchSize
	}
	if cfg.Archive.Workers <= 0 {
		cfg.Archive.Workers = archiveDefaults.Workers
	}
	if cfg.Archive.FlushIntervalSec <= 0 {
		cfg.Archive.FlushIntervalSec = archiveDefaults.FlushIntervalSec
	}

	schedulerDefaults := DefaultSchedulerConfig()
	if cfg.Scheduler.PollIntervalSec <= 0 {
		cfg.Scheduler.PollIntervalSec = schedulerDefaults.PollIntervalSec
	}
	if cfg.Scheduler.TaskTimeoutMin <= 0 {
		cfg.Scheduler.TaskTimeoutMin = schedulerDefaults.TaskTimeoutMin
	}
	if cfg.Scheduler.ArchiveRule == "" {
		cfg.Scheduler.ArchiveRule = schedulerDefaults.ArchiveRule
	}
	if cfg.Scheduler.CleanupRule == "" {
		cfg.Scheduler.CleanupRule = schedulerDefaults.CleanupRule
	}
	if cfg.Scheduler.DeepRule == "" {
		cfg.Scheduler.DeepRule = schedulerDefaults.DeepRule
	}

	cleanupDefaults := DefaultCleanupConfig()
	if cfg.Cleanup.TrafficRetentionDays <= 0 {
		cfg.Cleanup.TrafficRetentionDays = cleanupDefaults.TrafficRetentionDays
	}
	if cfg.Cleanup.StatusRetentionDays <= 0 {
		cfg.Cleanup.StatusRetentionDays = cleanupDefaults.StatusRetentionDays
	}
}
