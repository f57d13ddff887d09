package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults for optional settings.
const (
	DefaultTargetID  = "065-0-Reg-25-000001"
	DefaultStatePath = "./regwatch_state.json"
)

// Environment keys. Environment always overrides the config file.
const (
	EnvDatasetURL    = "REGWATCH_DATASET_URL"
	EnvTargetID      = "REGWATCH_TARGET_ID"
	EnvTelegramToken = "REGWATCH_TELEGRAM_TOKEN"
	EnvChatID        = "REGWATCH_CHAT_ID"
	EnvThreadID      = "REGWATCH_THREAD_ID"
	EnvStatePath     = "REGWATCH_STATE_PATH"
	EnvStateDriver   = "REGWATCH_STATE_DRIVER"
	EnvSchedule      = "REGWATCH_SCHEDULE"
	EnvLogLevel      = "REGWATCH_LOG_LEVEL"
)

// Config is constructed once at startup and passed down explicitly;
// nothing reads the environment after Load returns.
type Config struct {
	DatasetURL string
	TargetID   string

	Telegram TelegramConfig
	State    StateConfig
	Logging  LoggingConfig

	// Schedule is a cron expression; empty means run once and exit.
	Schedule string

	// NotifyRatePerSec caps outbound Telegram sends.
	NotifyRatePerSec int
}

type TelegramConfig struct {
	Token    string
	ChatID   int64
	ThreadID int
}

type StateConfig struct {
	Driver string // "file" (default) or "sqlite"
	Path   string
}

type LoggingConfig struct {
	Level   string
	Console bool
	File    LoggingFile
}

type LoggingFile struct {
	Enabled bool
	Path    string
}

// MissingError lists required settings that were not provided.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Keys, ", ")
}

// Load assembles the configuration: .env file (best-effort), then the
// optional YAML file, then environment overrides, then defaults.
func Load(configPath, envPath string) (Config, error) {
	// A missing .env is fine; explicit paths that fail to parse are not.
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, fmt.Errorf("env file %s: %w", envPath, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := Config{
		Logging: LoggingConfig{Level: "info", Console: true},
	}

	if configPath != "" {
		if err := applyYAMLFile(&cfg, configPath); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.TargetID == "" {
		cfg.TargetID = DefaultTargetID
	}
	if cfg.State.Path == "" {
		cfg.State.Path = DefaultStatePath
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := lookup(EnvDatasetURL); ok {
		cfg.DatasetURL = v
	}
	if v, ok := lookup(EnvTargetID); ok {
		cfg.TargetID = v
	}
	if v, ok := lookup(EnvTelegramToken); ok {
		cfg.Telegram.Token = v
	}
	if v, ok := lookup(EnvChatID); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvChatID, v, err)
		}
		cfg.Telegram.ChatID = id
	}
	if v, ok := lookup(EnvThreadID); ok {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvThreadID, v, err)
		}
		cfg.Telegram.ThreadID = id
	}
	if v, ok := lookup(EnvStatePath); ok {
		cfg.State.Path = v
	}
	if v, ok := lookup(EnvStateDriver); ok {
		cfg.State.Driver = v
	}
	if v, ok := lookup(EnvSchedule); ok {
		cfg.Schedule = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Logging.Level = v
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Missing returns the env-key names of required settings that are absent.
// The caller prints them all at once and exits non-zero before doing any work.
func (c Config) Missing() []string {
	var keys []string
	if c.DatasetURL == "" {
		keys = append(keys, EnvDatasetURL)
	}
	if c.Telegram.Token == "" {
		keys = append(keys, EnvTelegramToken)
	}
	if c.Telegram.ChatID == 0 {
		keys = append(keys, EnvChatID)
	}
	return keys
}

// Validate returns a MissingError if any required setting is absent.
func (c Config) Validate() error {
	if keys := c.Missing(); len(keys) > 0 {
		return &MissingError{Keys: keys}
	}
	return nil
}
