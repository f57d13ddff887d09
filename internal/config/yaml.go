package config

import (
	"bytes"
	"fmt"
	"os"

	yaml "go.yaml.in/yaml/v3"
)

// fileConfig is the YAML shape of the optional config file. Unknown fields
// are rejected so typos surface immediately instead of silently defaulting.
type fileConfig struct {
	DatasetURL string `yaml:"dataset_url"`
	TargetID   string `yaml:"target_id"`

	Telegram struct {
		Token    string `yaml:"token"`
		ChatID   int64  `yaml:"chat_id"`
		ThreadID int    `yaml:"thread_id"`
	} `yaml:"telegram"`

	State struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"state"`

	Logging struct {
		Level   string `yaml:"level"`
		Console *bool  `yaml:"console"`
		File    struct {
			Enabled bool   `yaml:"enabled"`
			Path    string `yaml:"path"`
		} `yaml:"file"`
	} `yaml:"logging"`

	Schedule         string `yaml:"schedule"`
	NotifyRatePerSec int    `yaml:"notify_rate_per_sec"`
}

func applyYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var fc fileConfig
	if err := dec.Decode(&fc); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	if fc.DatasetURL != "" {
		cfg.DatasetURL = fc.DatasetURL
	}
	if fc.TargetID != "" {
		cfg.TargetID = fc.TargetID
	}
	if fc.Telegram.Token != "" {
		cfg.Telegram.Token = fc.Telegram.Token
	}
	if fc.Telegram.ChatID != 0 {
		cfg.Telegram.ChatID = fc.Telegram.ChatID
	}
	if fc.Telegram.ThreadID != 0 {
		cfg.Telegram.ThreadID = fc.Telegram.ThreadID
	}
	if fc.State.Driver != "" {
		cfg.State.Driver = fc.State.Driver
	}
	if fc.State.Path != "" {
		cfg.State.Path = fc.State.Path
	}
	if fc.Logging.Level != "" {
		cfg.Logging.Level = fc.Logging.Level
	}
	if fc.Logging.Console != nil {
		cfg.Logging.Console = *fc.Logging.Console
	}
	if fc.Logging.File.Enabled {
		cfg.Logging.File.Enabled = true
		cfg.Logging.File.Path = fc.Logging.File.Path
	}
	if fc.Schedule != "" {
		cfg.Schedule = fc.Schedule
	}
	if fc.NotifyRatePerSec != 0 {
		cfg.NotifyRatePerSec = fc.NotifyRatePerSec
	}
	return nil
}
