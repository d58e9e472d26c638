package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables supplied by the host session per invocation.
const (
	EnvSessionID      = "CLAUDE_SESSION_ID"
	EnvTranscriptPath = "CLAUDE_TRANSCRIPT_PATH"
	EnvProjectDir     = "CLAUDE_PROJECT_DIR"
	EnvPluginRoot     = "CLAUDE_PLUGIN_ROOT"
)

type SearchConfig struct {
	Binary              string `yaml:"binary"`
	Collection          string `yaml:"collection"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
	FetchMaxLines       int    `yaml:"fetch_max_lines"`
}

type MemoryConfig struct {
	MaxResults       int      `yaml:"max_results"`
	MinPromptLength  int      `yaml:"min_prompt_length"`
	PromptKeywords   int      `yaml:"prompt_keywords"`
	ThinkingKeywords int      `yaml:"thinking_keywords"`
	MaxShown         int      `yaml:"max_shown"`
	StateDir         string   `yaml:"state_dir,omitempty"`
	ContextTools     []string `yaml:"context_tools,omitempty"`
}

type GuardConfig struct {
	SafeRemoveGlobs []string `yaml:"safe_remove_globs,omitempty"`
}

type SyncConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	DebounceMillis int `yaml:"debounce_millis"`
}

type LogConfig struct {
	Level      string `yaml:"level,omitempty"`
	Path       string `yaml:"path,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type Config struct {
	Search SearchConfig `yaml:"search"`
	Memory MemoryConfig `yaml:"memory"`
	Guard  GuardConfig  `yaml:"guard,omitempty"`
	Sync   SyncConfig   `yaml:"sync"`
	Log    LogConfig    `yaml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Binary:              "qmd",
			Collection:          "claude-sessions",
			TimeoutSeconds:      5,
			FetchTimeoutSeconds: 5,
			FetchMaxLines:       75,
		},
		Memory: MemoryConfig{
			MaxResults:       3,
			MinPromptLength:  MinTextLength,
			PromptKeywords:   6,
			ThinkingKeywords: 8,
			ContextTools:     []string{"Read", "Edit", "Write", "Glob", "Grep"},
		},
		Sync: SyncConfig{
			TimeoutSeconds: 30,
			DebounceMillis: 500,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 2,
		},
	}
}

// ConfigPath returns the well-known config location, ~/.recall/config.yaml.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".recall", "config.yaml")
}

// LoadConfig reads the config at path, falling back to defaults when the
// file is absent. Unset fields inherit their defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.fillDefaults()

	return cfg, nil
}

// SaveConfig writes cfg to path, creating the parent directory.
func SaveConfig(path string, cfg *Config) error {
	if path == "" {
		path = ConfigPath()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Search.Binary == "" {
		c.Search.Binary = def.Search.Binary
	}
	if c.Search.Collection == "" {
		c.Search.Collection = def.Search.Collection
	}
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = def.Search.TimeoutSeconds
	}
	if c.Search.FetchTimeoutSeconds <= 0 {
		c.Search.FetchTimeoutSeconds = def.Search.FetchTimeoutSeconds
	}
	if c.Search.FetchMaxLines <= 0 {
		c.Search.FetchMaxLines = def.Search.FetchMaxLines
	}
	if c.Memory.MaxResults <= 0 {
		c.Memory.MaxResults = def.Memory.MaxResults
	}
	if c.Memory.MinPromptLength <= 0 {
		c.Memory.MinPromptLength = def.Memory.MinPromptLength
	}
	if c.Memory.PromptKeywords <= 0 {
		c.Memory.PromptKeywords = def.Memory.PromptKeywords
	}
	if c.Memory.ThinkingKeywords <= 0 {
		c.Memory.ThinkingKeywords = def.Memory.ThinkingKeywords
	}
	if len(c.Memory.ContextTools) == 0 {
		c.Memory.ContextTools = def.Memory.ContextTools
	}
	if c.Sync.TimeoutSeconds <= 0 {
		c.Sync.TimeoutSeconds = def.Sync.TimeoutSeconds
	}
	if c.Sync.DebounceMillis <= 0 {
		c.Sync.DebounceMillis = def.Sync.DebounceMillis
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = def.Log.MaxBackups
	}
}

// SearchTimeout returns the per-call search timeout as a duration.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}

// FetchTimeout returns the content-fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Search.FetchTimeoutSeconds) * time.Second
}

// SyncTimeout returns the transcript-sync timeout as a duration.
func (c *Config) SyncTimeout() time.Duration {
	return time.Duration(c.Sync.TimeoutSeconds) * time.Second
}

// SyncDebounce returns the watch debounce window as a duration.
func (c *Config) SyncDebounce() time.Duration {
	return time.Duration(c.Sync.DebounceMillis) * time.Millisecond
}
