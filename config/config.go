// Package config declares conversation runs in YAML and materializes them
// into runnable sessions: models, workbench subprocesses, termination,
// sinks, transcript store and logging, all from one file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models a roundtable YAML file.
type Config struct {
	Logging      LoggingConfig              `yaml:"logging"`
	Models       map[string]ModelConfig     `yaml:"models"`
	Workbenches  map[string]WorkbenchConfig `yaml:"workbenches"`
	Participants []ParticipantConfig        `yaml:"participants"`
	Termination  TerminationConfig          `yaml:"termination"`
	Sinks        SinkConfig                 `yaml:"sinks"`
	Store        StoreConfig                `yaml:"store"`
}

// LoggingConfig selects log verbosity and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // json or text
}

// ModelConfig declares one completion backend, referenced by key from
// participants.
type ModelConfig struct {
	Provider    string   `yaml:"provider"` // openai, anthropic or mock
	Name        string   `yaml:"name"`
	BaseURL     string   `yaml:"base_url,omitempty"`
	APIKeyEnv   string   `yaml:"api_key_env,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// WorkbenchConfig declares one subprocess tool provider, referenced by key
// from participants.
type WorkbenchConfig struct {
	Command        string            `yaml:"command"`
	Args           []string          `yaml:"args,omitempty"`
	Env            map[string]string `yaml:"env,omitempty"`
	TimeoutSeconds int               `yaml:"timeout_seconds,omitempty"`
	Tools          []ToolDeclConfig  `yaml:"tools"`
}

// ToolDeclConfig declares one tool a workbench answers to.
type ToolDeclConfig struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Parameters  map[string]any `yaml:"parameters,omitempty"`
}

// ParticipantConfig declares one conversation member in turn order.
type ParticipantConfig struct {
	Name          string   `yaml:"name"`
	Instructions  string   `yaml:"instructions"`
	Model         string   `yaml:"model"`
	Workbenches   []string `yaml:"workbenches,omitempty"`
	MaxToolRounds int      `yaml:"max_tool_rounds,omitempty"`
}

// TerminationConfig declares the stop condition. Both fields may be set;
// whichever matches first ends the run.
type TerminationConfig struct {
	TextMention string `yaml:"text_mention,omitempty"`
	MaxMessages int    `yaml:"max_messages,omitempty"`
}

// SinkConfig selects message observers.
type SinkConfig struct {
	Console   bool   `yaml:"console"`
	WebSocket string `yaml:"websocket,omitempty"` // listen address, e.g. ":8080"
}

// StoreConfig selects the transcript store.
type StoreConfig struct {
	Type  string      `yaml:"type"` // memory or redis
	Redis RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig connects the redis transcript store.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env,omitempty"`
	DB          int    `yaml:"db,omitempty"`
	KeyPrefix   string `yaml:"key_prefix,omitempty"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes and validates YAML config bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Timeout returns the workbench call timeout as a duration; zero when unset.
func (w WorkbenchConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	if c.Store.Type == "redis" {
		if c.Store.Redis.Addr == "" {
			c.Store.Redis.Addr = "localhost:6379"
		}
		if c.Store.Redis.KeyPrefix == "" {
			c.Store.Redis.KeyPrefix = "roundtable:transcript:"
		}
	}
}

func (c *Config) validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error")
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text")
	}

	for key, mc := range c.Models {
		if err := mc.validate(); err != nil {
			return fmt.Errorf("models[%s]: %w", key, err)
		}
	}

	for key, wc := range c.Workbenches {
		if err := wc.validate(); err != nil {
			return fmt.Errorf("workbenches[%s]: %w", key, err)
		}
	}

	if len(c.Participants) == 0 {
		return fmt.Errorf("at least one participant is required")
	}

	seen := make(map[string]struct{}, len(c.Participants))
	for i, pc := range c.Participants {
		if err := pc.validate(c); err != nil {
			return fmt.Errorf("participants[%d]: %w", i, err)
		}
		if _, dup := seen[pc.Name]; dup {
			return fmt.Errorf("participants[%d]: duplicate name %q", i, pc.Name)
		}
		seen[pc.Name] = struct{}{}
	}

	if c.Termination.MaxMessages < 0 {
		return fmt.Errorf("termination.max_messages must be >= 0")
	}

	switch c.Store.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("store.type must be memory or redis")
	}

	return nil
}

func (mc ModelConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(mc.Provider)) {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("provider must be openai, anthropic or mock")
	}
	if strings.TrimSpace(mc.Name) == "" && mc.Provider != "mock" {
		return fmt.Errorf("name is required")
	}
	return nil
}

func (wc WorkbenchConfig) validate() error {
	if strings.TrimSpace(wc.Command) == "" {
		return fmt.Errorf("command is required")
	}
	if wc.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must be >= 0")
	}
	if len(wc.Tools) == 0 {
		return fmt.Errorf("at least one tool declaration is required")
	}
	for i, t := range wc.Tools {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("tools[%d]: name is required", i)
		}
	}
	return nil
}

func (pc ParticipantConfig) validate(c *Config) error {
	if strings.TrimSpace(pc.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if pc.Model == "" {
		return fmt.Errorf("model is required")
	}
	if _, ok := c.Models[pc.Model]; !ok {
		return fmt.Errorf("unknown model %q", pc.Model)
	}
	for _, key := range pc.Workbenches {
		if _, ok := c.Workbenches[key]; !ok {
			return fmt.Errorf("unknown workbench %q", key)
		}
	}
	if pc.MaxToolRounds < 0 {
		return fmt.Errorf("max_tool_rounds must be >= 0")
	}
	return nil
}
