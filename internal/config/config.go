package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models conductor.yml.
type Config struct {
	Model struct {
		Name            string  `yaml:"name"`
		Temperature     float64 `yaml:"temperature"`
		MaxOutputTokens int     `yaml:"max_output_tokens"`
		APIKeyEnv       string  `yaml:"api_key_env"`
	} `yaml:"model"`
	Defaults struct {
		TaskTitle       string `yaml:"task_title"`
		TaskDescription string `yaml:"task_description"`
		AssigneeRole    string `yaml:"assignee_role"`
		ProposalReason  string `yaml:"proposal_reason"`
		ProposalImpact  string `yaml:"proposal_impact"`
	} `yaml:"defaults"`
	Rebalance struct {
		Interval          Duration `yaml:"interval"`
		WorkloadThreshold int      `yaml:"workload_threshold"`
	} `yaml:"rebalance"`
	Journal struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"journal"`
}

// Duration decodes yaml strings like "10s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; generate one with cond config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the defaults if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Omitted fields
// keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Model.Name == "" {
		return fmt.Errorf("config.model.name is required")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("config.model.temperature must be in [0,2]")
	}
	if c.Model.MaxOutputTokens <= 0 {
		return fmt.Errorf("config.model.max_output_tokens must be positive")
	}
	if c.Defaults.TaskTitle == "" {
		return fmt.Errorf("config.defaults.task_title is required")
	}
	if c.Defaults.AssigneeRole == "" {
		return fmt.Errorf("config.defaults.assignee_role is required")
	}
	if c.Rebalance.Interval <= 0 {
		return fmt.Errorf("config.rebalance.interval must be positive")
	}
	if c.Rebalance.WorkloadThreshold < 0 || c.Rebalance.WorkloadThreshold > 100 {
		return fmt.Errorf("config.rebalance.workload_threshold must be in [0,100]")
	}
	if c.Journal.Capacity < 0 {
		return fmt.Errorf("config.journal.capacity must not be negative")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "conductor.yml")
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	cfg.Model.Name = "gemini-2.5-flash"
	cfg.Model.Temperature = 0.1
	cfg.Model.MaxOutputTokens = 1000
	cfg.Model.APIKeyEnv = "GEMINI_API_KEY"
	cfg.Defaults.TaskTitle = "Новая задача из обсуждения"
	cfg.Defaults.TaskDescription = "Извлечено из недавнего диалога."
	cfg.Defaults.AssigneeRole = "Аналитик"
	cfg.Defaults.ProposalReason = "Предложение по ребалансировке команды"
	cfg.Defaults.ProposalImpact = "Не оценено"
	cfg.Rebalance.Interval = Duration(10 * time.Second)
	cfg.Rebalance.WorkloadThreshold = 85
	cfg.Journal.Capacity = 256
	return &cfg
}

// GenerateDefault returns the default config as YAML, suitable for writing a
// fresh conductor.yml.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `model:
  name: gemini-2.5-flash
  temperature: 0.1
  max_output_tokens: 1000
  api_key_env: GEMINI_API_KEY

defaults:
  task_title: "Новая задача из обсуждения"
  task_description: "Извлечено из недавнего диалога."
  assignee_role: "Аналитик"
  proposal_reason: "Предложение по ребалансировке команды"
  proposal_impact: "Не оценено"

rebalance:
  interval: 10s
  workload_threshold: 85

journal:
  capacity: 256
`
