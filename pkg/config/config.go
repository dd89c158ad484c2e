package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// APIKeyEnv overrides the enabled provider's API key when set.
const APIKeyEnv = "CHAINSMITH_API_KEY"

type Config struct {
	App       AppConfig                 `json:"app"`
	Providers map[string]ProviderConfig `json:"providers"`
	Memory    MemoryConfig              `json:"memory"`
	Policy    PolicyConfig              `json:"policy"`
}

type AppConfig struct {
	Name       string `json:"name"`
	PromptsDir string `json:"prompts_dir,omitempty"`
	Catalog    string `json:"catalog,omitempty"`
	LogLLM     bool   `json:"log_llm"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
	Enabled bool   `json:"enabled"`
}

// PolicyConfig lists goals and targets refused before generation.
type PolicyConfig struct {
	DenyPatterns []string `json:"deny_patterns,omitempty"`
	DenyTargets  []string `json:"deny_targets,omitempty"`
}

type MemoryConfig struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		App:       AppConfig{Name: "chainsmith"},
		Providers: map[string]ProviderConfig{},
		Memory:    MemoryConfig{Type: "sqlite", Path: "chainsmith.db"},
	}
}

// LoadConfig reads path. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		cfg.applyEnv()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	if cfg.Memory.Path == "" {
		cfg.Memory.Path = "chainsmith.db"
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	key := os.Getenv(APIKeyEnv)
	if key == "" {
		return
	}
	name, p := c.GetDefaultProvider()
	if name == "" {
		name, p = "openai", ProviderConfig{Model: "gpt-4o-mini", Enabled: true}
	}
	p.APIKey = key
	c.Providers[name] = p
}

// GetDefaultProvider returns the first enabled provider by name.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}
