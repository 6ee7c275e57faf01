package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file, applies environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := base()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file
// does not exist and allowMissing is set.
func LoadOrDefault(path string, allowMissing bool) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !allowMissing || !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg = defaults()
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
// lookup has the signature of os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if c.LLM.Provider != ProviderOpenAI {
		if v, ok := lookup("GEMINI_API_KEYS"); ok && strings.TrimSpace(v) != "" {
			c.LLM.APIKeys = splitKeys(v)
		} else if v, ok := lookup("GEMINI_API_KEY"); ok && strings.TrimSpace(v) != "" {
			c.LLM.APIKeys = []string{strings.TrimSpace(v)}
		}
	}

	if v, ok := lookup("OPENAI_API_KEY"); ok && strings.TrimSpace(v) != "" {
		if c.LLM.Provider == "" && len(c.LLM.APIKeys) == 0 {
			c.LLM.Provider = ProviderOpenAI
		}
		if c.LLM.Provider == ProviderOpenAI {
			c.LLM.APIKeys = []string{strings.TrimSpace(v)}
		}
	}
	if v, ok := lookup("OPENAI_BASE_URL"); ok && v != "" {
		c.LLM.BaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := lookup("COMFY_HOST"); ok && v != "" {
		c.Comfy.Host = v
	}
}

func splitKeys(v string) []string {
	var keys []string
	for _, k := range strings.Split(v, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
