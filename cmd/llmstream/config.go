package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/providers/ai"
	"github.com/leofalp/llmstream/providers/ai/anthropic"
)

// defaultConfigFile is read when --config is not given and the file exists.
const defaultConfigFile = "llmstream.yaml"

// Config is the file format of --config. Flags override every field.
type Config struct {
	Backend         string   `yaml:"backend"`
	Model           string   `yaml:"model"`
	System          string   `yaml:"system"`
	MaxTurns        int      `yaml:"max_turns"`
	MaxTokens       int      `yaml:"max_tokens"`
	ReasoningEffort string   `yaml:"reasoning_effort"`
	Temperature     *float64 `yaml:"temperature"`
	ServiceTier     string   `yaml:"service_tier"`
	Tools           []string `yaml:"tools"`
	ShowThinking    bool     `yaml:"show_thinking"`
}

func defaultConfig() Config {
	return Config{
		Backend:  string(ai.BackendAnthropic),
		Model:    anthropic.ModelSonnet45,
		MaxTurns: 10,
		Tools:    []string{"calculator", "web_fetch"},
	}
}

// LoadConfig reads path over the defaults. An empty path reads
// llmstream.yaml from the working directory if it exists.
func LoadConfig(path string) (Config, error) {
	config := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return config, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, config.validate()
}

func (c Config) validate() error {
	switch ai.Backend(c.Backend) {
	case ai.BackendAnthropic, ai.BackendOpenAI, ai.BackendGoogle:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch ai.ReasoningEffort(c.ReasoningEffort) {
	case "", ai.ReasoningNone, ai.ReasoningMinimal, ai.ReasoningLow, ai.ReasoningMedium, ai.ReasoningHigh, ai.ReasoningXHigh:
	default:
		return fmt.Errorf("unknown reasoning effort %q", c.ReasoningEffort)
	}

	switch cost.ServiceTier(c.ServiceTier) {
	case cost.TierDefault, cost.TierAuto, cost.TierFlex, cost.TierPriority:
	default:
		return fmt.Errorf("unknown service tier %q", c.ServiceTier)
	}
	return nil
}
