package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/llmstream/providers/ai"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "llmstream.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
backend: openai
model: gpt-5
system: Be brief.
max_turns: 3
reasoning_effort: high
temperature: 0.4
service_tier: flex
tools: [calculator]
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, string(ai.BackendOpenAI), config.Backend)
	assert.Equal(t, "gpt-5", config.Model)
	assert.Equal(t, "Be brief.", config.System)
	assert.Equal(t, 3, config.MaxTurns)
	assert.Equal(t, "high", config.ReasoningEffort)
	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.4, *config.Temperature, 1e-9)
	assert.Equal(t, []string{"calculator"}, config.Tools)
}

func TestLoadConfig_KeepsDefaultsForMissingFields(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "system: hi\n"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig().Backend, config.Backend)
	assert.Equal(t, defaultConfig().Model, config.Model)
	assert.Equal(t, 10, config.MaxTurns)
	assert.Equal(t, "hi", config.System)
}

func TestLoadConfig_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), config)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "yaml", content: "backend: [", want: "parse config"},
		{name: "backend", content: "backend: mistral", want: `unknown backend "mistral"`},
		{name: "effort", content: "reasoning_effort: extreme", want: `unknown reasoning effort "extreme"`},
		{name: "tier", content: "service_tier: turbo", want: `unknown service tier "turbo"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestBuildCatalog(t *testing.T) {
	catalog, err := buildCatalog([]string{"calculator", "WebFetch"})
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Size())

	_, err = buildCatalog([]string{"shell"})
	assert.ErrorContains(t, err, `unknown tool "shell"`)
}
