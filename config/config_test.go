package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.BaseURL)
	assert.Equal(t, "llama3.1", cfg.ModelName)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Parser.AnchoredLabels)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	file := filepath.Join(dir, "blendgen.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
provider: ollama
base_url: http://gpu-box:11434
model_name: qwen2.5-coder
parser:
  anchored_labels: true
server:
  allowed_origins: ["http://localhost:3000"]
`), 0644))

	t.Setenv("BLENDGEN_MODEL_NAME", "llama3.2")
	t.Setenv("BLENDGEN_LOG_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig(file)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "http://gpu-box:11434", cfg.BaseURL)
	assert.Equal(t, "llama3.2", cfg.ModelName, "environment overrides the file")
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.True(t, cfg.Parser.AnchoredLabels)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)

	llmCfg := cfg.LlmConfig()
	assert.Equal(t, "ollama", llmCfg.Provider)
	assert.Equal(t, "llama3.2", llmCfg.ModelName)
}

func TestLoadConfig_InvalidProvider(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("provider: gemini\n"), 0644))

	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, `unknown provider "gemini"`)
}

func TestCreateDefaultConfig(t *testing.T) {
	fsys := afero.NewMemMapFs()

	path, err := CreateDefaultConfig(fsys, "/home/user/.blendgen")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/user/.blendgen", "config.yaml"), path)

	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "model_name: llama3.1")

	_, err = CreateDefaultConfig(fsys, "/home/user/.blendgen")
	assert.ErrorContains(t, err, "already exists")
}
