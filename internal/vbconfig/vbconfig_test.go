package vbconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vibesafe.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
	t.Setenv("VIBESAFE_ENV", "")
	t.Setenv("VIBESAFE_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Project.Env)
	assert.Equal(t, ".vibesafe/checkpoints", cfg.Paths.Checkpoints)
	assert.Equal(t, ".vibesafe/cache", cfg.Paths.Cache)
	assert.Equal(t, "prompts/function.tmpl", cfg.Prompts.Function)
	assert.Equal(t, "prompts/http_endpoint.tmpl", cfg.Prompts.HTTP)
	assert.Equal(t, "prompts/cli_command.tmpl", cfg.Prompts.CLI)
	assert.False(t, cfg.Sandbox.Enabled)
	assert.Equal(t, DefaultGateTimeoutSecs, cfg.Gates.Lint.TimeoutSecs)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv("VIBESAFE_ENV", "")
	path := writeConfig(t, `
[project]
env = "prod"

[paths]
checkpoints = "store/checkpoints"
cache = "store/cache"
index = "store/index.toml"

[provider.default]
kind = "ollama"
model = "codellama:13b"
base_url = "http://localhost:11434"
api_key_env = "OLLAMA_KEY"
seed = 42
temperature = 0.0
max_tokens = 2048
timeout = 120

[gates.lint]
command = ["golangci-lint", "run"]
timeout = 30

[sandbox]
enabled = true
timeout = 5
memory_mb = 256
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Project.Env)
	assert.Equal(t, "store/checkpoints", cfg.Paths.Checkpoints)

	pc, ok := cfg.Provider["default"]
	require.True(t, ok)
	assert.Equal(t, "ollama", pc.Kind)
	assert.Equal(t, "codellama:13b", pc.Model)
	assert.Equal(t, int64(42), pc.Seed)
	assert.Equal(t, 120, pc.TimeoutSecs)

	assert.Equal(t, []string{"golangci-lint", "run"}, cfg.Gates.Lint.Command)
	assert.Equal(t, 30, cfg.Gates.Lint.TimeoutSecs)

	assert.True(t, cfg.Sandbox.Enabled)
	assert.Equal(t, 256, cfg.Sandbox.MemoryMB)

	mode, err := cfg.ResolveMode()
	require.NoError(t, err)
	assert.Equal(t, ModeProd, mode)
}

func TestLoad_EnvVarOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[project]
env = "dev"
`)
	t.Setenv("VIBESAFE_ENV", "prod")

	cfg, err := Load(path)
	require.NoError(t, err)

	mode, err := cfg.ResolveMode()
	require.NoError(t, err)
	assert.Equal(t, ModeProd, mode)
}

func TestResolveMode_RejectsUnknownValue(t *testing.T) {
	cfg := &Config{Project: ProjectConfig{Env: "staging"}}
	_, err := cfg.ResolveMode()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging")
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, `[project`)
	_, err := Load(path)
	require.Error(t, err)
}
