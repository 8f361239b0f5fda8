// Package vbconfig loads vibesafe.toml and resolves the RunMode. Precedence: environment variables > config file >
// defaults, mirroring the layering used for specmcp.toml in the MCP
// server this design draws from.
package vbconfig

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// RunMode is dev (regenerate-on-drift) or prod (fail-on-drift).
type RunMode string

const (
	ModeDev  RunMode = "dev"
	ModeProd RunMode = "prod"
)

// Default timeouts.
const (
	DefaultProviderTimeoutSecs = 60
	DefaultGateTimeoutSecs     = 10
	// DefaultWorkerPoolSize bounds parallel provider requests and gate
	// runs across units.
	DefaultWorkerPoolSize = 4
)

// Config is the parsed form of vibesafe.toml.
type Config struct {
	Project  ProjectConfig             `toml:"project"`
	Paths    PathsConfig               `toml:"paths"`
	Prompts  PromptsConfig             `toml:"prompts"`
	Provider map[string]ProviderConfig `toml:"provider"`
	Sandbox  SandboxConfig             `toml:"sandbox"`
	Gates    GatesConfig               `toml:"gates"`
	Validate ValidateConfig            `toml:"validate"`
}

// ProjectConfig controls project-wide defaults.
type ProjectConfig struct {
	Env string `toml:"env"` // "dev" or "prod"; default RunMode when VIBESAFE_ENV unset
}

// PathsConfig controls Checkpoint Store locations.
type PathsConfig struct {
	Checkpoints string `toml:"checkpoints"`
	Cache       string `toml:"cache"`
	Index       string `toml:"index"`
}

// PromptsConfig maps unit kind to template path.
type PromptsConfig struct {
	Function string `toml:"function"`
	HTTP     string `toml:"http"`
	CLI      string `toml:"cli"`
}

// ProviderConfig describes one configured provider entry.
type ProviderConfig struct {
	Kind        string  `toml:"kind"`
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url"`
	APIKeyEnv   string  `toml:"api_key_env"`
	Seed        int64   `toml:"seed"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	TimeoutSecs int     `toml:"timeout"`
}

// SandboxConfig controls Gate Tool sandboxing.
type SandboxConfig struct {
	Enabled  bool `toml:"enabled"`
	TimeoutS int  `toml:"timeout"`
	MemoryMB int  `toml:"memory_mb"`
}

// GateToolConfig names one Gate Tool subprocess plus the
// per-gate timeout.
type GateToolConfig struct {
	Command     []string `toml:"command"`
	TimeoutSecs int      `toml:"timeout"`
}

// GatesConfig configures the lint/type/property Gate Tools the
// Verification Harness invokes. An entry with an
// empty Command disables that gate (reported as a pass with an
// explanatory detail, never a silent skip).
type GatesConfig struct {
	Lint     GateToolConfig `toml:"lint"`
	Type     GateToolConfig `toml:"type"`
	Property GateToolConfig `toml:"property"`
}

// ValidateConfig is the Validator's configuration, layered the same way as the rest of Config.
type ValidateConfig struct {
	ForbiddenPatterns        []string `toml:"forbidden_patterns"`
	AllowedUnresolvedImports []string `toml:"allowed_unresolved_imports"`
	MaxArtifactBytes         int      `toml:"max_artifact_bytes"`
}

// Load reads vibesafe.toml (if present) layered over defaults, then applies
// environment variable overrides, which always win. configPath, if
// non-empty, is used verbatim instead of the discovery search order.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Project: ProjectConfig{Env: "dev"},
		Paths: PathsConfig{
			Checkpoints: ".vibesafe/checkpoints",
			Cache:       ".vibesafe/cache",
			Index:       ".vibesafe/index.toml",
		},
		Prompts: PromptsConfig{
			Function: "prompts/function.tmpl",
			HTTP:     "prompts/http_endpoint.tmpl",
			CLI:      "prompts/cli_command.tmpl",
		},
		Sandbox: SandboxConfig{
			Enabled:  false,
			TimeoutS: 10,
			MemoryMB: 512,
		},
		Gates: GatesConfig{
			Lint:     GateToolConfig{TimeoutSecs: DefaultGateTimeoutSecs},
			Type:     GateToolConfig{TimeoutSecs: DefaultGateTimeoutSecs},
			Property: GateToolConfig{TimeoutSecs: DefaultGateTimeoutSecs},
		},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) loadFile(explicit string) error {
	path := resolveConfigPath(explicit)
	if path == "" {
		return nil
	}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath returns the config file to load, or "" if none exists
// (the config file is optional - defaults + env suffice).
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("VIBESAFE_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("vibesafe.toml"); err == nil {
		return "vibesafe.toml"
	}
	return ""
}

func (c *Config) applyEnv() {
	if v := os.Getenv("VIBESAFE_ENV"); v != "" {
		c.Project.Env = v
	}
}

// ResolveMode resolves the effective RunMode: the environment variable
// takes precedence over the project config value.
func (c *Config) ResolveMode() (RunMode, error) {
	switch RunMode(c.Project.Env) {
	case ModeDev:
		return ModeDev, nil
	case ModeProd:
		return ModeProd, nil
	default:
		return "", fmt.Errorf("invalid run mode %q: must be %q or %q", c.Project.Env, ModeDev, ModeProd)
	}
}
