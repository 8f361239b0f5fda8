// Package vborchestrator composes the Spec Extractor, Hasher, Prompt
// Renderer, Provider Client, Validator, Checkpoint Store, and
// Verification Harness into the user-facing verbs: scan, compile, test,
// save, diff, status, check.
package vborchestrator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vibesafe/vibesafe/internal/vbconfig"
	"github.com/vibesafe/vibesafe/internal/vbintrospect"
	"github.com/vibesafe/vibesafe/internal/vbload"
	"github.com/vibesafe/vibesafe/internal/vbprompt"
	"github.com/vibesafe/vibesafe/internal/vbprovider"
	"github.com/vibesafe/vibesafe/internal/vbstore"
	"github.com/vibesafe/vibesafe/internal/vbvalidate"
)

// Orchestrator owns Specs transiently and decides when to invoke every
// other component. It is the one type that
// knows about every package in the pipeline; nothing downstream of it
// imports it back, keeping the component graph acyclic.
type Orchestrator struct {
	Root        string
	SourceRoot  string
	Config      *vbconfig.Config
	Store       *vbstore.Store
	Renderer    *vbprompt.Renderer
	Introspect  vbintrospect.Introspector
	Providers   map[string]vbprovider.Provider
	ValidateCfg vbvalidate.Config
	Mode        vbconfig.RunMode
	Log         *slog.Logger

	// Now overrides the wall clock used to stamp meta.toml timestamps;
	// nil in production, set by tests that need deterministic output.
	Now func() time.Time

	loader *vbload.Loader
}

// New wires a complete Orchestrator from a loaded Config. sourceRoot is
// where vbspec.Scan looks for `.vibesafe` stub files; promptRoot is where
// the Prompt Renderer loads `prompts/*.tmpl` from.
func New(root, sourceRoot, promptRoot string, cfg *vbconfig.Config, introspector vbintrospect.Introspector, log *slog.Logger) (*Orchestrator, error) {
	mode, err := cfg.ResolveMode()
	if err != nil {
		return nil, err
	}

	cacheDir := resolvePath(root, cfg.Paths.Cache, ".vibesafe/cache")
	store := vbstore.NewWithPaths(
		resolvePath(root, cfg.Paths.Checkpoints, ".vibesafe/checkpoints"),
		resolvePath(root, cfg.Paths.Index, ".vibesafe/index.toml"),
		cacheDir,
	)

	providers := make(map[string]vbprovider.Provider, len(cfg.Provider))
	for name, pc := range cfg.Provider {
		timeout := time.Duration(pc.TimeoutSecs) * time.Second
		if timeout <= 0 {
			timeout = vbconfig.DefaultProviderTimeoutSecs * time.Second
		}
		apiKey := ""
		if pc.APIKeyEnv != "" {
			apiKey = os.Getenv(pc.APIKeyEnv)
		}
		providers[name] = vbprovider.NewDefault(pc.BaseURL, apiKey, cacheDir, timeout, log)
	}

	o := &Orchestrator{
		Root:       root,
		SourceRoot: sourceRoot,
		Config:     cfg,
		Store:      store,
		Renderer:   vbprompt.NewFileRenderer(promptRoot),
		Introspect: introspector,
		Providers:  providers,
		ValidateCfg: vbvalidate.Config{
			ForbiddenPatterns:        cfg.Validate.ForbiddenPatterns,
			AllowedUnresolvedImports: cfg.Validate.AllowedUnresolvedImports,
			MaxArtifactBytes:         cfg.Validate.MaxArtifactBytes,
		},
		Mode: mode,
		Log:  log,
	}
	o.loader = vbload.New(store, mode, regenerator{o: o}, introspector, log)
	return o, nil
}

func resolvePath(root, configured, fallback string) string {
	rel := fallback
	if configured != "" {
		rel = configured
	}
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(root, rel)
}

// UnknownProviderError is returned when a Spec references a provider_ref
// not present in vibesafe.toml's [provider.*] tables.
type UnknownProviderError struct {
	ProviderRef string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q: not configured in vibesafe.toml", e.ProviderRef)
}
