package vborchestrator

import (
	"time"

	"github.com/vibesafe/vibesafe/internal/vbconfig"
	"github.com/vibesafe/vibesafe/internal/vbharness"
)

// harnessConfig converts the TOML-layer GatesConfig into the shape
// vbharness.RunAll expects, filling in the default gate timeout for any
// entry whose vibesafe.toml table omits one.
func (o *Orchestrator) harnessConfig() vbharness.Config {
	return vbharness.Config{
		WorkDir:  o.Root,
		Lint:     toolConfig(o.Config.Gates.Lint),
		Type:     toolConfig(o.Config.Gates.Type),
		Property: toolConfig(o.Config.Gates.Property),
	}
}

func toolConfig(c vbconfig.GateToolConfig) vbharness.GateToolConfig {
	timeout := time.Duration(c.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = vbconfig.DefaultGateTimeoutSecs * time.Second
	}
	return vbharness.GateToolConfig{Command: c.Command, Timeout: timeout}
}
