package vbharness

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/vibesafe/vibesafe/internal/vberrors"
)

// GateToolConfig names the subprocess a lint/type/property Gate Tool
// invokes. An empty Command
// disables the gate, reporting a pass with an explanatory detail rather
// than silently skipping it.
type GateToolConfig struct {
	Command []string
	Timeout time.Duration
}

func (c GateToolConfig) configured() bool { return len(c.Command) > 0 }

// RunLintGate invokes the configured linter against dir.
func RunLintGate(ctx context.Context, dir string, cfg GateToolConfig) (GateReport, error) {
	if !cfg.configured() {
		return GateReport{Gate: "lint", Passed: true, Detail: "no lint command configured"}, nil
	}
	res := runCommand(ctx, dir, cfg.Timeout, cfg.Command[0], cfg.Command[1:]...)
	if !res.Success() {
		return GateReport{Gate: "lint"}, &vberrors.GateFailure{
			Category: exitCategory(res, vberrors.GateLint),
			Gate:     "lint",
			Detail:   firstNonEmpty(res.Stderr, res.Stdout),
		}
	}
	return GateReport{Gate: "lint", Passed: true, Detail: res.Stdout}, nil
}

// RunTypeGate invokes the configured static type checker against dir
//.
func RunTypeGate(ctx context.Context, dir string, cfg GateToolConfig) (GateReport, error) {
	if !cfg.configured() {
		return GateReport{Gate: "type", Passed: true, Detail: "no type-check command configured"}, nil
	}
	res := runCommand(ctx, dir, cfg.Timeout, cfg.Command[0], cfg.Command[1:]...)
	if !res.Success() {
		return GateReport{Gate: "type"}, &vberrors.GateFailure{
			Category: exitCategory(res, vberrors.GateType),
			Gate:     "type",
			Detail:   firstNonEmpty(res.Stderr, res.Stdout),
		}
	}
	return GateReport{Gate: "type", Passed: true, Detail: res.Stdout}, nil
}

// hypothesisFence marks the start of a docstring-embedded property test
// block.
const hypothesisFence = "```hypothesis:"

// ExtractPropertyBlock returns the contents of a fenced ```hypothesis:```
// block in docstring, if present.
func ExtractPropertyBlock(docstring string) (string, bool) {
	start := strings.Index(docstring, hypothesisFence)
	if start < 0 {
		return "", false
	}
	rest := docstring[start+len(hypothesisFence):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// RunPropertyGate feeds block (the hypothesis: fenced contents, verbatim)
// to the configured property-test Gate Tool over stdin.
func RunPropertyGate(ctx context.Context, dir string, block string, cfg GateToolConfig) (GateReport, error) {
	if !cfg.configured() {
		return GateReport{Gate: "property", Passed: true, Detail: "no property-test command configured"}, nil
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(block)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		category := vberrors.GateTimeout
		if ctx.Err() == nil {
			category = vberrors.GateSandbox
		}
		return GateReport{Gate: "property"}, &vberrors.GateFailure{
			Category: category,
			Gate:     "property",
			Detail:   firstNonEmpty(stderr.String(), err.Error()),
		}
	}
	return GateReport{Gate: "property", Passed: true, Detail: stdout.String()}, nil
}

func exitCategory(res CommandResult, defaultCategory vberrors.GateFailureCategory) vberrors.GateFailureCategory {
	if res.Exit == ExitTimeout {
		return vberrors.GateTimeout
	}
	if res.Exit == ExitNotFound {
		return vberrors.GateSandbox
	}
	return defaultCategory
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
