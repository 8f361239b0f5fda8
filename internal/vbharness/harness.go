package vbharness

import (
	"context"

	"github.com/vibesafe/vibesafe/internal/vbintrospect"
	"github.com/vibesafe/vibesafe/internal/vbspec"
)

// Config bundles the Gate Tool commands the Harness drives. WorkDir is the directory lint/type/property subprocesses run in
// (normally the project root, so they see the same source tree as the
// unit being verified).
type Config struct {
	WorkDir  string
	Lint     GateToolConfig
	Type     GateToolConfig
	Property GateToolConfig
}

// RunAll runs every gate in order - examples, lint, type,
// and the optional property gate when the docstring carries a
// ```hypothesis:``` block - stopping at the first failure (fast fail, as
// every other gate in this pipeline does). All gates must pass for `save`
// to succeed.
func RunAll(ctx context.Context, spec vbspec.Spec, artifactSource string, introspector vbintrospect.Introspector, cfg Config) ([]GateReport, error) {
	var reports []GateReport

	exampleReport, err := RunExampleGate(spec, artifactSource, introspector)
	reports = append(reports, exampleReport)
	if err != nil {
		return reports, err
	}

	lintReport, err := RunLintGate(ctx, cfg.WorkDir, cfg.Lint)
	reports = append(reports, lintReport)
	if err != nil {
		return reports, err
	}

	typeReport, err := RunTypeGate(ctx, cfg.WorkDir, cfg.Type)
	reports = append(reports, typeReport)
	if err != nil {
		return reports, err
	}

	if block, ok := ExtractPropertyBlock(spec.Docstring); ok {
		propertyReport, err := RunPropertyGate(ctx, cfg.WorkDir, block, cfg.Property)
		reports = append(reports, propertyReport)
		if err != nil {
			return reports, err
		}
	}

	return reports, nil
}

// AllPassed reports whether every gate in reports passed.
func AllPassed(reports []GateReport) bool {
	for _, r := range reports {
		if !r.Passed {
			return false
		}
	}
	return true
}
