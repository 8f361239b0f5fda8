// Package vbvalidate implements the Validator: six
// fast-failing checks run against a generated artifact before any
// checkpoint is written.
package vbvalidate

import (
	"fmt"
	"strings"

	"github.com/vibesafe/vibesafe/internal/vberrors"
	"github.com/vibesafe/vibesafe/internal/vbintrospect"
	"github.com/vibesafe/vibesafe/internal/vbspec"
)

// Validate runs the six validation checks in order against artifact,
// using introspector for parse/symbol/signature/import checks. It returns
// the first failing check's *vberrors.ValidationError, or nil if every
// check passes.
func Validate(spec vbspec.Spec, artifact []byte, introspector vbintrospect.Introspector, cfg Config) error {
	unitName := localUnitName(spec.UnitID)

	// 1. Parsability.
	tree, err := introspector.ParseSource(string(artifact))
	if err != nil {
		return &vberrors.ValidationError{
			Kind:     vberrors.ValidationParseError,
			UnitID:   spec.UnitID,
			Location: spec.SourceLocation.Path,
			Detail:   err.Error(),
			Hint:     "the generated artifact is not syntactically valid",
		}
	}

	// 2. Symbol presence.
	if !containsString(introspector.Symbols(tree), unitName) {
		return &vberrors.ValidationError{
			Kind:     vberrors.ValidationSymbolMissing,
			UnitID:   spec.UnitID,
			Location: unitName,
			Detail:   fmt.Sprintf("no top-level declaration named %q", unitName),
			Hint:     "the artifact must declare the unit's own name at top level",
		}
	}

	// 3. Signature match.
	got, ok := introspector.FuncSignatureText(tree, unitName)
	want := spec.Signature.CanonicalText()
	if !ok || got != want {
		return &vberrors.ValidationError{
			Kind:     vberrors.ValidationSignatureMismatch,
			UnitID:   spec.UnitID,
			Location: unitName,
			Detail:   fmt.Sprintf("want %q, got %q", want, got),
			Hint:     "parameter names, order, types, and return type must match byte-for-byte",
		}
	}

	// 4. No forbidden constructs.
	artifactText := string(artifact)
	for _, pattern := range cfg.ForbiddenPatterns {
		if strings.Contains(artifactText, pattern) {
			return &vberrors.ValidationError{
				Kind:     vberrors.ValidationForbiddenConstruct,
				UnitID:   spec.UnitID,
				Location: unitName,
				Detail:   fmt.Sprintf("forbidden construct %q present in artifact", pattern),
				Hint:     "remove the construct or adjust the deny-list",
			}
		}
	}

	// 5. Import resolution.
	allowedUnresolved := toSet(cfg.AllowedUnresolvedImports)
	for _, imp := range introspector.Imports(tree) {
		if allowedUnresolved[imp] {
			continue
		}
		if _, ok := introspector.ResolveSymbol(imp, artifactText); !ok {
			return &vberrors.ValidationError{
				Kind:     vberrors.ValidationImportUnresolved,
				UnitID:   spec.UnitID,
				Location: imp,
				Detail:   fmt.Sprintf("import %q does not resolve to a known module", imp),
				Hint:     "add the import to allowed_unresolved_imports if it is intentionally external",
			}
		}
	}

	// 6. Artifact size.
	if len(artifact) > cfg.maxArtifactBytes() {
		return &vberrors.ValidationError{
			Kind:     vberrors.ValidationSizeExceeded,
			UnitID:   spec.UnitID,
			Location: unitName,
			Detail:   fmt.Sprintf("artifact is %d bytes, exceeding the %d byte bound", len(artifact), cfg.maxArtifactBytes()),
			Hint:     "shrink the generated implementation or raise max_artifact_bytes",
		}
	}

	return nil
}

// localUnitName strips a unit_id's module-path prefix, returning the bare
// declaration name the artifact must define at top level.
func localUnitName(unitID string) string {
	idx := strings.LastIndex(unitID, "/")
	if idx < 0 {
		return unitID
	}
	return unitID[idx+1:]
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
