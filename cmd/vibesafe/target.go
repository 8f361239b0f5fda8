package main

import (
	"strings"

	"github.com/vibesafe/vibesafe/internal/vborchestrator"
	"github.com/vibesafe/vibesafe/internal/vbspec"
)

// selectSpecs resolves a --target flag value against the scanned specs.
// An empty target selects everything; an exact unit_id or a module-path
// prefix selects the matching subset;
// anything else is reported as a TargetNotFoundError carrying the nearest
// fuzzy suggestion.
func selectSpecs(specs []vbspec.Spec, target string) ([]vbspec.Spec, error) {
	if target == "" {
		return specs, nil
	}

	var matched []vbspec.Spec
	for _, s := range specs {
		if s.UnitID == target || strings.HasPrefix(s.UnitID, target+"/") {
			matched = append(matched, s)
		}
	}
	if len(matched) > 0 {
		return matched, nil
	}

	_, err := vborchestrator.ResolveTarget(specs, target)
	return nil, err
}
