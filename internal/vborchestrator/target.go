package vborchestrator

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/vibesafe/vibesafe/internal/vbspec"
)

// TargetNotFoundError is returned when a --target argument does not match
// any known unit_id, even fuzzily. Suggestion is the nearest candidate
// when one exists.
type TargetNotFoundError struct {
	Target     string
	Suggestion string
}

func (e *TargetNotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("no unit matches %q; did you mean %q?", e.Target, e.Suggestion)
	}
	return fmt.Sprintf("no unit matches %q", e.Target)
}

// ResolveTarget finds the Spec matching target: an exact unit_id match
// wins outright; otherwise the closest fuzzy match among all unit_ids is
// offered as a suggestion and returned as a TargetNotFoundError rather
// than silently guessing, since compile/save/diff act on whatever unit
// is resolved.
func ResolveTarget(specs []vbspec.Spec, target string) (vbspec.Spec, error) {
	for _, s := range specs {
		if s.UnitID == target {
			return s, nil
		}
	}

	ids := make([]string, len(specs))
	for i, s := range specs {
		ids[i] = s.UnitID
	}
	ranks := fuzzy.RankFindFold(target, ids)
	if len(ranks) == 0 {
		return vbspec.Spec{}, &TargetNotFoundError{Target: target}
	}
	sort.Sort(ranks)

	return vbspec.Spec{}, &TargetNotFoundError{Target: target, Suggestion: ranks[0].Target}
}
