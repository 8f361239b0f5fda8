package vbharness

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vibesafe/vibesafe/internal/vberrors"
	"github.com/vibesafe/vibesafe/internal/vbintrospect"
	"github.com/vibesafe/vibesafe/internal/vbspec"
)

// GateReport is one gate's outcome.
type GateReport struct {
	Gate   string
	Passed bool
	Detail string
}

// RunExampleGate loads artifactSource as the unit's implementation and
// evaluates every Example against it, comparing results byte-exact by
// default or via ellipsis matching when the expected block opts in
//.
func RunExampleGate(spec vbspec.Spec, artifactSource string, introspector vbintrospect.Introspector) (GateReport, error) {
	unitName := localUnitName(spec.UnitID)

	artifact, err := introspector.LoadArtifact(unitName, artifactSource)
	if err != nil {
		return GateReport{Gate: "examples"}, &vberrors.GateFailure{
			Category: vberrors.GateSandbox,
			UnitID:   spec.UnitID,
			Gate:     "examples",
			Detail:   fmt.Sprintf("loading artifact: %v", err),
		}
	}

	for _, ex := range spec.Examples {
		got, err := artifact.Call(ex.InputSource)
		if err != nil {
			return GateReport{Gate: "examples"}, &vberrors.GateFailure{
				Category: vberrors.GateExampleMismatch,
				UnitID:   spec.UnitID,
				Gate:     "examples",
				Detail:   fmt.Sprintf("evaluating %q: %v", ex.InputSource, err),
			}
		}
		if !matchExpected(got, ex.ExpectedOutput) {
			return GateReport{Gate: "examples"}, &vberrors.GateFailure{
				Category: vberrors.GateExampleMismatch,
				UnitID:   spec.UnitID,
				Gate:     "examples",
				Detail:   fmt.Sprintf("%s: want %q, got %q", ex.InputSource, ex.ExpectedOutput, got),
			}
		}
	}

	return GateReport{Gate: "examples", Passed: true}, nil
}

func localUnitName(unitID string) string {
	idx := strings.LastIndex(unitID, "/")
	if idx < 0 {
		return unitID
	}
	return unitID[idx+1:]
}

// ellipsisSplitRe is the wildcard separator in ellipsis-mode expected
// blocks: the "..." token, any horizontal whitespace touching it, and one
// list comma right after it, so `['a', ..., 'z']` matches `['a','b','c','z']`.
var ellipsisSplitRe = regexp.MustCompile(`[ \t]*\.\.\.[ \t]*,?[ \t]*`)

// matchExpected compares got against want. Byte-exact unless want
// contains the ellipsis token "...", in which case want is split on the
// wildcard and got must start with the first segment, end with the last,
// and contain every interior segment in order.
func matchExpected(got, want string) bool {
	if !vbspec.HasEllipsis(want) {
		return got == want
	}

	segments := ellipsisSplitRe.Split(want, -1)
	rest := got
	for i, seg := range segments {
		switch {
		case i == 0:
			if !strings.HasPrefix(rest, seg) {
				return false
			}
			rest = rest[len(seg):]
		case i == len(segments)-1:
			return strings.HasSuffix(rest, seg)
		default:
			idx := strings.Index(rest, seg)
			if idx < 0 {
				return false
			}
			rest = rest[idx+len(seg):]
		}
	}
	return true
}
