package vborchestrator

import (
	"context"
	"fmt"

	"github.com/vibesafe/vibesafe/internal/vbharness"
	"github.com/vibesafe/vibesafe/internal/vbhash"
)

// NoCandidateError is returned by Test when a unit has never been
// compiled: there is no candidate checkpoint and no active one either.
type NoCandidateError struct {
	UnitID string
}

func (e *NoCandidateError) Error() string {
	return fmt.Sprintf("%s has no compiled checkpoint to test; run compile first", e.UnitID)
}

// resolveTestCheckpoint picks the checkpoint `test` verifies: the most
// recently written candidate, falling back to the active checkpoint when
// the unit has never produced an unsaved candidate.
func (o *Orchestrator) resolveTestCheckpoint(unitID string) (vbhash.Digest, bool, error) {
	chks, err := o.Store.ListCheckpoints(unitID)
	if err != nil {
		return vbhash.Digest{}, false, err
	}
	if len(chks) > 0 {
		return chks[len(chks)-1], true, nil
	}
	return o.Store.Active(unitID)
}

// Test runs the Verification Harness against unitID's latest checkpoint
//.
func (o *Orchestrator) Test(ctx context.Context, unitID string) ([]vbharness.GateReport, error) {
	spec, ok, err := o.FindSpec(unitID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &TargetNotFoundError{Target: unitID}
	}

	chk, found, err := o.resolveTestCheckpoint(unitID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NoCandidateError{UnitID: unitID}
	}

	implBytes, _, err := o.Store.Read(unitID, chk)
	if err != nil {
		return nil, err
	}

	return vbharness.RunAll(ctx, spec, string(implBytes), o.Introspect, o.harnessConfig())
}
