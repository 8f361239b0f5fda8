package vborchestrator

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
)

// DiffResult summarises how a unit's current Spec and latest candidate
// checkpoint relate to what is currently active.
type DiffResult struct {
	UnitID       string
	SpecDrifted  bool   // current H_spec != active checkpoint's recorded spec_hash
	HasCandidate bool   // a checkpoint newer than the active one exists
	CodeDiff     string // unified-ish diff of candidate impl vs active impl; empty if identical or no candidate
}

// Diff reports the delta between unitID's current Spec/candidate
// checkpoint and its active checkpoint.
func (o *Orchestrator) Diff(unitID string) (DiffResult, error) {
	spec, ok, err := o.FindSpec(unitID)
	if err != nil {
		return DiffResult{}, err
	}
	if !ok {
		return DiffResult{}, &TargetNotFoundError{Target: unitID}
	}

	result := DiffResult{UnitID: unitID}

	specHash, err := o.SpecHash(spec)
	if err != nil {
		return DiffResult{}, err
	}

	activeChk, active, err := o.Store.Active(unitID)
	if err != nil {
		return DiffResult{}, err
	}

	var activeImpl []byte
	if active {
		implBytes, meta, err := o.Store.Read(unitID, activeChk)
		if err != nil {
			return DiffResult{}, err
		}
		activeImpl = implBytes
		result.SpecDrifted = meta.SpecHash != specHash.String()
	} else {
		result.SpecDrifted = true
	}

	candidateChk, found, err := o.resolveTestCheckpoint(unitID)
	if err != nil {
		return DiffResult{}, err
	}
	if found && (!active || candidateChk != activeChk) {
		result.HasCandidate = true
		candidateImpl, _, err := o.Store.Read(unitID, candidateChk)
		if err != nil {
			return DiffResult{}, err
		}
		if diff := cmp.Diff(string(activeImpl), string(candidateImpl)); diff != "" {
			result.CodeDiff = diff
		}
	}

	return result, nil
}

func (r DiffResult) String() string {
	if !r.SpecDrifted && !r.HasCandidate {
		return fmt.Sprintf("%s: up to date", r.UnitID)
	}
	out := fmt.Sprintf("%s: spec_drifted=%v has_candidate=%v", r.UnitID, r.SpecDrifted, r.HasCandidate)
	if r.CodeDiff != "" {
		out += "\n" + r.CodeDiff
	}
	return out
}
