package vborchestrator

import (
	"github.com/vibesafe/vibesafe/internal/vbspec"
)

// UnitState enumerates the coverage/drift states the `scan` verb
// reports per unit.
type UnitState string

const (
	StateUncompiled      UnitState = "uncompiled"
	StateCompiledActive  UnitState = "compiled_active"
	StateDrifted         UnitState = "drifted"
	StateMissingExamples UnitState = "missing_examples"
)

// UnitStatus is one row of `scan`/`status` output.
type UnitStatus struct {
	Spec  vbspec.Spec
	State UnitState
}

// Scan discovers every decorated unit under SourceRoot, in the
// deterministic sorted-path order vbspec.Scan guarantees.
func (o *Orchestrator) Scan() ([]vbspec.Spec, error) {
	return vbspec.Scan(o.SourceRoot, o.Introspect)
}

// ScanStatus discovers every unit and classifies each against the
// Checkpoint Store's index.
func (o *Orchestrator) ScanStatus() ([]UnitStatus, error) {
	specs, err := o.Scan()
	if err != nil {
		return nil, err
	}

	statuses := make([]UnitStatus, len(specs))
	for i, spec := range specs {
		state, err := o.classify(spec)
		if err != nil {
			return nil, err
		}
		statuses[i] = UnitStatus{Spec: spec, State: state}
	}
	return statuses, nil
}

func (o *Orchestrator) classify(spec vbspec.Spec) (UnitState, error) {
	if len(spec.Examples) == 0 {
		return StateMissingExamples, nil
	}

	chk, active, err := o.Store.Active(spec.UnitID)
	if err != nil {
		return "", err
	}
	if !active {
		return StateUncompiled, nil
	}

	specHash, err := o.SpecHash(spec)
	if err != nil {
		return "", err
	}
	_, meta, err := o.Store.Read(spec.UnitID, chk)
	if err != nil {
		return "", err
	}
	if meta.SpecHash != specHash.String() {
		return StateDrifted, nil
	}
	return StateCompiledActive, nil
}

// FindSpec looks up a single unit by its exact unit_id among the
// project's scanned specs.
func (o *Orchestrator) FindSpec(unitID string) (vbspec.Spec, bool, error) {
	specs, err := o.Scan()
	if err != nil {
		return vbspec.Spec{}, false, err
	}
	for _, s := range specs {
		if s.UnitID == unitID {
			return s, true, nil
		}
	}
	return vbspec.Spec{}, false, nil
}
