package vborchestrator

import (
	"context"

	"github.com/vibesafe/vibesafe/internal/vberrors"
	"github.com/vibesafe/vibesafe/internal/vbharness"
	"github.com/vibesafe/vibesafe/internal/vbstore"
)

// Save runs every gate against the unit's latest candidate
// and, only if all of them pass and the spec carries at least one
// Example, activates that checkpoint.
// When freezeHTTPDeps is set, the resolved dependency digest is pinned
// into the checkpoint's meta.toml [deps] table.
func (o *Orchestrator) Save(ctx context.Context, unitID string, freezeHTTPDeps bool) ([]vbharness.GateReport, error) {
	spec, ok, err := o.FindSpec(unitID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &TargetNotFoundError{Target: unitID}
	}

	if len(spec.Examples) == 0 {
		return nil, &vberrors.SpecError{
			Kind:   vberrors.MissingDoctest,
			UnitID: unitID,
			Detail: "save requires at least one doctest-derived example",
			Hint:   "add a doctest",
		}
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

	reports, err := vbharness.RunAll(ctx, spec, string(implBytes), o.Introspect, o.harnessConfig())
	if err != nil {
		return reports, err
	}

	if freezeHTTPDeps {
		pins := make([]vbstore.DepPin, len(spec.DependencyDigest))
		for i, d := range spec.DependencyDigest {
			pins[i] = vbstore.DepPin{Name: d.Name, ResolvedPath: d.ResolvedPath, ContentHash: d.ContentHash}
		}
		if err := o.Store.SetDeps(unitID, chk, pins); err != nil {
			return reports, err
		}
	}

	if err := o.Store.Activate(ctx, unitID, chk); err != nil {
		return reports, err
	}
	o.loader.Evict(unitID)
	return reports, nil
}
