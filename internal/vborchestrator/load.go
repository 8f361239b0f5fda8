package vborchestrator

import (
	"context"

	"github.com/vibesafe/vibesafe/internal/vbhash"
	"github.com/vibesafe/vibesafe/internal/vbintrospect"
	"github.com/vibesafe/vibesafe/internal/vbload"
)

// Load resolves unitID to an executable binding under the project's
// RunMode. In prod a missing checkpoint or drifted spec fails with an
// IntegrityError before any artifact is executed; in dev the same
// conditions trigger a transparent compile -> verify -> activate cycle,
// and the returned Warning carries both spec hashes.
func (o *Orchestrator) Load(ctx context.Context, unitID string) (vbintrospect.Artifact, *vbload.Warning, error) {
	spec, ok, err := o.FindSpec(unitID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, &TargetNotFoundError{Target: unitID}
	}

	specHash, err := o.SpecHash(spec)
	if err != nil {
		return nil, nil, err
	}
	return o.loader.Load(ctx, spec, specHash)
}

// regenerator adapts the Orchestrator to vbload.Compiler. Dev-mode drift
// recovery must leave behind an *activated* checkpoint whose spec_hash
// matches the current source, so regeneration is compile + gates +
// activate, not compile alone (compile never touches the index).
type regenerator struct {
	o *Orchestrator
}

func (r regenerator) Compile(ctx context.Context, unitID string, force bool) (vbhash.Digest, error) {
	chk, err := r.o.Compile(ctx, unitID, force)
	if err != nil {
		return vbhash.Digest{}, err
	}
	if _, err := r.o.Save(ctx, unitID, false); err != nil {
		return vbhash.Digest{}, err
	}
	return chk, nil
}
