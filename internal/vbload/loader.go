// Package vbload implements the Runtime Loader: it
// resolves a unit_id to an executable artifact while enforcing
// RunMode-dependent spec/checkpoint integrity.
package vbload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vibesafe/vibesafe/internal/vbconfig"
	"github.com/vibesafe/vibesafe/internal/vberrors"
	"github.com/vibesafe/vibesafe/internal/vbhash"
	"github.com/vibesafe/vibesafe/internal/vbintrospect"
	"github.com/vibesafe/vibesafe/internal/vbinvariant"
	"github.com/vibesafe/vibesafe/internal/vbspec"
	"github.com/vibesafe/vibesafe/internal/vbstore"
)

// Compiler is the callback the Loader invokes to regenerate a checkpoint
// in dev mode. The Loader never imports the Orchestrator directly - that
// dependency would be circular, since the Orchestrator composes the
// Loader for its own Load method - so it is injected as this
// narrow interface instead.
type Compiler interface {
	Compile(ctx context.Context, unitID string, force bool) (vbhash.Digest, error)
}

// Warning is emitted by Load whenever dev mode observes drift and
// regenerates.
type Warning struct {
	UnitID  string
	OldHash vbhash.Digest
	NewHash vbhash.Digest
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: spec drifted (active checkpoint spec_hash %s, current %s) - regenerated", w.UnitID, w.OldHash, w.NewHash)
}

// Loader resolves unit_id -> callable artifact.
type Loader struct {
	store        *vbstore.Store
	mode         vbconfig.RunMode
	compiler     Compiler
	introspector vbintrospect.Introspector
	log          *slog.Logger

	mu        sync.Mutex
	memoCache map[memoKey]vbintrospect.Artifact
}

type memoKey struct {
	unitID string
	chk    string
}

// New constructs a Loader. compiler may be nil only in prod mode, since
// prod never generates.
func New(store *vbstore.Store, mode vbconfig.RunMode, compiler Compiler, introspector vbintrospect.Introspector, log *slog.Logger) *Loader {
	return &Loader{
		store:        store,
		mode:         mode,
		compiler:     compiler,
		introspector: introspector,
		log:          log,
		memoCache:    make(map[memoKey]vbintrospect.Artifact),
	}
}

// Load resolves spec.UnitID to an executable binding, recomputing H_spec
// from currentSpecHash (supplied by the caller, since only the caller -
// normally the Orchestrator - knows the full hashing context: provider
// identity, template id, dependency digest) and branching on RunMode
// exactly.
//
// In dev mode, a missing checkpoint or a spec_hash mismatch triggers a
// transparent recompile via the injected Compiler; the newly-activated
// checkpoint is then loaded and a Warning is returned alongside the
// artifact. In prod mode, the same conditions raise CheckpointMissing or
// HashMismatch and never execute any artifact.
func (l *Loader) Load(ctx context.Context, spec vbspec.Spec, currentSpecHash vbhash.Digest) (vbintrospect.Artifact, *Warning, error) {
	vbinvariant.Precondition(spec.UnitID != "", "Load: spec.UnitID must not be empty")
	unitID := spec.UnitID

	chk, active, err := l.store.Active(unitID)
	if err != nil {
		return nil, nil, err
	}

	var meta vbstore.Meta
	var driftDetected bool
	if active {
		var implBytes []byte
		implBytes, meta, err = l.store.Read(unitID, chk)
		if err != nil {
			return nil, nil, err
		}
		// meta.SpecHash was written by Store.Write as specHash.String() -
		// a fixed-length lowercase-hex Digest - so re-parsing it here is a
		// logic error to fail, not a user-facing storage condition.
		specHash, parseErr := vbhash.ParseDigest(meta.SpecHash)
		vbinvariant.ExpectNoError(parseErr, fmt.Sprintf("parsing this checkpoint's own meta.toml spec_hash %q", meta.SpecHash))
		driftDetected = specHash != currentSpecHash
		if !driftDetected {
			return l.loadArtifact(unitID, chk, implBytes)
		}
	}

	switch l.mode {
	case vbconfig.ModeProd:
		if !active {
			return nil, nil, &vberrors.IntegrityError{
				Kind:   vberrors.CheckpointMissing,
				UnitID: unitID,
				Hint:   "run `vibesafe compile && vibesafe save` for this unit outside of prod, then redeploy",
			}
		}
		oldHash, _ := vbhash.ParseDigest(meta.SpecHash)
		return nil, nil, &vberrors.IntegrityError{
			Kind:    vberrors.HashMismatch,
			UnitID:  unitID,
			OldHash: oldHash.String(),
			NewHash: currentSpecHash.String(),
			Hint:    "the spec changed since this checkpoint was activated; in prod this is never auto-regenerated",
		}

	case vbconfig.ModeDev:
		if l.compiler == nil {
			return nil, nil, fmt.Errorf("vbload: dev mode requires a Compiler, got nil for %s", unitID)
		}
		oldHash, _ := vbhash.ParseDigest(meta.SpecHash)
		newChk, err := l.compiler.Compile(ctx, unitID, false)
		if err != nil {
			return nil, nil, err
		}
		implBytes, _, err := l.store.Read(unitID, newChk)
		if err != nil {
			return nil, nil, err
		}
		artifact, _, err := l.loadArtifact(unitID, newChk, implBytes)
		if err != nil {
			return nil, nil, err
		}
		warning := &Warning{UnitID: unitID, OldHash: oldHash, NewHash: currentSpecHash}
		l.log.Warn("spec drift detected, regenerated", "unit_id", unitID, "old_spec_hash", oldHash.String(), "new_spec_hash", currentSpecHash.String())
		return artifact, warning, nil

	default:
		return nil, nil, fmt.Errorf("vbload: unknown run mode %q", l.mode)
	}
}

// loadArtifact loads implBytes through the Introspector and memoizes the
// result per (unit_id, H_chk) for the life of the process.
func (l *Loader) loadArtifact(unitID string, chk vbhash.Digest, implBytes []byte) (vbintrospect.Artifact, *Warning, error) {
	key := memoKey{unitID: unitID, chk: chk.String()}

	l.mu.Lock()
	if cached, ok := l.memoCache[key]; ok {
		l.mu.Unlock()
		return cached, nil, nil
	}
	l.mu.Unlock()

	unitName := unitID
	if idx := lastSlash(unitID); idx >= 0 {
		unitName = unitID[idx+1:]
	}

	artifact, err := l.introspector.LoadArtifact(unitName, string(implBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("loading artifact for %s: %w", unitID, err)
	}

	l.mu.Lock()
	l.memoCache[key] = artifact
	l.mu.Unlock()

	return artifact, nil, nil
}

// Evict drops any memoized artifact for unitID.
func (l *Loader) Evict(unitID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.memoCache {
		if key.unitID == unitID {
			delete(l.memoCache, key)
		}
	}
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
