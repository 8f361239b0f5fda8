package vborchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vibesafe/vibesafe/internal/vbconfig"
	"github.com/vibesafe/vibesafe/internal/vbhash"
	"github.com/vibesafe/vibesafe/internal/vbprompt"
	"github.com/vibesafe/vibesafe/internal/vbprovider"
	"github.com/vibesafe/vibesafe/internal/vbspec"
	"github.com/vibesafe/vibesafe/internal/vbstore"
	"github.com/vibesafe/vibesafe/internal/vbvalidate"
)

// artifactExt is the extension validated artifacts are written under
//. vibesafe's reference Introspector
// targets Go, so generated code is always Go source.
const artifactExt = "go"

// Compile runs one unit through Extract(already done by the caller via
// Scan) -> Hash -> Prompt -> Provider (honouring cache unless force) ->
// Validate -> Store.write. The index is never touched here; activation is
// save's job (and, for dev-mode drift recovery, the regenerator's).
func (o *Orchestrator) Compile(ctx context.Context, unitID string, force bool) (vbhash.Digest, error) {
	spec, ok, err := o.FindSpec(unitID)
	if err != nil {
		return vbhash.Digest{}, err
	}
	if !ok {
		return vbhash.Digest{}, &TargetNotFoundError{Target: unitID}
	}
	return o.compileSpec(ctx, spec, force)
}

func (o *Orchestrator) compileSpec(ctx context.Context, spec vbspec.Spec, force bool) (vbhash.Digest, error) {
	specHash, err := o.SpecHash(spec)
	if err != nil {
		return vbhash.Digest{}, err
	}

	ref, pc, err := o.resolveProvider(spec)
	if err != nil {
		return vbhash.Digest{}, err
	}
	model, seed, temperature, maxTokens := effectiveModelParams(spec, pc)
	templateID := o.resolveTemplateID(spec)

	resolvedImports := make([]string, len(spec.DependencyDigest))
	for i, d := range spec.DependencyDigest {
		resolvedImports[i] = d.ResolvedPath
	}
	promptCtx := vbprompt.BuildContext(spec, resolvedImports)
	promptText, err := o.Renderer.Render(promptCtx, templateID)
	if err != nil {
		return vbhash.Digest{}, err
	}
	promptHash := vbhash.ComputePromptHash(promptText)

	provider, ok := o.Providers[ref]
	if !ok {
		return vbhash.Digest{}, &UnknownProviderError{ProviderRef: ref}
	}

	req := vbprovider.Request{
		UnitID:           spec.UnitID,
		PromptText:       promptText,
		ProviderIdentity: fmt.Sprintf("%s:%s", pc.Kind, model),
		Model:            model,
		Seed:             seed,
		Temperature:      temperature,
		MaxTokens:        maxTokens,
	}

	var resp vbprovider.Response
	if force {
		refresher, ok := provider.(vbprovider.Refresher)
		if !ok {
			return vbhash.Digest{}, fmt.Errorf("provider %q does not support --force", ref)
		}
		resp, err = refresher.Refresh(ctx, req)
	} else {
		resp, err = provider.Complete(ctx, req)
	}
	if err != nil {
		return vbhash.Digest{}, err
	}

	artifact := extractCodeBlock(resp.GeneratedText)

	if err := vbvalidate.Validate(spec, artifact, o.Introspect, o.ValidateCfg); err != nil {
		return vbhash.Digest{}, err
	}

	meta := vbstore.Meta{
		ToolVersion:    ToolVersion,
		Provider:       ref,
		PromptTemplate: templateID,
		Seed:           seed,
		Temperature:    temperature,
		Timestamp:      o.timestamp(),
	}
	if _, err := o.Store.Write(spec.UnitID, specHash, promptHash, artifact, meta, artifactExt); err != nil {
		return vbhash.Digest{}, err
	}

	implHash := vbhash.ComputeImplHash(artifact)
	chk := vbhash.ComputeCheckpointHash(specHash, promptHash, implHash)
	o.loader.Evict(spec.UnitID)
	return chk, nil
}

// ToolVersion is folded into every checkpoint's meta.toml for diagnostics
//.
const ToolVersion = "vibesafe/1"

// timestamp is a seam for deterministic testing; production code reads
// the wall clock exactly once per compile.
func (o *Orchestrator) timestamp() string {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return now().UTC().Format(time.RFC3339)
}

// extractCodeBlock returns the body of the first fenced code block in a
// provider response, or the whole trimmed response if it has none; prompts
// ask the model to respond with
// exactly one such block.
func extractCodeBlock(text string) []byte {
	const fence = "```"
	start := strings.Index(text, fence)
	if start < 0 {
		return []byte(strings.TrimSpace(text))
	}
	rest := text[start+len(fence):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Skip an optional language tag on the opening fence line (```go).
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, fence)
	if end < 0 {
		return []byte(strings.TrimSpace(rest))
	}
	return []byte(strings.TrimSpace(rest[:end]))
}

// CompileAll compiles every spec in specs with bounded parallelism, so
// compiling many units at once never opens an unbounded number of
// concurrent provider requests. Results are
// independent per unit; one unit's failure does not cancel the others'
// in-flight work, but is still reported back to the caller.
func (o *Orchestrator) CompileAll(ctx context.Context, specs []vbspec.Spec, force bool) ([]CompileResult, error) {
	results := make([]CompileResult, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(vbconfig.DefaultWorkerPoolSize)

	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			chk, err := o.compileSpec(gctx, spec, force)
			results[i] = CompileResult{UnitID: spec.UnitID, Checkpoint: chk, Err: err}
			return nil // independent results: never abort sibling units
		})
	}
	_ = g.Wait()

	return results, nil
}

// CompileResult is one unit's outcome from CompileAll.
type CompileResult struct {
	UnitID     string
	Checkpoint vbhash.Digest
	Err        error
}
