package vborchestrator

import (
	"fmt"

	"github.com/vibesafe/vibesafe/internal/vbconfig"
	"github.com/vibesafe/vibesafe/internal/vbhash"
	"github.com/vibesafe/vibesafe/internal/vbprompt"
	"github.com/vibesafe/vibesafe/internal/vbspec"
)

// resolveProvider looks up a Spec's provider_ref (falling back to
// "default") in Config.Provider, returning an error if it is not
// configured. Unit tests may override this through Config.Provider
// directly without touching the network-facing Providers map.
func (o *Orchestrator) resolveProvider(spec vbspec.Spec) (string, vbconfig.ProviderConfig, error) {
	ref := spec.ProviderRef
	if ref == "" {
		ref = "default"
	}
	pc, ok := o.Config.Provider[ref]
	if !ok {
		return "", vbconfig.ProviderConfig{}, &UnknownProviderError{ProviderRef: ref}
	}
	return ref, pc, nil
}

// effectiveModelParams applies a Spec's per-unit overrides over the provider's configured defaults.
func effectiveModelParams(spec vbspec.Spec, pc vbconfig.ProviderConfig) (model string, seed *int64, temperature *float64, maxTokens *int) {
	model = pc.Model
	if spec.Options.Model != "" {
		model = spec.Options.Model
	}
	seed = spec.Options.Seed
	if seed == nil && pc.Seed != 0 {
		s := pc.Seed
		seed = &s
	}
	temperature = spec.Options.Temperature
	if temperature == nil {
		t := pc.Temperature
		temperature = &t
	}
	maxTokens = spec.Options.MaxTokens
	if maxTokens == nil && pc.MaxTokens != 0 {
		mt := pc.MaxTokens
		maxTokens = &mt
	}
	return model, seed, temperature, maxTokens
}

// resolveTemplateID applies the template precedence rule using the
// project's configured per-kind defaults.
func (o *Orchestrator) resolveTemplateID(spec vbspec.Spec) string {
	return vbprompt.ResolveTemplateID(spec, vbprompt.KindDefaults{
		Function: o.Config.Prompts.Function,
		HTTP:     o.Config.Prompts.HTTP,
		CLI:      o.Config.Prompts.CLI,
	})
}

// SpecHash computes H_spec for spec under the project's current
// configuration: the enumerated inputs are signature,
// docstring, pre-hole source, template id, provider identity, the
// deterministic provider parameters, and the dependency digest.
func (o *Orchestrator) SpecHash(spec vbspec.Spec) (vbhash.Digest, error) {
	_, pc, err := o.resolveProvider(spec)
	if err != nil {
		return vbhash.Digest{}, err
	}
	model, seed, temperature, maxTokens := effectiveModelParams(spec, pc)
	templateID := o.resolveTemplateID(spec)

	deps := make([]vbhash.DependencyInput, len(spec.DependencyDigest))
	for i, d := range spec.DependencyDigest {
		deps[i] = vbhash.DependencyInput{Name: d.Name, ResolvedPath: d.ResolvedPath, ContentHash: d.ContentHash}
	}

	return vbhash.ComputeSpecHash(vbhash.SpecInput{
		SignatureText:    spec.Signature.CanonicalText(),
		DocstringText:    spec.Docstring,
		PreHoleSource:    spec.PreHoleSource,
		TemplateID:       templateID,
		ProviderIdentity: fmt.Sprintf("%s:%s", pc.Kind, model),
		Seed:             seed,
		Temperature:      temperature,
		MaxTokens:        maxTokens,
		Dependencies:     deps,
	})
}
