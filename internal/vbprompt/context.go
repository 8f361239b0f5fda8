// Package vbprompt implements the Prompt Renderer: it turns
// a Spec plus a resolved template id into a deterministic prompt string.
package vbprompt

import "github.com/vibesafe/vibesafe/internal/vbspec"

// ParamContext is one parameter as exposed to a template.
type ParamContext struct {
	Name        string
	TypeText    string
	DefaultText string
}

// ExampleContext is one doctest-derived example as exposed to a template.
type ExampleContext struct {
	InputSource    string
	ExpectedOutput string
}

// Context is the full template input for one unit: unit id, signature,
// params (structured), return type text, docstring, list of examples,
// pre-hole source, resolved imports, and declared options. Nothing
// in Context is computed from wall-clock time, randomness, or the
// environment, so rendering the same Context through the same template
// always produces the same bytes.
type Context struct {
	UnitID        string
	Kind          string
	SignatureText string
	Params        []ParamContext
	ReturnType    string
	Docstring     string
	Examples      []ExampleContext
	PreHoleSource string
	Imports       []string
	ProviderModel string
	Tags          []string
	Method        string // http only
	Path          string // http only
}

// BuildContext projects a vbspec.Spec (plus the dependency names the
// Target Introspector resolved) into a Context. This is the one place
// that couples vbprompt to vbspec's concrete shape.
func BuildContext(spec vbspec.Spec, resolvedImports []string) Context {
	params := make([]ParamContext, len(spec.Signature.Params))
	for i, p := range spec.Signature.Params {
		params[i] = ParamContext{Name: p.Name, TypeText: p.TypeText, DefaultText: p.DefaultText}
	}
	examples := make([]ExampleContext, len(spec.Examples))
	for i, e := range spec.Examples {
		examples[i] = ExampleContext{InputSource: e.InputSource, ExpectedOutput: e.ExpectedOutput}
	}
	return Context{
		UnitID:        spec.UnitID,
		Kind:          string(spec.Kind),
		SignatureText: spec.Signature.CanonicalText(),
		Params:        params,
		ReturnType:    spec.Signature.ReturnType,
		Docstring:     spec.Docstring,
		Examples:      examples,
		PreHoleSource: spec.PreHoleSource,
		Imports:       resolvedImports,
		ProviderModel: spec.Options.Model,
		Tags:          spec.Options.Tags,
		Method:        spec.Options.Method,
		Path:          spec.Options.Path,
	}
}
