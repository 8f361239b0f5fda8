// Package vbintrospect defines the Target Introspector port:
// the injected capability that knows how to resolve symbols, parse source,
// and load artifacts for whatever host language a unit's implementation is
// written in. The core never depends on a concrete host language - only on
// this interface - so hashing and orchestration stay stable across hosts.
//
// GoAdapter is the one concrete implementation vibesafe ships, built on
// stdlib go/parser and go/ast. It exists to make the pipeline runnable
// end-to-end in this repository's own tests and fixtures; a production
// deployment targeting another host language supplies its own adapter.
package vbintrospect

// ResolvedSymbol is what resolve_symbol returns on success.
type ResolvedSymbol struct {
	Path        string
	ContentHash string
}

// Artifact is an executable binding returned by load_artifact: a callable
// the Verification Harness can invoke with positional arguments and get a
// stringified result back.
type Artifact interface {
	// Call evaluates a doctest-style expression (e.g. `add_strs("2", "3")`)
	// against the loaded implementation and returns its stringified result.
	Call(exprSource string) (string, error)
}

// Introspector is the Target Introspector port.
type Introspector interface {
	// ResolveSymbol looks up name in context (typically a unit's pre-hole
	// source or import list). Returns ok=false if the name cannot be
	// resolved to an external module/value.
	ResolveSymbol(name, context string) (sym ResolvedSymbol, ok bool)

	// ParseSource checks that text is syntactically well-formed in the
	// target language, returning a parse error otherwise. The returned
	// value is opaque to callers outside this package.
	ParseSource(text string) (ast any, err error)

	// Symbols returns the names of top-level declarations ParseSource's
	// ast exposes (functions, types, vars - whatever the host language's
	// notion of "top-level symbol" is).
	Symbols(ast any) []string

	// Imports returns the top-level import paths declared in ast.
	Imports(ast any) []string

	// LoadArtifact compiles/loads validated source text and returns a
	// callable binding for the named unit.
	LoadArtifact(unitName, source string) (Artifact, error)

	// FuncSignatureText renders the named top-level function's parameter
	// list and return annotation in the same "(name type, ...) -> type"
	// shape vbspec.Signature.CanonicalText produces, so the Validator can
	// compare them byte-for-byte. ok is false if no
	// such function exists in ast.
	FuncSignatureText(ast any, name string) (text string, ok bool)
}
