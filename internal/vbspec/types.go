// Package vbspec implements the Spec Extractor: it turns a
// decorated stub written in the host language into a canonical, immutable
// Spec record.
//
// vibesafe recognizes stubs written as ordinary source comments preceding a
// function, following the shape:
//
//	// @vibesafe(kind="function", provider="default", template="prompts/function.tmpl")
//	//
//	// add_strs sums two decimal strings.
//	//
//	//	>>> add_strs("2", "3")
//	//	"5"
//	func add_strs(a string, b string) string {
//		aInt, bInt := mustAtoi(a), mustAtoi(b)
//		vibesafe.Hole()
//	}
//
// Extraction is purely textual (line scanning, no host-language grammar) so
// it stays agnostic to whatever language the Target Introspector (§6.6)
// eventually compiles and runs the generated implementation in.
package vbspec

// Kind enumerates the three unit shapes the spec supports.
type Kind string

const (
	KindFunction Kind = "function"
	KindHTTP     Kind = "http"
	KindCLI      Kind = "cli"
)

// Param is one entry of a Signature, in source order.
type Param struct {
	Name        string
	TypeText    string
	DefaultText string // empty if no default
}

// Signature is a unit's canonical parameter list plus return type.
type Signature struct {
	Params     []Param
	ReturnType string
}

// CanonicalText renders the signature the way it is hashed: comma-joined
// "name type_text[=default_text]" tokens, trailing " -> return_type".
func (s Signature) CanonicalText() string {
	out := "("
	for i, p := range s.Params {
		if i > 0 {
			out += ", "
		}
		out += p.Name + " " + p.TypeText
		if p.DefaultText != "" {
			out += "=" + p.DefaultText
		}
	}
	out += ") -> " + s.ReturnType
	return out
}

// Example is one doctest-derived example entry.
type Example struct {
	InputSource    string // expression text, evaluated in the unit's context
	ExpectedOutput string // verbatim expected text; whitespace significant
}

// DependencyRef is one resolved (or tombstoned) external reference found in
// the pre-hole source slice.
type DependencyRef struct {
	Name         string
	ResolvedPath string // "unresolved" tombstone path uses Unresolved below
	ContentHash  string
}

// Unresolved is the resolved_path/content_hash pair recorded for a
// dependency ref the Target Introspector could not resolve.
const Unresolved = "unresolved"

// Options holds per-unit overrides parsed from the @vibesafe(...) decorator
//.
type Options struct {
	Provider    string // provider_ref
	Template    string // template_ref, explicit override
	Model       string
	Seed        *int64
	Temperature *float64
	MaxTokens   *int
	Tags        []string // http only
	Method      string   // http only
	Path        string   // http only
	Headers     map[string]string
}

// SourceLocation is an opaque handle sufficient to re-read the source slice
// backing a Unit.
type SourceLocation struct {
	Path      string
	StartLine int // 1-indexed, inclusive: the @vibesafe(...) comment line
	EndLine   int // 1-indexed, inclusive: the closing brace of the function
}

// Spec is the canonical, immutable extraction of one Unit.
type Spec struct {
	UnitID           string
	Kind             Kind
	Signature        Signature
	Docstring        string // normalised: common indentation stripped, CRLF->LF
	Examples         []Example
	PreHoleSource    string // verbatim, up to (excluding) the sentinel statement
	ProviderRef      string
	TemplateRef      string
	Options          Options
	DependencyDigest []DependencyRef // sorted by Name
	SourceLocation   SourceLocation
}
