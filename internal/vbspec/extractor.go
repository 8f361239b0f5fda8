package vbspec

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/vibesafe/vibesafe/internal/vberrors"
	"github.com/vibesafe/vibesafe/internal/vbintrospect"
)

// goBuiltins is the set of identifiers ignored when scanning the pre-hole
// slice for dependency references: Go keywords, predeclared identifiers,
// and operators that are never meaningful dependency references.
var goBuiltins = map[string]bool{
	"true": true, "false": true, "nil": true, "iota": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true, "string": true, "bool": true, "byte": true,
	"rune": true, "error": true, "any": true,
	"len": true, "cap": true, "make": true, "new": true, "append": true,
	"copy": true, "delete": true, "panic": true, "recover": true, "print": true,
	"println": true,
	"if": true, "else": true, "for": true, "range": true, "return": true,
	"switch": true, "case": true, "default": true, "break": true, "continue": true,
	"var": true, "const": true, "func": true, "go": true, "defer": true,
	"select": true, "struct": true, "interface": true, "map": true, "chan": true,
	"type": true, "package": true, "import": true,
}

var identifierRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// extractSpec turns one textual unit (already scanned into a rawUnit) and its
// enclosing module path into a canonical Spec.
func extractSpec(modulePath string, u rawUnit, introspector vbintrospect.Introspector) (Spec, error) {
	unitID := modulePath + "/" + u.name

	options, providerRef, templateRef, err := decodeOptions(unitID, u.rawOptions)
	if err != nil {
		return Spec{}, err
	}

	docstring := normalizeDocstring(strings.Join(u.docLines, "\n"))
	examples := parseExamples(docstring)

	preHole := strings.Join(u.preHoleLines, "\n")

	deps := resolveDependencies(preHole, u.params, introspector)

	return Spec{
		UnitID: unitID,
		Kind:   u.kind,
		Signature: Signature{
			Params:     u.params,
			ReturnType: collapseWhitespace(u.returnType),
		},
		Docstring:        docstring,
		Examples:         examples,
		PreHoleSource:    preHole,
		ProviderRef:      providerRef,
		TemplateRef:      templateRef,
		Options:          options,
		DependencyDigest: deps,
		SourceLocation: SourceLocation{
			StartLine: u.startLine,
			EndLine:   u.endLine,
		},
	}, nil
}

// resolveDependencies extracts external identifiers from the pre-hole
// source (excluding parameter names and Go builtins/keywords) and resolves
// each via the Target Introspector, producing a sorted DependencyDigest.
// Unresolvable names get a deterministic tombstone entry.
func resolveDependencies(preHole string, params []Param, introspector vbintrospect.Introspector) []DependencyRef {
	paramNames := make(map[string]bool, len(params))
	for _, p := range params {
		paramNames[p.Name] = true
	}

	seen := make(map[string]bool)
	var names []string
	for _, m := range identifierRe.FindAllString(preHole, -1) {
		if goBuiltins[m] || paramNames[m] || seen[m] {
			continue
		}
		seen[m] = true
		names = append(names, m)
	}
	sort.Strings(names)

	var refs []DependencyRef
	for _, name := range names {
		if introspector == nil {
			refs = append(refs, DependencyRef{Name: name, ResolvedPath: Unresolved})
			continue
		}
		if sym, ok := introspector.ResolveSymbol(name, preHole); ok {
			refs = append(refs, DependencyRef{Name: name, ResolvedPath: sym.Path, ContentHash: sym.ContentHash})
		} else {
			refs = append(refs, DependencyRef{Name: name, ResolvedPath: Unresolved})
		}
	}
	return refs
}

// decodeOptions validates the raw decorator argument map against the
// fixed vibesafe option vocabulary and decodes it into Options plus the
// resolved provider_ref/template_ref fields. Unknown keys are rejected
//.
func decodeOptions(unitID string, raw map[string]any) (Options, string, string, error) {
	known := map[string]bool{
		"kind": true, "provider": true, "template": true, "model": true,
		"seed": true, "temperature": true, "max_tokens": true,
		"tags": true, "method": true, "path": true,
	}
	for key := range raw {
		if !known[key] {
			return Options{}, "", "", &vberrors.SpecError{
				Kind:   vberrors.DecoratorOptionInvalid,
				UnitID: unitID,
				Detail: fmt.Sprintf("unknown decorator option %q", key),
				Hint:   "remove the option or check for a typo",
			}
		}
	}

	var opts Options
	if v, ok := raw["provider"].(string); ok {
		opts.Provider = v
	}
	if v, ok := raw["template"].(string); ok {
		opts.Template = v
	}
	if v, ok := raw["model"].(string); ok {
		opts.Model = v
	}
	if v, ok := raw["seed"].(int64); ok {
		opts.Seed = &v
	}
	if v, ok := raw["temperature"].(float64); ok {
		opts.Temperature = &v
	}
	if v, ok := raw["max_tokens"].(int64); ok {
		mt := int(v)
		opts.MaxTokens = &mt
	}
	if v, ok := raw["tags"].([]string); ok {
		opts.Tags = v
	}
	if v, ok := raw["method"].(string); ok {
		opts.Method = v
	}
	if v, ok := raw["path"].(string); ok {
		opts.Path = v
	}

	return opts, opts.Provider, opts.Template, nil
}

// ExtractUnit extracts the single unit named unitName from the source file
// at path.
func ExtractUnit(path, unitName string, introspector vbintrospect.Introspector) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("reading %s: %w", path, err)
	}
	raw, err := scanFile(string(data))
	if err != nil {
		return Spec{}, err
	}
	for _, u := range raw {
		if u.name == unitName {
			spec, err := extractSpec(modulePathFor(path), u, introspector)
			if err != nil {
				return Spec{}, err
			}
			spec.SourceLocation.Path = path
			return spec, nil
		}
	}
	return Spec{}, fmt.Errorf("unit %q not found in %s", unitName, path)
}

// Scan walks root for `.vibesafe` stub files in deterministic (sorted
// path) order and extracts every decorated unit it finds.
func Scan(root string, introspector vbintrospect.Introspector) ([]Spec, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(p, ".vibesafe") {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	sort.Strings(paths)

	var specs []Spec
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		raw, err := scanFile(string(data))
		if err != nil {
			return nil, err
		}
		modPath := modulePathFor(p)
		for _, u := range raw {
			spec, err := extractSpec(modPath, u, introspector)
			if err != nil {
				return nil, err
			}
			spec.SourceLocation.Path = p
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

// modulePathFor derives a unit_id's module.path component from a file path
// by stripping its extension and normalising to forward slashes.
func modulePathFor(path string) string {
	trimmed := strings.TrimSuffix(path, filepath.Ext(path))
	return filepath.ToSlash(trimmed)
}
