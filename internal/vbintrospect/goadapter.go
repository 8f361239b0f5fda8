package vbintrospect

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// GoAdapter is the reference Target Introspector for Go-flavoured units. It
// parses with stdlib go/parser and loads artifacts with the Yaegi
// interpreter (github.com/traefik/yaegi) rather than shelling out to the Go
// toolchain, so validated checkpoints can be loaded and doctest-evaluated
// in-process - the same sandboxed-interpreter shape used for tool
// execution elsewhere in the example corpus.
//
// allowedImports mirrors that corpus's stdlib allowlist: ResolveSymbol
// resolves only these safe, side-effect-light packages, and os/exec, net,
// and syscall are not among them. The Validator's
// allowed_unresolved_imports can still exempt an import from that check,
// and LoadArtifact seeds its interpreter with the full stdlib symbol table.
type GoAdapter struct {
	allowedImports map[string]bool
}

// NewGoAdapter constructs a GoAdapter with a conservative stdlib allowlist.
func NewGoAdapter() *GoAdapter {
	return &GoAdapter{
		allowedImports: map[string]bool{
			"strings":         true,
			"strconv":         true,
			"fmt":             true,
			"math":            true,
			"regexp":          true,
			"encoding/json":   true,
			"encoding/base64": true,
			"time":            true,
			"sort":            true,
			"bytes":           true,
			"errors":          true,
			"unicode":         true,
		},
	}
}

// goAST wraps the parsed file alongside its fileset, since go/ast nodes are
// only meaningful with the token.FileSet that produced them.
type goAST struct {
	file *ast.File
	fset *token.FileSet
}

// ParseSource parses text as the body of a single Go source file. Callers
// pass validated artifact bodies (a sequence of top-level declarations);
// ParseSource wraps them in a synthetic `package main` so go/parser can
// accept bare declarations.
func (a *GoAdapter) ParseSource(text string) (any, error) {
	fset := token.NewFileSet()
	wrapped := "package main\n\n" + text
	file, err := parser.ParseFile(fset, "artifact.go", wrapped, parser.AllErrors)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return &goAST{file: file, fset: fset}, nil
}

// Symbols returns the names of top-level func/type/var/const declarations.
func (a *GoAdapter) Symbols(tree any) []string {
	g, ok := tree.(*goAST)
	if !ok {
		return nil
	}
	var names []string
	for _, decl := range g.file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				names = append(names, d.Name.Name)
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.ValueSpec:
					for _, ident := range s.Names {
						names = append(names, ident.Name)
					}
				case *ast.TypeSpec:
					names = append(names, s.Name.Name)
				}
			}
		}
	}
	return names
}

// Imports returns the import paths declared in tree.
func (a *GoAdapter) Imports(tree any) []string {
	g, ok := tree.(*goAST)
	if !ok {
		return nil
	}
	var paths []string
	for _, imp := range g.file.Imports {
		paths = append(paths, strings.Trim(imp.Path.Value, `"`))
	}
	return paths
}

// ResolveSymbol resolves name against the adapter's stdlib allowlist. This
// is a deliberately small stand-in for a real cross-module symbol
// resolver: production deployments targeting a real host language supply
// their own Introspector wired to that language's module system.
func (a *GoAdapter) ResolveSymbol(name, context string) (ResolvedSymbol, bool) {
	if !a.allowedImports[name] {
		return ResolvedSymbol{}, false
	}
	sum := sha256.Sum256([]byte(name))
	return ResolvedSymbol{
		Path:        "stdlib:" + name,
		ContentHash: hex.EncodeToString(sum[:]),
	}, true
}

// FuncSignatureText renders name's parameter list and return annotation
// in vbspec's canonical "(name type, ...) -> type" shape.
func (a *GoAdapter) FuncSignatureText(tree any, name string) (string, bool) {
	g, ok := tree.(*goAST)
	if !ok {
		return "", false
	}
	for _, decl := range g.file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || fn.Name.Name != name {
			continue
		}
		return formatFuncSignature(fn), true
	}
	return "", false
}

func formatFuncSignature(fn *ast.FuncDecl) string {
	var params []string
	if fn.Type.Params != nil {
		for _, field := range fn.Type.Params.List {
			typeText := types.ExprString(field.Type)
			if len(field.Names) == 0 {
				params = append(params, typeText)
				continue
			}
			for _, n := range field.Names {
				params = append(params, n.Name+" "+typeText)
			}
		}
	}

	var returns []string
	if fn.Type.Results != nil {
		for _, field := range fn.Type.Results.List {
			typeText := types.ExprString(field.Type)
			if len(field.Names) == 0 {
				returns = append(returns, typeText)
				continue
			}
			for range field.Names {
				returns = append(returns, typeText)
			}
		}
	}

	return "(" + strings.Join(params, ", ") + ") -> " + strings.Join(returns, ", ")
}

// goArtifact is an Artifact backed by a live Yaegi interpreter with the
// unit's validated declarations already evaluated into it.
type goArtifact struct {
	interp *interp.Interpreter
}

// LoadArtifact evaluates source (the unit's validated top-level
// declarations, wrapped in `package main`) into a fresh Yaegi interpreter
// seeded with the stdlib symbol table, and returns a callable Artifact.
func (a *GoAdapter) LoadArtifact(unitName, source string) (Artifact, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib symbols: %w", err)
	}

	wrapped := "package main\n\n" + source
	if _, err := i.Eval(wrapped); err != nil {
		return nil, fmt.Errorf("evaluating artifact for %s: %w", unitName, err)
	}

	return &goArtifact{interp: i}, nil
}

// Call evaluates exprSource (e.g. `add_strs("2", "3")`) in the artifact's
// interpreter and renders the result with Go %#v formatting, which is what
// vibesafe's doctest fixtures compare byte-exact against.
func (g *goArtifact) Call(exprSource string) (string, error) {
	qualified := "main." + exprSource
	res, err := g.interp.Eval(qualified)
	if err != nil {
		return "", fmt.Errorf("evaluating %q: %w", exprSource, err)
	}
	if !res.IsValid() {
		return "", nil
	}
	return fmt.Sprintf("%#v", res.Interface()), nil
}
