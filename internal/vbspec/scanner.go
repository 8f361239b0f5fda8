package vbspec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vibesafe/vibesafe/internal/vberrors"
)

// Sentinel is the distinguished marker statement that delimits the
// pre-hole source slice. The Extractor only
// checks its name; what the host runtime does with it at execution time
// is outside the core's concern (§6.6).
const Sentinel = "vibesafe.Hole()"

var (
	decoratorLineRe = regexp.MustCompile(`^\s*//\s*@vibesafe\((.*)\)\s*$`)
	commentLineRe   = regexp.MustCompile(`^\s*//\s?(.*)$`)
	funcLineRe      = regexp.MustCompile(`^\s*func\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)\s*(.*?)\s*\{\s*$`)
)

// rawUnit is the textual scan result for one decorated stub, prior to
// canonicalisation into a Spec.
type rawUnit struct {
	name           string
	kind           Kind
	rawOptions     map[string]any
	docLines       []string
	signatureLine  string
	params         []Param
	returnType     string
	bodyLines      []string
	preHoleLines   []string
	sentinelFound  bool
	startLine      int
	endLine        int
}

// scanFile scans raw source text for every `@vibesafe(...)`-decorated stub
// it contains, in source order.
func scanFile(source string) ([]rawUnit, error) {
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")

	var units []rawUnit
	i := 0
	for i < len(lines) {
		m := decoratorLineRe.FindStringSubmatch(lines[i])
		if m == nil {
			i++
			continue
		}
		startLine := i + 1
		rawOptions, err := parseDecoratorArgs(m[1])
		if err != nil {
			return nil, &vberrors.SpecError{
				Kind:   vberrors.DecoratorOptionInvalid,
				Detail: fmt.Sprintf("line %d: %v", startLine, err),
				Hint:   "check the @vibesafe(...) argument syntax",
			}
		}
		i++

		var docLines []string
		for i < len(lines) {
			cm := commentLineRe.FindStringSubmatch(lines[i])
			if cm == nil {
				break
			}
			docLines = append(docLines, cm[1])
			i++
		}

		if i >= len(lines) {
			return nil, &vberrors.SpecError{
				Kind:   vberrors.InvalidSignature,
				Detail: fmt.Sprintf("decorator at line %d has no following function", startLine),
				Hint:   "place a func declaration directly after the docstring comments",
			}
		}

		fm := funcLineRe.FindStringSubmatch(lines[i])
		if fm == nil {
			return nil, &vberrors.SpecError{
				Kind:   vberrors.InvalidSignature,
				Detail: fmt.Sprintf("line %d: expected a func declaration, got %q", i+1, lines[i]),
				Hint:   "signature must look like `func name(a T, b U) R {`",
			}
		}
		name, paramText, returnType := fm[1], fm[2], fm[3]
		params, err := parseParams(paramText)
		if err != nil {
			return nil, &vberrors.SpecError{
				Kind:   vberrors.InvalidSignature,
				Detail: fmt.Sprintf("line %d: %v", i+1, err),
				Hint:   "parameters must be `name type[=default]` pairs",
			}
		}
		if returnType == "" {
			return nil, &vberrors.SpecError{
				Kind:   vberrors.InvalidSignature,
				Detail: fmt.Sprintf("line %d: missing return type", i+1),
				Hint:   "declare an explicit return type, e.g. `func f(a T) R {`",
			}
		}
		funcLine := i
		i++

		var bodyLines []string
		var preHoleLines []string
		sentinelFound := false
		depth := 1
		for i < len(lines) {
			line := lines[i]
			if !sentinelFound {
				if strings.Contains(line, Sentinel) {
					sentinelFound = true
				} else {
					preHoleLines = append(preHoleLines, line)
				}
			}
			bodyLines = append(bodyLines, line)
			depth += strings.Count(line, "{") - strings.Count(line, "}")
			i++
			if depth <= 0 {
				break
			}
		}
		if !sentinelFound {
			return nil, &vberrors.SpecError{
				Kind:   vberrors.SentinelMissing,
				UnitID: name,
				Detail: fmt.Sprintf("no %q statement found in body of %s", Sentinel, name),
				Hint:   fmt.Sprintf("add `%s` where the generated implementation should be spliced in", Sentinel),
			}
		}

		kind := KindFunction
		if k, ok := rawOptions["kind"].(string); ok {
			kind = Kind(k)
		}

		units = append(units, rawUnit{
			name:          name,
			kind:          kind,
			rawOptions:    rawOptions,
			docLines:      docLines,
			signatureLine: lines[funcLine],
			params:        params,
			returnType:    returnType,
			bodyLines:     bodyLines,
			preHoleLines:  preHoleLines,
			sentinelFound: sentinelFound,
			startLine:     startLine,
			endLine:       i,
		})
	}

	return units, nil
}

// parseParams parses a `(a T, b U=default)`-style parameter list body
// into an ordered list of (name, type_text, default_text?) triples.
func parseParams(body string) ([]Param, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil
	}
	var params []Param
	for _, raw := range splitTopLevel(body) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		var defaultText string
		if eq := strings.IndexByte(raw, '='); eq >= 0 {
			defaultText = strings.TrimSpace(raw[eq+1:])
			raw = strings.TrimSpace(raw[:eq])
		}
		fields := strings.Fields(raw)
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed parameter %q", raw)
		}
		params = append(params, Param{
			Name:        fields[0],
			TypeText:    collapseWhitespace(strings.Join(fields[1:], " ")),
			DefaultText: defaultText,
		})
	}
	return params, nil
}

// collapseWhitespace collapses runs of insignificant whitespace to a
// single space, preserving individual tokens.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
