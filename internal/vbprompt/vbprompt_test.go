package vbprompt

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibesafe/vibesafe/internal/vberrors"
	"github.com/vibesafe/vibesafe/internal/vbspec"
)

func sampleSpec() vbspec.Spec {
	return vbspec.Spec{
		UnitID: "units/strings/add_strs",
		Kind:   vbspec.KindFunction,
		Signature: vbspec.Signature{
			Params:     []vbspec.Param{{Name: "a", TypeText: "string"}, {Name: "b", TypeText: "string"}},
			ReturnType: "string",
		},
		Docstring:     "add_strs sums two decimal strings.",
		Examples:      []vbspec.Example{{InputSource: `add_strs("2", "3")`, ExpectedOutput: `"5"`}},
		PreHoleSource: "aInt, bInt := mustAtoi(a), mustAtoi(b)",
	}
}

func TestResolveTemplateID_ExplicitOverrideWins(t *testing.T) {
	spec := sampleSpec()
	spec.TemplateRef = "prompts/custom.tmpl"
	defaults := KindDefaults{Function: "prompts/function.tmpl"}
	assert.Equal(t, "prompts/custom.tmpl", ResolveTemplateID(spec, defaults))
}

func TestResolveTemplateID_FallsBackToKindDefault(t *testing.T) {
	defaults := KindDefaults{Function: "prompts/function.tmpl", HTTP: "prompts/http_endpoint.tmpl", CLI: "prompts/cli_command.tmpl"}

	fn := sampleSpec()
	assert.Equal(t, "prompts/function.tmpl", ResolveTemplateID(fn, defaults))

	httpSpec := sampleSpec()
	httpSpec.Kind = vbspec.KindHTTP
	assert.Equal(t, "prompts/http_endpoint.tmpl", ResolveTemplateID(httpSpec, defaults))

	cliSpec := sampleSpec()
	cliSpec.Kind = vbspec.KindCLI
	assert.Equal(t, "prompts/cli_command.tmpl", ResolveTemplateID(cliSpec, defaults))
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"prompts/function.tmpl": {Data: []byte("Unit: {{.UnitID}}\nSig: {{.SignatureText}}\n{{range .Examples}}>>> {{.InputSource}}\n{{.ExpectedOutput}}\n{{end}}")},
		"prompts/broken.tmpl":    {Data: []byte("{{.Nope is not valid")},
	}
}

func TestRenderer_RenderIsDeterministic(t *testing.T) {
	r := NewRenderer(testFS())
	ctx := BuildContext(sampleSpec(), []string{"units/strings.go#mustAtoi"})

	out1, err := r.Render(ctx, "prompts/function.tmpl")
	require.NoError(t, err)
	out2, err := r.Render(ctx, "prompts/function.tmpl")
	require.NoError(t, err)

	assert.Equal(t, out1, out2)
	assert.Contains(t, out1, "units/strings/add_strs")
	assert.Contains(t, out1, `add_strs("2", "3")`)
}

func TestRenderer_TemplateNotFound(t *testing.T) {
	r := NewRenderer(testFS())
	_, err := r.Render(BuildContext(sampleSpec(), nil), "prompts/missing.tmpl")
	require.Error(t, err)

	var tmplErr *vberrors.TemplateError
	require.ErrorAs(t, err, &tmplErr)
	assert.Equal(t, vberrors.TemplateNotFound, tmplErr.Kind)
}

func TestRenderer_TemplateParseError(t *testing.T) {
	r := NewRenderer(testFS())
	_, err := r.Render(BuildContext(sampleSpec(), nil), "prompts/broken.tmpl")
	require.Error(t, err)

	var tmplErr *vberrors.TemplateError
	require.ErrorAs(t, err, &tmplErr)
	assert.Equal(t, vberrors.TemplateRenderError, tmplErr.Kind)
}

func TestBuildContext_ProjectsSpecFields(t *testing.T) {
	ctx := BuildContext(sampleSpec(), []string{"units/strings.go#mustAtoi"})
	assert.Equal(t, "units/strings/add_strs", ctx.UnitID)
	require.Len(t, ctx.Params, 2)
	assert.Equal(t, "a", ctx.Params[0].Name)
	require.Len(t, ctx.Examples, 1)
	assert.Equal(t, []string{"units/strings.go#mustAtoi"}, ctx.Imports)
}
