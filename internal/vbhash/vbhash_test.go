package vbhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseSpecInput() SpecInput {
	seed := int64(7)
	temp := 0.2
	maxTokens := 512
	return SpecInput{
		SignatureText:    `(a string, b string) -> string`,
		DocstringText:    "add_strs sums two decimal strings.",
		PreHoleSource:    "aInt, bInt := mustAtoi(a), mustAtoi(b)",
		TemplateID:       "prompts/function.tmpl",
		ProviderIdentity: "ollama:llama3",
		Seed:             &seed,
		Temperature:      &temp,
		MaxTokens:        &maxTokens,
		Dependencies: []DependencyInput{
			{Name: "mustAtoi", ResolvedPath: "units/strings.go#mustAtoi", ContentHash: "abc123"},
		},
	}
}

func TestComputeSpecHash_Deterministic(t *testing.T) {
	a, err := ComputeSpecHash(baseSpecInput())
	require.NoError(t, err)
	b, err := ComputeSpecHash(baseSpecInput())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.False(t, a.IsZero())
}

func TestComputeSpecHash_DependencyOrderInsensitive(t *testing.T) {
	in := baseSpecInput()
	in.Dependencies = []DependencyInput{
		{Name: "zeta", ResolvedPath: "units/z.go#zeta", ContentHash: "z"},
		{Name: "alpha", ResolvedPath: "units/a.go#alpha", ContentHash: "a"},
	}
	reordered := in
	reordered.Dependencies = []DependencyInput{
		{Name: "alpha", ResolvedPath: "units/a.go#alpha", ContentHash: "a"},
		{Name: "zeta", ResolvedPath: "units/z.go#zeta", ContentHash: "z"},
	}

	h1, err := ComputeSpecHash(in)
	require.NoError(t, err)
	h2, err := ComputeSpecHash(reordered)
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "dependency order must not affect the spec hash")
}

func TestComputeSpecHash_SensitiveToEachField(t *testing.T) {
	base, err := ComputeSpecHash(baseSpecInput())
	require.NoError(t, err)

	mutations := map[string]func(*SpecInput){
		"signature": func(s *SpecInput) { s.SignatureText = `(a string, b string, c string) -> string` },
		"docstring": func(s *SpecInput) { s.DocstringText = "different docstring" },
		"pre_hole":  func(s *SpecInput) { s.PreHoleSource = "x := 1" },
		"template":  func(s *SpecInput) { s.TemplateID = "prompts/other.tmpl" },
		"provider":  func(s *SpecInput) { s.ProviderIdentity = "openai:gpt-4" },
		"seed": func(s *SpecInput) {
			v := int64(99)
			s.Seed = &v
		},
		"seed_unset": func(s *SpecInput) { s.Seed = nil },
		"temperature": func(s *SpecInput) {
			v := 0.9
			s.Temperature = &v
		},
		"dependency_hash": func(s *SpecInput) { s.Dependencies[0].ContentHash = "different" },
		"dependency_name": func(s *SpecInput) { s.Dependencies[0].Name = "otherFn" },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			in := baseSpecInput()
			mutate(&in)
			h, err := ComputeSpecHash(in)
			require.NoError(t, err)
			assert.NotEqual(t, base, h, "mutation %q did not change the spec hash", name)
		})
	}
}

func TestComputeSpecHash_NoDependenciesUnresolved(t *testing.T) {
	in := baseSpecInput()
	in.Dependencies = []DependencyInput{
		{Name: "mustAtoi", ResolvedPath: "unresolved"},
	}
	h, err := ComputeSpecHash(in)
	require.NoError(t, err)
	assert.False(t, h.IsZero())
}

func TestComputePromptHash(t *testing.T) {
	a := ComputePromptHash("rendered prompt text")
	b := ComputePromptHash("rendered prompt text")
	c := ComputePromptHash("different prompt text")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestComputeImplHash(t *testing.T) {
	a := ComputeImplHash([]byte("func f() {}"))
	b := ComputeImplHash([]byte("func f() {}"))
	c := ComputeImplHash([]byte("func g() {}"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestComputeCheckpointHash_BindsAllThreeInputs(t *testing.T) {
	s1 := ComputePromptHash("spec-a")
	s2 := ComputePromptHash("spec-b")
	p1 := ComputePromptHash("prompt-a")
	p2 := ComputePromptHash("prompt-b")
	i1 := ComputeImplHash([]byte("impl-a"))
	i2 := ComputeImplHash([]byte("impl-b"))

	base := ComputeCheckpointHash(s1, p1, i1)
	assert.NotEqual(t, base, ComputeCheckpointHash(s2, p1, i1))
	assert.NotEqual(t, base, ComputeCheckpointHash(s1, p2, i1))
	assert.NotEqual(t, base, ComputeCheckpointHash(s1, p1, i2))
	assert.Equal(t, base, ComputeCheckpointHash(s1, p1, i1))
}

func TestDigest_StringAndParseRoundTrip(t *testing.T) {
	d := ComputePromptHash("round trip me")
	parsed, err := ParseDigest(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestDigest_ParseDigestRejectsInvalidHex(t *testing.T) {
	_, err := ParseDigest("not-hex")
	assert.Error(t, err)
}

func TestDigest_IsZero(t *testing.T) {
	var zero Digest
	assert.True(t, zero.IsZero())
	assert.False(t, ComputePromptHash("x").IsZero())
}
