package vborchestrator

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibesafe/vibesafe/internal/vbconfig"
	"github.com/vibesafe/vibesafe/internal/vberrors"
	"github.com/vibesafe/vibesafe/internal/vbintrospect"
	"github.com/vibesafe/vibesafe/internal/vbprovider"
)

const addStrsStub = `// @vibesafe(kind="function", provider="default")
//
// add_strs sums two decimal strings.
//
// >>> add_strs("2", "3")
// "5"
func add_strs(a string, b string) string {
	aTrim := strings.TrimSpace(a)
	_ = aTrim
	vibesafe.Hole()
}
`

const addStrsImpl = "Here is the implementation:\n```go\n" +
	`import "strconv"

func add_strs(a string, b string) string {
	ai, _ := strconv.Atoi(a)
	bi, _ := strconv.Atoi(b)
	return strconv.Itoa(ai + bi)
}` + "\n```\n"

// spyProvider counts transport calls so tests can observe whether the
// cache absorbed a completion.
type spyProvider struct {
	mu    sync.Mutex
	calls int
	text  string
}

func (s *spyProvider) Complete(ctx context.Context, req vbprovider.Request) (vbprovider.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return vbprovider.Response{GeneratedText: s.text}, nil
}

func (s *spyProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

const testTemplate = `Implement {{.UnitID}}.
Signature: {{.SignatureText}}
{{range .Examples}}>>> {{.InputSource}}
{{.ExpectedOutput}}
{{end}}Pre-hole:
{{.PreHoleSource}}
`

func newTestOrchestrator(t *testing.T, env, stub string) (*Orchestrator, *spyProvider, string) {
	t.Helper()
	root := t.TempDir()

	sourceDir := filepath.Join(root, "units")
	require.NoError(t, os.MkdirAll(sourceDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "strings.vibesafe"), []byte(stub), 0o644))

	promptsDir := filepath.Join(root, "prompts")
	require.NoError(t, os.MkdirAll(promptsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(promptsDir, "function.tmpl"), []byte(testTemplate), 0o644))

	cfg := &vbconfig.Config{
		Project: vbconfig.ProjectConfig{Env: env},
		Paths: vbconfig.PathsConfig{
			Checkpoints: ".vibesafe/checkpoints",
			Cache:       ".vibesafe/cache",
			Index:       ".vibesafe/index.toml",
		},
		Prompts: vbconfig.PromptsConfig{
			Function: "prompts/function.tmpl",
			HTTP:     "prompts/http_endpoint.tmpl",
			CLI:      "prompts/cli_command.tmpl",
		},
		Provider: map[string]vbconfig.ProviderConfig{
			"default": {Kind: "ollama", Model: "test-model"},
		},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	o, err := New(root, sourceDir, root, cfg, vbintrospect.NewGoAdapter(), log)
	require.NoError(t, err)
	// Ticking clock: successive checkpoints must get distinct timestamps
	// so "latest candidate" ordering is well defined.
	var tick int64
	var tickMu sync.Mutex
	o.Now = func() time.Time {
		tickMu.Lock()
		defer tickMu.Unlock()
		tick++
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(tick) * time.Second)
	}

	spy := &spyProvider{text: addStrsImpl}
	o.Providers["default"] = vbprovider.NewCachingProvider(spy, o.Store.CachePath())

	specs, err := o.Scan()
	require.NoError(t, err)
	require.Len(t, specs, 1)

	return o, spy, specs[0].UnitID
}

func rewriteStub(t *testing.T, o *Orchestrator, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(o.SourceRoot, "strings.vibesafe"), []byte(content), 0o644))
}

func TestPipeline_CompileTestSaveActivate(t *testing.T) {
	o, spy, unitID := newTestOrchestrator(t, "dev", addStrsStub)
	ctx := context.Background()

	chk, err := o.Compile(ctx, unitID, false)
	require.NoError(t, err)
	require.False(t, chk.IsZero())
	assert.Equal(t, 1, spy.callCount())

	reports, err := o.Test(ctx, unitID)
	require.NoError(t, err)
	require.NotEmpty(t, reports)
	for _, r := range reports {
		assert.True(t, r.Passed, "gate %s", r.Gate)
	}

	_, err = o.Save(ctx, unitID, false)
	require.NoError(t, err)

	active, ok, err := o.Store.Active(unitID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, chk, active)

	statuses, err := o.ScanStatus()
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, StateCompiledActive, statuses[0].State)

	artifact, warning, err := o.Load(ctx, unitID)
	require.NoError(t, err)
	require.Nil(t, warning)
	got, err := artifact.Call(`add_strs("2", "3")`)
	require.NoError(t, err)
	assert.Equal(t, `"5"`, got)
}

func TestCompile_WarmCacheMakesNoProviderCall(t *testing.T) {
	o, spy, unitID := newTestOrchestrator(t, "dev", addStrsStub)
	ctx := context.Background()

	chk1, err := o.Compile(ctx, unitID, false)
	require.NoError(t, err)
	chk2, err := o.Compile(ctx, unitID, false)
	require.NoError(t, err)

	assert.Equal(t, 1, spy.callCount())
	assert.Equal(t, chk1, chk2)
}

func TestCompile_ForceBypassesCache(t *testing.T) {
	o, spy, unitID := newTestOrchestrator(t, "dev", addStrsStub)
	ctx := context.Background()

	_, err := o.Compile(ctx, unitID, false)
	require.NoError(t, err)
	chk, err := o.Compile(ctx, unitID, true)
	require.NoError(t, err)

	assert.Equal(t, 2, spy.callCount())
	require.False(t, chk.IsZero())
}

const noExampleStub = `// @vibesafe(kind="function", provider="default")
//
// shout upcases a string.
func shout(a string) string {
	vibesafe.Hole()
}
`

const shoutImpl = "```go\n" +
	`import "strings"

func shout(a string) string {
	return strings.ToUpper(a)
}` + "\n```\n"

func TestSave_RequiresAtLeastOneExample(t *testing.T) {
	o, spy, unitID := newTestOrchestrator(t, "dev", noExampleStub)
	spy.text = shoutImpl
	ctx := context.Background()

	// Compiling an example-less unit is allowed in dev.
	_, err := o.Compile(ctx, unitID, false)
	require.NoError(t, err)

	_, err = o.Save(ctx, unitID, false)
	require.Error(t, err)
	var specErr *vberrors.SpecError
	require.ErrorAs(t, err, &specErr)
	assert.Equal(t, vberrors.MissingDoctest, specErr.Kind)

	_, ok, err := o.Store.Active(unitID)
	require.NoError(t, err)
	assert.False(t, ok, "a failed save must leave the index untouched")

	statuses, err := o.ScanStatus()
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, StateMissingExamples, statuses[0].State)
}

// driftedStub is addStrsStub with the expected output edited, changing
// the docstring and therefore H_spec.
const driftedStub = `// @vibesafe(kind="function", provider="default")
//
// add_strs sums two decimal strings.
//
// >>> add_strs("2", "3")
// "6"
func add_strs(a string, b string) string {
	aTrim := strings.TrimSpace(a)
	_ = aTrim
	vibesafe.Hole()
}
`

func compileAndSave(t *testing.T, o *Orchestrator, unitID string) {
	t.Helper()
	ctx := context.Background()
	_, err := o.Compile(ctx, unitID, false)
	require.NoError(t, err)
	_, err = o.Save(ctx, unitID, false)
	require.NoError(t, err)
}

func TestScanStatus_DetectsDrift(t *testing.T) {
	o, _, unitID := newTestOrchestrator(t, "dev", addStrsStub)
	compileAndSave(t, o, unitID)

	rewriteStub(t, o, driftedStub)

	statuses, err := o.ScanStatus()
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, StateDrifted, statuses[0].State)
}

func TestLoad_Prod_DriftFailsWithoutExecuting(t *testing.T) {
	o, _, unitID := newTestOrchestrator(t, "dev", addStrsStub)
	compileAndSave(t, o, unitID)

	rewriteStub(t, o, driftedStub)

	// Same store, prod mode: the activated checkpoint no longer matches.
	prodCfg := *o.Config
	prodCfg.Project.Env = "prod"
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	prod, err := New(o.Root, o.SourceRoot, o.Root, &prodCfg, vbintrospect.NewGoAdapter(), log)
	require.NoError(t, err)

	_, _, err = prod.Load(context.Background(), unitID)
	require.Error(t, err)
	var integrityErr *vberrors.IntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, vberrors.HashMismatch, integrityErr.Kind)
	assert.NotEqual(t, integrityErr.OldHash, integrityErr.NewHash)
}

func TestLoad_Dev_DriftRegeneratesAndActivates(t *testing.T) {
	o, spy, unitID := newTestOrchestrator(t, "dev", addStrsStub)
	compileAndSave(t, o, unitID)

	oldActive, ok, err := o.Store.Active(unitID)
	require.NoError(t, err)
	require.True(t, ok)

	// Drift the docstring but keep an example the canned impl satisfies.
	rewriteStub(t, o, `// @vibesafe(kind="function", provider="default")
//
// add_strs adds two base-10 strings together.
//
// >>> add_strs("4", "1")
// "5"
func add_strs(a string, b string) string {
	aTrim := strings.TrimSpace(a)
	_ = aTrim
	vibesafe.Hole()
}
`)

	artifact, warning, err := o.Load(context.Background(), unitID)
	require.NoError(t, err)
	require.NotNil(t, artifact)
	require.NotNil(t, warning)
	assert.NotEqual(t, warning.OldHash, warning.NewHash)
	require.Equal(t, 2, spy.callCount(), "regeneration goes back to the provider")

	newActive, ok, err := o.Store.Active(unitID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, oldActive, newActive)

	// Convergence: the newly activated checkpoint matches current source.
	statuses, err := o.ScanStatus()
	require.NoError(t, err)
	assert.Equal(t, StateCompiledActive, statuses[0].State)
}

func TestCheck_CleanThenDrifted(t *testing.T) {
	o, _, unitID := newTestOrchestrator(t, "dev", addStrsStub)
	compileAndSave(t, o, unitID)

	report, err := o.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Passed())

	rewriteStub(t, o, driftedStub)

	report, err = o.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Passed())
}

func TestDiff_CandidateBeforeSave(t *testing.T) {
	o, _, unitID := newTestOrchestrator(t, "dev", addStrsStub)
	ctx := context.Background()

	_, err := o.Compile(ctx, unitID, false)
	require.NoError(t, err)

	diff, err := o.Diff(unitID)
	require.NoError(t, err)
	assert.True(t, diff.SpecDrifted, "nothing active yet counts as drifted")
	assert.True(t, diff.HasCandidate)
	assert.NotEmpty(t, diff.CodeDiff)

	_, err = o.Save(ctx, unitID, false)
	require.NoError(t, err)

	diff, err = o.Diff(unitID)
	require.NoError(t, err)
	assert.False(t, diff.SpecDrifted)
	assert.False(t, diff.HasCandidate)
}

func TestSave_FreezeDepsRecordsPins(t *testing.T) {
	o, _, unitID := newTestOrchestrator(t, "dev", addStrsStub)
	ctx := context.Background()

	chk, err := o.Compile(ctx, unitID, false)
	require.NoError(t, err)
	_, err = o.Save(ctx, unitID, true)
	require.NoError(t, err)

	_, meta, err := o.Store.Read(unitID, chk)
	require.NoError(t, err)
	require.NotEmpty(t, meta.Deps)

	names := make(map[string]bool, len(meta.Deps))
	for _, pin := range meta.Deps {
		names[pin.Name] = true
	}
	assert.True(t, names["strings"], "pre-hole strings reference gets pinned")

	// Pins still matching the live digest produce no check warning.
	report, err := o.Check(ctx)
	require.NoError(t, err)
	for _, u := range report.Units {
		assert.Empty(t, u.PinWarning)
	}
}

func TestSpecHash_SensitiveToDocstringEdit(t *testing.T) {
	o, _, unitID := newTestOrchestrator(t, "dev", addStrsStub)

	spec, ok, err := o.FindSpec(unitID)
	require.NoError(t, err)
	require.True(t, ok)
	before, err := o.SpecHash(spec)
	require.NoError(t, err)

	rewriteStub(t, o, driftedStub)

	spec, ok, err = o.FindSpec(unitID)
	require.NoError(t, err)
	require.True(t, ok)
	after, err := o.SpecHash(spec)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestResolveTarget_ExactAndFuzzy(t *testing.T) {
	o, _, unitID := newTestOrchestrator(t, "dev", addStrsStub)
	specs, err := o.Scan()
	require.NoError(t, err)

	spec, err := ResolveTarget(specs, unitID)
	require.NoError(t, err)
	assert.Equal(t, unitID, spec.UnitID)

	_, err = ResolveTarget(specs, "add_str")
	require.Error(t, err)
	var notFound *TargetNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, unitID, notFound.Suggestion)
}

func TestExtractCodeBlock(t *testing.T) {
	fenced := "prose before\n```go\nfunc f() {}\n```\nprose after"
	assert.Equal(t, "func f() {}", string(extractCodeBlock(fenced)))

	bare := "  func g() {}\n"
	assert.Equal(t, "func g() {}", string(extractCodeBlock(bare)))

	unterminated := "```go\nfunc h() {}"
	assert.Equal(t, "func h() {}", string(extractCodeBlock(unterminated)))
}
