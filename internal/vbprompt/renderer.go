package vbprompt

import (
	"bytes"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"github.com/vibesafe/vibesafe/internal/vberrors"
)

// funcMap is deliberately small and side-effect-free: no "env", no "now",
// no randomness. Everything here is a pure string transform.
var funcMap = template.FuncMap{
	"join":   strings.Join,
	"indent": indentLines,
	"upper":  strings.ToUpper,
	"lower":  strings.ToLower,
}

func indentLines(prefix, text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// Renderer loads and caches parsed templates from an fs.FS root (normally
// the project's prompts/ directory).
type Renderer struct {
	fsys fs.FS

	mu        sync.Mutex
	templates map[string]*template.Template
}

// NewRenderer constructs a Renderer reading template files from fsys.
func NewRenderer(fsys fs.FS) *Renderer {
	return &Renderer{fsys: fsys, templates: make(map[string]*template.Template)}
}

// NewFileRenderer is a convenience constructor rooted at an OS directory.
func NewFileRenderer(root string) *Renderer {
	return NewRenderer(os.DirFS(root))
}

func (r *Renderer) load(templateID string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tmpl, ok := r.templates[templateID]; ok {
		return tmpl, nil
	}

	data, err := fs.ReadFile(r.fsys, templateID)
	if err != nil {
		return nil, &vberrors.TemplateError{
			Kind:       vberrors.TemplateNotFound,
			TemplateID: templateID,
			Detail:     err.Error(),
			Hint:       "check prompts.* paths in vibesafe.toml or the options.template override",
		}
	}

	tmpl, err := template.New(templateID).Funcs(funcMap).Option("missingkey=error").Parse(string(data))
	if err != nil {
		return nil, &vberrors.TemplateError{
			Kind:       vberrors.TemplateRenderError,
			TemplateID: templateID,
			Line:       extractLine(err),
			Detail:     err.Error(),
			Hint:       "fix the template syntax error at the reported line",
		}
	}

	r.templates[templateID] = tmpl
	return tmpl, nil
}

// Render renders ctx through the named template, returning the prompt
// text handed to the Provider Client. templateID is resolved by the
// caller via ResolveTemplateID before calling Render.
func (r *Renderer) Render(ctx Context, templateID string) (string, error) {
	tmpl, err := r.load(templateID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", &vberrors.TemplateError{
			Kind:       vberrors.TemplateRenderError,
			TemplateID: templateID,
			UnitID:     ctx.UnitID,
			Line:       extractLine(err),
			Detail:     err.Error(),
			Hint:       "the template references a field the context does not provide",
		}
	}
	return buf.String(), nil
}

var templateErrLineRe = regexp.MustCompile(`:(\d+):`)

// extractLine best-effort parses the line number text/template embeds in
// its own error messages ("template: name:LINE: ...").
func extractLine(err error) int {
	m := templateErrLineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0
	}
	return n
}
