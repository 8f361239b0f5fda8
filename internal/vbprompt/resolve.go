package vbprompt

import "github.com/vibesafe/vibesafe/internal/vbspec"

// KindDefaults maps a unit kind to its default template id, normally
// sourced from vbconfig.PromptsConfig.
type KindDefaults struct {
	Function string
	HTTP     string
	CLI      string
}

// ResolveTemplateID applies the template precedence rule: an explicit
// options.template_ref always wins over the kind default.
func ResolveTemplateID(spec vbspec.Spec, defaults KindDefaults) string {
	if spec.TemplateRef != "" {
		return spec.TemplateRef
	}
	switch spec.Kind {
	case vbspec.KindHTTP:
		return defaults.HTTP
	case vbspec.KindCLI:
		return defaults.CLI
	default:
		return defaults.Function
	}
}
