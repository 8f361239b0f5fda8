package vbdisplay

import (
	"fmt"
	"io"

	"github.com/vibesafe/vibesafe/internal/vberrors"
)

// FormatError writes a human-readable, optionally colorized rendering of
// err to w. Known vibesafe error kinds get a remediation hint line;
// anything else falls back to a plain "Error: ..." line.
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	switch e := err.(type) {
	case *vberrors.SpecError:
		printError(w, useColor, string(e.Kind), e.UnitID, e.Detail, e.Hint)
	case *vberrors.TemplateError:
		printError(w, useColor, string(e.Kind), e.TemplateID, e.Detail, e.Hint)
	case *vberrors.ProviderError:
		printError(w, useColor, string(e.Category), e.UnitID, e.Detail, e.Hint)
	case *vberrors.ValidationError:
		printError(w, useColor, string(e.Kind), e.UnitID, e.Detail, e.Hint)
	case *vberrors.GateFailure:
		printError(w, useColor, string(e.Category), e.UnitID, e.Detail, e.Hint)
	case *vberrors.StorageError:
		printError(w, useColor, string(e.Kind), e.UnitID, e.Detail, e.Hint)
	case *vberrors.IntegrityError:
		printError(w, useColor, string(e.Kind), e.UnitID, err.Error(), e.Hint)
	case *vberrors.ConfigError:
		printError(w, useColor, string(e.Kind), e.Field, e.Detail, e.Hint)
	default:
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
	}
}

func printError(w io.Writer, useColor bool, kind, subject, detail, hint string) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), detail)
	if subject != "" {
		_, _ = fmt.Fprintf(w, "  unit: %s  kind: %s\n", subject, Colorize(kind, ColorGray, useColor))
	}
	if hint != "" {
		_, _ = fmt.Fprintf(w, "  %s %s\n", Colorize("Hint:", ColorYellow, useColor), hint)
	}
}
