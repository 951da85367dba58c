package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// FormatOptions controls how diagnostics are rendered.
type FormatOptions struct {
	Color bool
}

var (
	sevErrorColor   = color.New(color.FgRed, color.Bold)
	sevWarningColor = color.New(color.FgYellow, color.Bold)
	sevInfoColor    = color.New(color.FgCyan)
	codeColor       = color.New(color.Bold)
	locationColor   = color.New(color.Faint)
)

func severityColor(s Severity) *color.Color {
	switch s {
	case SevError:
		return sevErrorColor
	case SevWarning:
		return sevWarningColor
	default:
		return sevInfoColor
	}
}

// Format writes one diagnostic as
//
//	ERROR LOW2001: Unsupported opcode: looks_say
//	  --> clock.sb3, target Sprite1, block a1, opcode looks_say
func Format(w io.Writer, d Diagnostic, opts FormatOptions) {
	sev := d.Severity.String()
	code := d.Code.ID()
	loc := d.Where.String()
	if opts.Color {
		sev = severityColor(d.Severity).Sprint(sev)
		code = codeColor.Sprint(code)
		if loc != "" {
			loc = locationColor.Sprint(loc)
		}
	}
	fmt.Fprintf(w, "%s %s: %s\n", sev, code, d.Message)
	if loc != "" {
		fmt.Fprintf(w, "  --> %s\n", loc)
	}
}

// FormatBag writes every diagnostic of the bag in its current order.
func FormatBag(w io.Writer, b *Bag, opts FormatOptions) {
	if b == nil {
		return
	}
	for _, d := range b.Items() {
		Format(w, d, opts)
	}
}
