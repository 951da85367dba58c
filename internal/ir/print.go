package ir

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// DumpOptions configures program dumping.
type DumpOptions struct {
	// Heading, when set, renders section titles (e.g. with lipgloss styles).
	Heading func(string) string
}

// DumpProgram writes a human-readable representation of a linearized program.
func DumpProgram(w io.Writer, p *Program, opts DumpOptions) error {
	if w == nil || p == nil {
		return nil
	}
	heading := opts.Heading
	if heading == nil {
		heading = func(s string) string { return s }
	}
	pw := &printer{w: w}

	pw.printf("%s\n", heading(fmt.Sprintf("targets=%d", len(p.Targets))))
	for _, t := range p.Targets {
		kind := "sprite"
		if t.IsStage {
			kind = "stage"
		}
		pw.printf("  %s %s state=%s\n", pad(t.Name, targetWidth(p)), kind, t.StateName)
	}

	pw.printf("%s\n", heading(fmt.Sprintf("variables=%d", len(p.Variables))))
	varWidth := 0
	for _, v := range p.Variables {
		varWidth = max(varWidth, runewidth.StringWidth(v.QualifiedName))
	}
	for _, v := range p.Variables {
		value := FormatNumber(v.Number)
		if v.IsString {
			value = fmt.Sprintf("%q", v.Value)
		}
		pw.printf("  %s = %s\n", pad(v.QualifiedName, varWidth), value)
	}

	pw.printf("%s\n", heading(fmt.Sprintf("blocks=%d max_level=%d", len(p.Blocks), p.MaxLevel())))
	entries := make(map[BlockID]bool, len(p.Entries))
	for _, e := range p.Entries {
		entries[e] = true
	}
	for i := range p.Blocks {
		b := &p.Blocks[i]
		var flags []string
		if entries[BlockID(i)] {
			flags = append(flags, "entry")
		}
		if b.TopLevel {
			flags = append(flags, "top")
		}
		pw.printf("  #%d %s %s level=%d max=%d", i, b.Name, b.Op, b.Level, b.MaxLevel)
		if len(flags) > 0 {
			pw.printf(" [%s]", strings.Join(flags, ","))
		}
		if b.Substack.IsValid() {
			pw.printf(" substack=#%d", b.Substack)
		}
		if b.Next.IsValid() {
			pw.printf(" next=#%d", b.Next)
		}
		pw.printf("\n")
		if len(b.Operand) > 0 {
			pw.printf("      operand -> %s\n", b.OperandResult())
			printHelpers(pw, b.Operand)
		}
		for _, op := range b.Inplace {
			pw.printf("      %s -> %s\n", op.Opcode, op.Effect)
			printHelpers(pw, op.Helpers)
		}
	}
	return pw.err
}

func printHelpers(pw *printer, helpers []Helper) {
	for _, h := range helpers {
		args := make([]string, len(h.Args))
		for i, a := range h.Args {
			args[i] = a.String()
		}
		op := h.Op.String()
		if h.Operator != "" {
			op += "." + h.Operator
		}
		pw.printf("        %s = %s(%s)\n", h.Name, op, strings.Join(args, ", "))
	}
}

func targetWidth(p *Program) int {
	width := 0
	for _, t := range p.Targets {
		width = max(width, runewidth.StringWidth(t.Name))
	}
	return width
}

// pad right-pads s to width display columns; sprite names may be CJK.
func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
