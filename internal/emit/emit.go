// Package emit renders a linearized program as a C header and source pair.
//
// The source holds one static ScratchVariable per resolved variable, one
// ScratchBlock per block, one static function per helper, a function per
// merged-run block calling each primitive's effect, and Scratch_Init wiring
// the blocks together. A small scheduler steps every top-level script from
// Scratch_Advance.
package emit

import (
	"fmt"
	"path/filepath"
	"strings"

	"scratchc/internal/diag"
	"scratchc/internal/ir"
)

// Options configures code generation.
type Options struct {
	// Stem names the output pair: <stem>.h and <stem>.c.
	Stem string
}

// Files is the generated header and source.
type Files struct {
	HeaderName string
	SourceName string
	Header     string
	Source     string
}

// Emitter accumulates the C text of one program.
type Emitter struct {
	prog   *ir.Program
	header string
	states map[string]string // target name -> sprite state variable
	buf    strings.Builder
}

// C generates the header and source for prog.
func C(prog *ir.Program, opts Options) (*Files, error) {
	if prog == nil {
		return nil, diag.Errorf(diag.EmitFailure, diag.Location{}, "nothing to emit")
	}
	stem := opts.Stem
	if stem == "" {
		stem = "scratch_program"
	}
	files := &Files{
		HeaderName: stem + ".h",
		SourceName: stem + ".c",
		Header:     headerText,
	}
	e := &Emitter{
		prog:   prog,
		header: filepath.Base(files.HeaderName),
		states: make(map[string]string, len(prog.Targets)),
	}
	for _, t := range prog.Targets {
		e.states[t.Name] = t.StateName
	}
	if err := e.emitSource(); err != nil {
		return nil, err
	}
	files.Source = e.buf.String()
	return files, nil
}

func (e *Emitter) emitSource() error {
	e.emitPreamble()
	e.emitStorage()
	if err := e.emitFunctions(); err != nil {
		return err
	}
	e.emitThreads()
	if err := e.emitInit(); err != nil {
		return err
	}
	e.emitFindVariable()
	return nil
}

func (e *Emitter) section(title string) {
	e.buf.WriteString("\n// =====\n// ")
	e.buf.WriteString(title)
	e.buf.WriteString("\n// =====\n")
}

func (e *Emitter) emitPreamble() {
	e.buf.WriteString("// =====\n// Scratch Engine definitions\n// =====\n\n")
	for _, inc := range []string{"ctype.h", "math.h", "stdio.h", "stdlib.h", "string.h"} {
		fmt.Fprintf(&e.buf, "#include <%s>\n", inc)
	}
	fmt.Fprintf(&e.buf, "\n#include %s\n\n", cString(e.header))
	e.buf.WriteString("#ifndef M_PI\n#define M_PI 3.14159265358979323846\n#endif\n\n")
	fmt.Fprintf(&e.buf, "#define SCRATCH_MAX_NESTING %d\n", e.prog.MaxLevel())
	fmt.Fprintf(&e.buf, "#define SCRATCH_THREAD_COUNT %d\n\n", len(e.prog.Entries))

	e.buf.WriteString("struct ScratchSprite;\n\n")
	e.buf.WriteString("typedef enum ScratchOpCode {\n")
	for i, op := range ir.AllBlockOps {
		fmt.Fprintf(&e.buf, "  %s = %d,\n", op.CName(), i+1)
	}
	e.buf.WriteString("} ScratchOpCode;\n\n")
	e.buf.WriteString(runtimeTypes)
	e.buf.WriteString("\n")
	e.buf.WriteString(runtimeVariables)
	e.buf.WriteString("\n")
	e.buf.WriteString(runtimeScheduler)
}

func (e *Emitter) emitStorage() {
	e.section("Variables")
	for _, v := range e.prog.Variables {
		fmt.Fprintf(&e.buf, "static ScratchVariable %s;\n", v.CName())
	}

	e.section("Sprites")
	for _, t := range e.prog.Targets {
		fmt.Fprintf(&e.buf, "static ScratchSprite %s;\n", t.StateName)
	}

	e.section("Blocks")
	for i := range e.prog.Blocks {
		fmt.Fprintf(&e.buf, "static ScratchBlock %s;\n", e.prog.Blocks[i].Name)
	}
}

func (e *Emitter) emitFunctions() error {
	e.section("Inplace blocks functions")
	for i := range e.prog.Blocks {
		b := &e.prog.Blocks[i]
		if len(b.Operand) > 0 {
			e.buf.WriteString("// Operand helper:\n")
			if err := e.emitHelpers(b, b.Operand); err != nil {
				return err
			}
		}
		if b.Op != ir.OpInPlace {
			continue
		}
		for _, op := range b.Inplace {
			e.buf.WriteString("// Inplace block helper:\n")
			if err := e.emitHelpers(b, op.Helpers); err != nil {
				return err
			}
		}
		e.buf.WriteString("// Inplace block function:\n")
		fmt.Fprintf(&e.buf, "static void %s_function(ScratchSprite* sprite, float dt) {\n", b.Name)
		for _, op := range b.Inplace {
			fmt.Fprintf(&e.buf, "  %s(sprite, dt);\n", op.Effect)
		}
		e.buf.WriteString("}\n\n")
	}
	return nil
}

func (e *Emitter) emitThreads() {
	e.section("Scripts")
	e.buf.WriteString("static ScratchThread Scratch_Threads[SCRATCH_THREAD_COUNT + 1];\n\n")
	e.buf.WriteString(`void Scratch_Advance(ScratchNumber dt) {
  current_time += dt;
  for (int i = 0; i < SCRATCH_THREAD_COUNT; ++i) {
    Scratch_StepThread(&Scratch_Threads[i], (float) dt);
  }
}

int Scratch_RunningScripts(void) {
  int running = 0;
  for (int i = 0; i < SCRATCH_THREAD_COUNT; ++i) {
    running += !Scratch_Threads[i].done;
  }
  return running;
}
`)
}

func (e *Emitter) emitInit() error {
	e.section("Init")
	e.buf.WriteString("void Scratch_Init(void) {\n")
	e.buf.WriteString("  current_time = 0;\n")
	for _, v := range e.prog.Variables {
		if v.IsString {
			fmt.Fprintf(&e.buf, "  Scratch_AssignStringVariable(&%s, %s);\n", v.CName(), cString(v.Value))
		} else {
			fmt.Fprintf(&e.buf, "  Scratch_AssignNumberVariable(&%s, %s);\n", v.CName(), ir.FormatNumber(v.Number))
		}
	}

	for _, t := range e.prog.Targets {
		fmt.Fprintf(&e.buf, "  %s.x = 0;\n", t.StateName)
		fmt.Fprintf(&e.buf, "  %s.y = 0;\n", t.StateName)
		fmt.Fprintf(&e.buf, "  %s.direction_x = 1;\n", t.StateName)
		fmt.Fprintf(&e.buf, "  %s.direction_y = 0;\n", t.StateName)
	}

	for i := range e.prog.Blocks {
		b := &e.prog.Blocks[i]
		state, ok := e.states[b.Target]
		if !ok {
			return diag.Errorf(diag.EmitFailure, diag.Location{Target: b.Target, BlockID: b.SourceID, Opcode: b.Opcode},
				"block %s belongs to unknown target", b.Name)
		}
		fmt.Fprintf(&e.buf, "  %s.op_code = %s;\n", b.Name, b.Op.CName())
		fmt.Fprintf(&e.buf, "  %s.next = %s;\n", b.Name, e.ref(b.Next))
		fmt.Fprintf(&e.buf, "  %s.substack = %s;\n", b.Name, e.ref(b.Substack))
		if b.Op == ir.OpInPlace {
			fmt.Fprintf(&e.buf, "  %s.inplace_function = %s_function;\n", b.Name, b.Name)
		} else {
			fmt.Fprintf(&e.buf, "  %s.inplace_function = 0;\n", b.Name)
		}
		if res := b.OperandResult(); res != "" {
			fmt.Fprintf(&e.buf, "  %s.operand_function = %s;\n", b.Name, res)
		} else {
			fmt.Fprintf(&e.buf, "  %s.operand_function = 0;\n", b.Name)
		}
		fmt.Fprintf(&e.buf, "  %s.sprite = &%s;\n", b.Name, state)
		fmt.Fprintf(&e.buf, "  %s.active = 0;\n", b.Name)
		fmt.Fprintf(&e.buf, "  %s.counter = 0;\n", b.Name)
	}

	for i, entry := range e.prog.Entries {
		name := e.prog.BlockName(entry)
		if name == "" {
			return diag.Errorf(diag.EmitFailure, diag.Location{}, "script entry %d out of range", entry)
		}
		fmt.Fprintf(&e.buf, "  Scratch_Threads[%d].stack[0] = &%s;\n", i, name)
		fmt.Fprintf(&e.buf, "  Scratch_Threads[%d].depth = 0;\n", i)
		fmt.Fprintf(&e.buf, "  Scratch_Threads[%d].done = 0;\n", i)
	}
	e.buf.WriteString("}\n")
	return nil
}

func (e *Emitter) ref(id ir.BlockID) string {
	if name := e.prog.BlockName(id); name != "" {
		return "&" + name
	}
	return "0"
}

func (e *Emitter) emitFindVariable() {
	e.buf.WriteString("\nScratchVariable* Scratch_FindVariable(const char* sprite_name, const char* variable_name) {\n")
	for _, v := range e.prog.Variables {
		fmt.Fprintf(&e.buf, "  if (strcmp(%s, sprite_name) == 0 && strcmp(%s, variable_name) == 0) {\n",
			cString(v.RawTarget), cString(v.Name))
		fmt.Fprintf(&e.buf, "    return &%s;\n  }\n", v.CName())
	}
	e.buf.WriteString("  return 0;\n}\n")
}
