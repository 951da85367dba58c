package ir

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

// sampleProgram is: when flag clicked, forever { change score by 1 }.
func sampleProgram() *Program {
	p := &Program{
		Targets: []Target{{
			Name: "Stage", RawName: "Stage", IsStage: true,
			StateName: "ScratchState_Stage",
		}},
		Variables: []Variable{{
			Target: "Stage", RawTarget: "Stage", Name: "score",
			QualifiedName: "Stage_score", Value: "0",
		}},
	}
	mustAdd := func(b Block) BlockID {
		id, err := p.AddBlock(b)
		if err != nil {
			panic(err)
		}
		return id
	}
	hat := mustAdd(Block{
		Target: "Stage", Op: OpWhenFlagClicked, Opcode: "event_whenflagclicked",
		TopLevel: true, MaxLevel: 1, Name: "Stage_event_whenflagclicked0",
		Next: 1, Substack: NoBlockID,
	})
	mustAdd(Block{
		Target: "Stage", Op: OpControlForever, Opcode: "control_forever",
		MaxLevel: 1, Name: "Stage_control_forever1",
		Next: NoBlockID, Substack: 2,
	})
	mustAdd(Block{
		Target: "Stage", Op: OpInPlace, Opcode: "data_changevariableby",
		Level: 1, MaxLevel: 1, Name: "Stage_Inplace2",
		Next: NoBlockID, Substack: NoBlockID,
		Inplace: []InplaceOp{{
			Opcode: "data_changevariableby",
			Helpers: []Helper{
				{Op: HelperReadNumber, Name: "Stage_read_value_number_helper_0", Args: []Arg{NumberArg(1)}},
				{Op: HelperChangeVariable, Name: "Stage_change_variable_helper_1", Args: []Arg{
					HelperArg("Stage_read_value_number_helper_0"), VariableArg("Stage_score"),
				}},
			},
			Effect: "Stage_change_variable_helper_1",
		}},
	})
	p.Entries = []BlockID{hat}
	return p
}

func TestProgram_Accessors(t *testing.T) {
	p := sampleProgram()
	if got := p.BlockName(1); got != "Stage_control_forever1" {
		t.Fatalf("BlockName(1) = %q", got)
	}
	if p.Block(NoBlockID) != nil || p.Block(3) != nil || p.BlockName(NoBlockID) != "" {
		t.Fatalf("out-of-range ids must resolve to nothing")
	}
	if p.MaxLevel() != 1 {
		t.Fatalf("MaxLevel = %d", p.MaxLevel())
	}
	var names []string
	p.Helpers(func(b *Block, h *Helper) {
		if b.Op != OpInPlace {
			t.Fatalf("helper %s reported on %s", h.Name, b.Name)
		}
		names = append(names, h.Name)
	})
	if len(names) != 2 || names[0] != "Stage_read_value_number_helper_0" {
		t.Fatalf("helpers = %v", names)
	}
	var nilProg *Program
	if nilProg.Block(0) != nil {
		t.Fatalf("nil program must have no blocks")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(sampleProgram()); err != nil {
		t.Fatalf("sample program: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(p *Program)
		want   string
	}{
		{
			name:   "duplicate_block_name",
			mutate: func(p *Program) { p.Blocks[1].Name = p.Blocks[0].Name },
			want:   "used twice",
		},
		{
			name:   "next_out_of_range",
			mutate: func(p *Program) { p.Blocks[2].Next = 9 },
			want:   "next link 9 out of range",
		},
		{
			name:   "substack_on_hat",
			mutate: func(p *Program) { p.Blocks[0].Substack = 2 },
			want:   "cannot own a substack",
		},
		{
			name:   "inplace_without_ops",
			mutate: func(p *Program) { p.Blocks[2].Inplace = nil },
			want:   "merged primitives",
		},
		{
			name:   "forward_helper_reference",
			mutate: func(p *Program) { p.Blocks[2].Inplace[0].Helpers[1].Args[0] = HelperArg("Stage_later_helper_9") },
			want:   "before it is defined",
		},
		{
			name:   "unknown_variable",
			mutate: func(p *Program) { p.Blocks[2].Inplace[0].Helpers[1].Args[1] = VariableArg("Stage_ghost") },
			want:   "unknown variable Stage_ghost",
		},
		{
			name:   "wrong_arity",
			mutate: func(p *Program) { p.Blocks[2].Inplace[0].Helpers[0].Args = nil },
			want:   "takes 1 args, has 0",
		},
		{
			name:   "effect_not_last",
			mutate: func(p *Program) { p.Blocks[2].Inplace[0].Effect = "Stage_read_value_number_helper_0" },
			want:   "is not the final helper",
		},
		{
			name:   "split_max_level",
			mutate: func(p *Program) { p.Blocks[0].MaxLevel = 0 },
			want:   "differs from script head",
		},
		{
			name: "shallow_max_level",
			mutate: func(p *Program) {
				for i := range p.Blocks {
					p.Blocks[i].MaxLevel = 2
				}
			},
			want: "deepest block is at 1",
		},
		{
			name:   "max_below_level",
			mutate: func(p *Program) { p.Blocks[2].MaxLevel = 0 },
			want:   "below own level",
		},
		{
			name:   "duplicate_variable",
			mutate: func(p *Program) { p.Variables = append(p.Variables, p.Variables[0]) },
			want:   "registered twice",
		},
		{
			name:   "variable_named_like_block",
			mutate: func(p *Program) { p.Blocks[1].Name = "ScratchVar_Stage_score" },
			want:   "C name ScratchVar_Stage_score used by variable Stage_score and block",
		},
		{
			name:   "helper_named_like_block",
			mutate: func(p *Program) { p.Blocks[1].Name = "Stage_read_value_number_helper_0" },
			want:   "used by block and helper",
		},
		{
			name: "shared_sprite_state",
			mutate: func(p *Program) {
				p.Targets = append(p.Targets, Target{Name: "Stage_2", RawName: "Stage 2", StateName: "ScratchState_Stage"})
			},
			want: "used by sprite state #0 and sprite state #1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sampleProgram()
			tt.mutate(p)
			err := Validate(p)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestDumpProgram(t *testing.T) {
	var buf bytes.Buffer
	if err := DumpProgram(&buf, sampleProgram(), DumpOptions{}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	want := `targets=1
  Stage stage state=ScratchState_Stage
variables=1
  Stage_score = 0.0
blocks=3 max_level=1
  #0 Stage_event_whenflagclicked0 when_flag_clicked level=0 max=1 [entry,top] next=#1
  #1 Stage_control_forever1 forever level=0 max=1 substack=#2
  #2 Stage_Inplace2 inplace level=1 max=1
      data_changevariableby -> Stage_change_variable_helper_1
        Stage_read_value_number_helper_0 = read_value_number(1.0)
        Stage_change_variable_helper_1 = change_variable(Stage_read_value_number_helper_0, Stage_score)
`
	if got := buf.String(); got != want {
		t.Fatalf("dump mismatch\n--- got\n%s--- want\n%s", got, want)
	}
}

func TestDumpProgram_Heading(t *testing.T) {
	var buf bytes.Buffer
	opts := DumpOptions{Heading: func(s string) string { return "== " + s + " ==" }}
	if err := DumpProgram(&buf, sampleProgram(), opts); err != nil {
		t.Fatalf("dump: %v", err)
	}
	for _, line := range []string{"== targets=1 ==", "== variables=1 ==", "== blocks=3 max_level=1 =="} {
		if !strings.Contains(buf.String(), line+"\n") {
			t.Fatalf("missing heading %q in\n%s", line, buf.String())
		}
	}
}

type failingWriter struct{}

var errSink = errors.New("sink closed")

func (failingWriter) Write([]byte) (int, error) { return 0, errSink }

func TestDumpProgram_WriteError(t *testing.T) {
	if err := DumpProgram(failingWriter{}, sampleProgram(), DumpOptions{}); !errors.Is(err, errSink) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestClassifyLiteral(t *testing.T) {
	tests := []struct {
		in       string
		value    float64
		isString bool
	}{
		{in: "10", value: 10},
		{in: "-3.25", value: -3.25},
		{in: " 7 ", value: 7},
		{in: "1e3", value: 1000},
		{in: "", isString: true},
		{in: "abc", isString: true},
		{in: "12px", isString: true},
		{in: "1e500", value: math.Inf(1)},
		{in: "-1e500", value: math.Inf(-1)},
		{in: "0x1p4", isString: true},
		{in: "-0X10", isString: true},
		{in: "1_000", value: 1000},
		{in: "1__000", isString: true},
		{in: "_1", isString: true},
		{in: "1_", isString: true},
		{in: "1_.5", isString: true},
	}
	for _, tt := range tests {
		v, isString := ClassifyLiteral(tt.in)
		if isString != tt.isString || (!isString && v != tt.value) {
			t.Errorf("ClassifyLiteral(%q) = %v, %v; want %v, %v", tt.in, v, isString, tt.value, tt.isString)
		}
	}
}

func TestVariableCName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Stage_score", want: "ScratchVar_Stage_score"},
		{in: "S_Inplace0", want: "ScratchVar_S_Inplace0"},
		{in: "S_a-b", want: "ScratchVarX_S__a_2d_b"},
		{in: "S_a_2d_b", want: "ScratchVar_S_a_2d_b"},
		{in: "Café_x", want: "ScratchVarX_Caf_e9___x"},
	}
	for _, tt := range tests {
		if got := VariableCName(tt.in); got != tt.want {
			t.Errorf("VariableCName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0.0"},
		{in: 10, want: "10.0"},
		{in: -2.5, want: "-2.5"},
		{in: 1e21, want: "1e+21"},
		{in: math.NaN(), want: "NAN"},
		{in: math.Inf(1), want: "INFINITY"},
		{in: math.Inf(-1), want: "-INFINITY"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOps(t *testing.T) {
	for _, op := range AllBlockOps {
		if op.String() == "invalid" || !strings.HasPrefix(op.CName(), "kScratch") || op.CName() == "kScratchInvalid" {
			t.Errorf("op %d has no names", op)
		}
	}
	if !OpControlRepeat.HasSubstack() || OpControlWait.HasSubstack() {
		t.Fatalf("substack ownership wrong")
	}
	if HelperMathOp.Arity() != 1 || HelperJoin.Arity() != 2 || HelperInvalid.Arity() != 0 {
		t.Fatalf("arity table wrong")
	}
	if !HelperSetX.IsEffect() || HelperAdd.IsEffect() {
		t.Fatalf("effect table wrong")
	}
	for raw, ident := range MathOperators {
		if strings.ContainsAny(ident, " ^") {
			t.Errorf("math operator %q maps to non-identifier %q", raw, ident)
		}
	}
}
