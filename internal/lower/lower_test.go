package lower_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"scratchc/internal/diag"
	"scratchc/internal/ir"
	"scratchc/internal/lower"
	"scratchc/internal/sb3"
)

func compile(t *testing.T, doc string) (*ir.Program, error) {
	t.Helper()
	proj, err := sb3.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return lower.Compile(proj, lower.Options{})
}

func mustCompile(t *testing.T, doc string) *ir.Program {
	t.Helper()
	prog, err := compile(t, doc)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := ir.Validate(prog); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return prog
}

func helperOps(helpers []ir.Helper) []string {
	out := make([]string, len(helpers))
	for i, h := range helpers {
		out[i] = h.Op.String()
	}
	return out
}

func helperNames(helpers []ir.Helper) []string {
	out := make([]string, len(helpers))
	for i, h := range helpers {
		out[i] = h.Name
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// hat -> set score 10 -> set "my x" (score + 2.5) -> if <> {}
const mergeDoc = `{"targets":[
 {"isStage":true,"name":"Stage","variables":{"sv1":["score",0],"sv2":["greeting","hello"]},"blocks":{}},
 {"isStage":false,"name":"Sprite 1","variables":{"lv1":["my x","10"]},"blocks":{
  "hat":{"opcode":"event_whenflagclicked","next":"set1","parent":null,"inputs":{},"fields":{},"shadow":false,"topLevel":true},
  "set1":{"opcode":"data_setvariableto","next":"set2","parent":"hat","inputs":{"VALUE":[1,[10,"10"]]},"fields":{"VARIABLE":["score","sv1"]},"shadow":false,"topLevel":false},
  "set2":{"opcode":"data_setvariableto","next":"if1","parent":"set1","inputs":{"VALUE":[3,"add1",[10,""]]},"fields":{"VARIABLE":["my x","lv1"]},"shadow":false,"topLevel":false},
  "add1":{"opcode":"operator_add","next":null,"parent":"set2","inputs":{"NUM1":[3,[12,"score","sv1"],[4,""]],"NUM2":[1,[4,"2.5"]]},"fields":{},"shadow":false,"topLevel":false},
  "if1":{"opcode":"control_if","next":null,"parent":"set2","inputs":{},"fields":{},"shadow":false,"topLevel":false}
 }}]}`

func TestCompile_MergesPrimitivesBeforeControl(t *testing.T) {
	prog := mustCompile(t, mergeDoc)

	if len(prog.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(prog.Blocks))
	}
	hat, merged, cond := &prog.Blocks[0], &prog.Blocks[1], &prog.Blocks[2]

	if hat.Op != ir.OpWhenFlagClicked || hat.Name != "Sprite_1_event_whenflagclicked0" || !hat.TopLevel {
		t.Fatalf("unexpected hat block: %+v", hat)
	}
	if hat.Next != 1 {
		t.Fatalf("hat.Next = %d, want 1", hat.Next)
	}
	if merged.Op != ir.OpInPlace || merged.Name != "Sprite_1_Inplace1" {
		t.Fatalf("unexpected merged block: %+v", merged)
	}
	if len(merged.Inplace) != 2 {
		t.Fatalf("expected 2 merged primitives, got %d", len(merged.Inplace))
	}
	if merged.Inplace[0].SourceID != "set1" || merged.Inplace[1].SourceID != "set2" {
		t.Fatalf("merged primitives out of source order: %s, %s", merged.Inplace[0].SourceID, merged.Inplace[1].SourceID)
	}
	if prog.BlockName(merged.Next) != cond.Name {
		t.Fatalf("merged.Next names %q, want %q", prog.BlockName(merged.Next), cond.Name)
	}
	if cond.Op != ir.OpControlIf || cond.Name != "Sprite_1_control_if2" {
		t.Fatalf("unexpected control block: %+v", cond)
	}
	if cond.Substack != ir.NoBlockID || cond.Next != ir.NoBlockID {
		t.Fatalf("empty if must have no links, got substack=%d next=%d", cond.Substack, cond.Next)
	}

	first := merged.Inplace[0]
	if got, want := helperNames(first.Helpers), []string{
		"Sprite_1_read_value_number_helper_0",
		"Sprite_1_set_variable_helper_1",
	}; !equalStrings(got, want) {
		t.Fatalf("first primitive helpers = %v, want %v", got, want)
	}
	if first.Effect != "Sprite_1_set_variable_helper_1" {
		t.Fatalf("first effect = %q", first.Effect)
	}
	set := first.Helpers[1]
	if set.Args[0].Ref != first.Helpers[0].Name || set.Args[1].Ref != "Stage_score" {
		t.Fatalf("set_variable args = %v", set.Args)
	}

	second := merged.Inplace[1]
	if got, want := helperOps(second.Helpers), []string{
		"read_variable", "read_value_number", "operator_add", "set_variable",
	}; !equalStrings(got, want) {
		t.Fatalf("second primitive helper ops = %v, want %v", got, want)
	}
	if second.Helpers[1].Args[0].Number != 2.5 {
		t.Fatalf("literal 2.5 read as %v", second.Helpers[1].Args[0])
	}

	// empty CONDITION reads as false
	if got := helperOps(cond.Operand); !equalStrings(got, []string{"read_value_number"}) {
		t.Fatalf("if operand = %v", got)
	}
	if cond.OperandResult() != "Sprite_1_read_value_number_helper_6" {
		t.Fatalf("if operand result = %q", cond.OperandResult())
	}

	if len(prog.Variables) != 2 {
		t.Fatalf("expected 2 variables, got %+v", prog.Variables)
	}
	if prog.Variables[0].QualifiedName != "Stage_score" || prog.Variables[1].QualifiedName != "Sprite_1_my_x" {
		t.Fatalf("variables = %+v", prog.Variables)
	}
	if v := prog.Variables[1]; v.IsString || v.Number != 10 || v.Name != "my x" || v.RawTarget != "Sprite 1" {
		t.Fatalf("my x = %+v", v)
	}
	if len(prog.Entries) != 1 || prog.Entries[0] != 0 {
		t.Fatalf("entries = %v", prog.Entries)
	}
}

func literalDoc(literal string) string {
	return `{"targets":[
 {"isStage":true,"name":"Stage","variables":{"v":["x",0]},"blocks":{
  "s":{"opcode":"data_setvariableto","next":null,"parent":null,"inputs":{"VALUE":[1,[10,` + literal + `]]},"fields":{"VARIABLE":["x","v"]},"shadow":false,"topLevel":true}
 }}]}`
}

func TestCompile_LiteralClassification(t *testing.T) {
	tests := []struct {
		name    string
		literal string
		op      ir.HelperOp
		number  float64
		text    string
	}{
		{name: "integer_text", literal: `"10"`, op: ir.HelperReadNumber, number: 10},
		{name: "json_number", literal: `10`, op: ir.HelperReadNumber, number: 10},
		{name: "fraction", literal: `"-0.5"`, op: ir.HelperReadNumber, number: -0.5},
		{name: "padded", literal: `" 3 "`, op: ir.HelperReadNumber, number: 3},
		{name: "word", literal: `"abc"`, op: ir.HelperReadString, text: "abc"},
		{name: "empty", literal: `""`, op: ir.HelperReadString, text: ""},
		{name: "overflow", literal: `"1e500"`, op: ir.HelperReadNumber, number: math.Inf(1)},
		{name: "separators", literal: `"1_000"`, op: ir.HelperReadNumber, number: 1000},
		{name: "hex_float", literal: `"0x1p4"`, op: ir.HelperReadString, text: "0x1p4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := mustCompile(t, literalDoc(tt.literal))
			read := prog.Blocks[0].Inplace[0].Helpers[0]
			if read.Op != tt.op {
				t.Fatalf("op = %s, want %s", read.Op, tt.op)
			}
			arg := read.Args[0]
			switch tt.op {
			case ir.HelperReadNumber:
				if arg.Kind != ir.ArgNumber || arg.Number != tt.number {
					t.Fatalf("arg = %+v, want number %v", arg, tt.number)
				}
			case ir.HelperReadString:
				if arg.Kind != ir.ArgString || arg.Text != tt.text {
					t.Fatalf("arg = %+v, want string %q", arg, tt.text)
				}
			}
		})
	}
}

func TestCompile_LonePrimitiveIsWrapped(t *testing.T) {
	prog := mustCompile(t, literalDoc(`"1"`))
	if len(prog.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(prog.Blocks))
	}
	b := prog.Blocks[0]
	if b.Op != ir.OpInPlace || len(b.Inplace) != 1 || b.Name != "Stage_Inplace0" {
		t.Fatalf("lone primitive not wrapped: %+v", b)
	}
	if !b.TopLevel || b.Next != ir.NoBlockID {
		t.Fatalf("trailing run must be top-level with no next: %+v", b)
	}
}

// sprite reads the stage's "score" from two scripts and shadows "lives".
const scopeDoc = `{"targets":[
 {"isStage":true,"name":"Stage","variables":{"s1":["score","0"],"s2":["lives","3"]},"blocks":{}},
 {"isStage":false,"name":"Cat","variables":{"s2":["lives","9"]},"blocks":{
  "a":{"opcode":"data_changevariableby","next":"b","parent":null,"inputs":{"VALUE":[1,[4,"1"]]},"fields":{"VARIABLE":["score","s1"]},"shadow":false,"topLevel":true},
  "b":{"opcode":"data_setvariableto","next":null,"parent":"a","inputs":{"VALUE":[3,[12,"lives","s2"],[10,""]]},"fields":{"VARIABLE":["score","s1"]},"shadow":false,"topLevel":false},
  "c":{"opcode":"data_setvariableto","next":null,"parent":null,"inputs":{"VALUE":[3,[12,"score","s1"],[10,""]]},"fields":{"VARIABLE":["lives","s2"]},"shadow":false,"topLevel":true}
 }}]}`

func TestCompile_VariableScoping(t *testing.T) {
	prog := mustCompile(t, scopeDoc)

	names := make([]string, len(prog.Variables))
	for i, v := range prog.Variables {
		names[i] = v.QualifiedName
	}
	if want := []string{"Stage_score", "Cat_lives"}; !equalStrings(names, want) {
		t.Fatalf("variables = %v, want %v", names, want)
	}
	if prog.Variables[0].Target != "Stage" {
		t.Fatalf("score owner = %q", prog.Variables[0].Target)
	}
	if v := prog.Variables[1]; v.Value != "9" || v.Number != 9 {
		t.Fatalf("local lives must shadow the stage: %+v", v)
	}
	if len(prog.Entries) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(prog.Entries))
	}
	change := prog.Blocks[0].Inplace[0].Helpers
	if last := change[len(change)-1]; last.Op != ir.HelperChangeVariable || last.Args[1].Ref != "Stage_score" {
		t.Fatalf("change helper = %+v", last)
	}
}

// punctDoc has two variables that differ only in punctuation and two
// sprites whose names sanitize to the same identifier.
const punctDoc = `{"targets":[
 {"isStage":true,"name":"Stage","variables":{},"blocks":{}},
 {"isStage":false,"name":"a-b","variables":{"d":["x-y",1],"u":["x_y",2]},"blocks":{
  "s":{"opcode":"data_setvariableto","next":"t","parent":null,"inputs":{"VALUE":[1,[10,"3"]]},"fields":{"VARIABLE":["x-y","d"]},"shadow":false,"topLevel":true},
  "t":{"opcode":"data_setvariableto","next":null,"parent":"s","inputs":{"VALUE":[1,[10,"4"]]},"fields":{"VARIABLE":["x_y","u"]},"shadow":false,"topLevel":false}}},
 {"isStage":false,"name":"a_b","variables":{"d":["x-y",5]},"blocks":{
  "s":{"opcode":"data_setvariableto","next":null,"parent":null,"inputs":{"VALUE":[1,[10,"6"]]},"fields":{"VARIABLE":["x-y","d"]},"shadow":false,"topLevel":true}}}]}`

func TestCompile_PunctuationKeepsNamesApart(t *testing.T) {
	prog := mustCompile(t, punctDoc)

	names := make([]string, len(prog.Variables))
	for i, v := range prog.Variables {
		names[i] = v.QualifiedName
	}
	if want := []string{"a-b_x-y", "a-b_x_y", "a_b_x-y"}; !equalStrings(names, want) {
		t.Fatalf("variables = %v, want %v", names, want)
	}
	if got := []string{prog.Targets[1].Name, prog.Targets[2].Name}; !equalStrings(got, []string{"a_b", "a_b_2"}) {
		t.Fatalf("target idents = %v", got)
	}
	if prog.Targets[2].StateName != "ScratchState_a_b_2" || prog.Variables[2].Target != "a_b_2" {
		t.Fatalf("second a_b target: %+v, %+v", prog.Targets[2], prog.Variables[2])
	}
	if err := ir.Validate(prog); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

// score := ((a * b) + (c / 2)) joined with "!"
const orderDoc = `{"targets":[
 {"isStage":true,"name":"Stage","variables":{"a":["a",1],"b":["b",2],"c":["c",3],"r":["r",""]},"blocks":{
  "set":{"opcode":"data_setvariableto","next":null,"parent":null,"inputs":{"VALUE":[3,"join",[10,""]]},"fields":{"VARIABLE":["r","r"]},"shadow":false,"topLevel":true},
  "join":{"opcode":"operator_join","next":null,"parent":"set","inputs":{"STRING1":[3,"add",[10,""]],"STRING2":[1,[10,"!"]]},"fields":{},"shadow":false,"topLevel":false},
  "add":{"opcode":"operator_add","next":null,"parent":"join","inputs":{"NUM1":[3,"mul",[4,""]],"NUM2":[3,"div",[4,""]]},"fields":{},"shadow":false,"topLevel":false},
  "mul":{"opcode":"operator_multiply","next":null,"parent":"add","inputs":{"NUM1":[3,[12,"a","a"],[4,""]],"NUM2":[3,[12,"b","b"],[4,""]]},"fields":{},"shadow":false,"topLevel":false},
  "div":{"opcode":"operator_divide","next":null,"parent":"add","inputs":{"NUM1":[3,"sqrt",[4,""]],"NUM2":[1,[4,"2"]]},"fields":{},"shadow":false,"topLevel":false},
  "sqrt":{"opcode":"operator_mathop","next":null,"parent":"div","inputs":{"NUM":[3,[12,"c","c"],[4,""]]},"fields":{"OPERATOR":["sqrt",null]},"shadow":false,"topLevel":false}
 }}]}`

func TestCompile_BinaryOperandsFlattenLeftToRight(t *testing.T) {
	prog := mustCompile(t, orderDoc)
	helpers := prog.Blocks[0].Inplace[0].Helpers

	want := []string{
		"Stage_read_variable_helper_0",
		"Stage_read_variable_helper_1",
		"Stage_operator_multiply_helper_2",
		"Stage_read_variable_helper_3",
		"Stage_sqrt_helper_4",
		"Stage_read_value_number_helper_5",
		"Stage_operator_divide_helper_6",
		"Stage_operator_add_helper_7",
		"Stage_read_value_string_helper_8",
		"Stage_operator_join_helper_9",
		"Stage_set_variable_helper_10",
	}
	if got := helperNames(helpers); !equalStrings(got, want) {
		t.Fatalf("helpers =\n%v\nwant\n%v", got, want)
	}
	add := helpers[7]
	if add.Args[0].Ref != "Stage_operator_multiply_helper_2" || add.Args[1].Ref != "Stage_operator_divide_helper_6" {
		t.Fatalf("add args = %v", add.Args)
	}
	if sqrt := helpers[4]; sqrt.Op != ir.HelperMathOp || sqrt.Operator != "sqrt" {
		t.Fatalf("mathop helper = %+v", sqrt)
	}
	// a, b, c read in order; r was registered before its value was flattened
	var names []string
	for _, v := range prog.Variables {
		names = append(names, v.QualifiedName)
	}
	if want := []string{"Stage_r", "Stage_a", "Stage_b", "Stage_c"}; !equalStrings(names, want) {
		t.Fatalf("variables = %v, want %v", names, want)
	}
}

// two scripts: hat -> forever { if <x < 5> { x := x + 1; set x to x } }
// and hat -> wait 1 -> x := 0
const nestingDoc = `{"targets":[
 {"isStage":true,"name":"Stage","variables":{},"blocks":{}},
 {"isStage":false,"name":"Ball","variables":{"x":["x",0]},"blocks":{
  "hat":{"opcode":"event_whenflagclicked","next":"loop","parent":null,"inputs":{},"fields":{},"shadow":false,"topLevel":true},
  "loop":{"opcode":"control_forever","next":null,"parent":"hat","inputs":{"SUBSTACK":[2,"if"]},"fields":{},"shadow":false,"topLevel":false},
  "if":{"opcode":"control_if","next":null,"parent":"loop","inputs":{"CONDITION":[2,"lt"],"SUBSTACK":[2,"inc"]},"fields":{},"shadow":false,"topLevel":false},
  "lt":{"opcode":"operator_lt","next":null,"parent":"if","inputs":{"OPERAND1":[3,[12,"x","x"],[10,""]],"OPERAND2":[1,[10,"5"]]},"fields":{},"shadow":false,"topLevel":false},
  "inc":{"opcode":"data_changevariableby","next":"move","parent":"if","inputs":{"VALUE":[1,[4,"1"]]},"fields":{"VARIABLE":["x","x"]},"shadow":false,"topLevel":false},
  "move":{"opcode":"motion_setx","next":null,"parent":"inc","inputs":{"X":[3,[12,"x","x"],[4,""]]},"fields":{},"shadow":false,"topLevel":false},
  "hat2":{"opcode":"event_whenflagclicked","next":"wait","parent":null,"inputs":{},"fields":{},"shadow":false,"topLevel":true},
  "wait":{"opcode":"control_wait","next":"reset","parent":"hat2","inputs":{"DURATION":[1,[5,"1"]]},"fields":{},"shadow":false,"topLevel":false},
  "reset":{"opcode":"data_setvariableto","next":null,"parent":"wait","inputs":{"VALUE":[1,[10,"0"]]},"fields":{"VARIABLE":["x","x"]},"shadow":false,"topLevel":false}
 }}]}`

func TestCompile_NestingLevels(t *testing.T) {
	prog := mustCompile(t, nestingDoc)

	wantOps := []ir.BlockOp{
		ir.OpWhenFlagClicked, ir.OpControlForever, ir.OpControlIf, ir.OpInPlace,
		ir.OpWhenFlagClicked, ir.OpControlWait, ir.OpInPlace,
	}
	if len(prog.Blocks) != len(wantOps) {
		t.Fatalf("expected %d blocks, got %d", len(wantOps), len(prog.Blocks))
	}
	for i, op := range wantOps {
		if prog.Blocks[i].Op != op {
			t.Fatalf("block #%d op = %s, want %s", i, prog.Blocks[i].Op, op)
		}
	}

	wantLevels := []int{0, 0, 1, 2, 0, 0, 0}
	wantMax := []int{2, 2, 2, 2, 0, 0, 0}
	for i := range prog.Blocks {
		b := prog.Blocks[i]
		if b.Level != wantLevels[i] || b.MaxLevel != wantMax[i] {
			t.Errorf("block %s level=%d max=%d, want level=%d max=%d", b.Name, b.Level, b.MaxLevel, wantLevels[i], wantMax[i])
		}
	}

	loop, cond := prog.Blocks[1], prog.Blocks[2]
	if loop.Substack != 2 || cond.Substack != 3 {
		t.Fatalf("substack links: forever=%d if=%d", loop.Substack, cond.Substack)
	}
	if got := helperOps(cond.Operand); !equalStrings(got, []string{"read_variable", "read_value_number", "operator_lt"}) {
		t.Fatalf("if operand = %v", got)
	}
	body := prog.Blocks[3]
	if len(body.Inplace) != 2 || body.Inplace[1].Opcode != "motion_setx" {
		t.Fatalf("if body = %+v", body.Inplace)
	}
	if prog.Blocks[5].OperandResult() == "" {
		t.Fatalf("wait must carry its duration operand")
	}
	if prog.MaxLevel() != 2 {
		t.Fatalf("program max level = %d", prog.MaxLevel())
	}
	if len(prog.Entries) != 2 || prog.Entries[1] != 4 {
		t.Fatalf("entries = %v", prog.Entries)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		code    diag.Code
		blockID string
		opcode  string
	}{
		{
			name: "unsupported_control",
			doc: `{"targets":[{"isStage":true,"name":"Stage","variables":{},"blocks":{
  "h":{"opcode":"event_whenflagclicked","next":"say","parent":null,"inputs":{},"fields":{},"shadow":false,"topLevel":true},
  "say":{"opcode":"looks_say","next":null,"parent":"h","inputs":{"MESSAGE":[1,[10,"hi"]]},"fields":{},"shadow":false,"topLevel":false}}}]}`,
			code:    diag.LowUnsupportedOpcode,
			blockID: "say",
			opcode:  "looks_say",
		},
		{
			name: "unsupported_expression",
			doc: `{"targets":[{"isStage":true,"name":"Stage","variables":{"v":["v",0]},"blocks":{
  "s":{"opcode":"data_setvariableto","next":null,"parent":null,"inputs":{"VALUE":[3,"r",[10,""]]},"fields":{"VARIABLE":["v","v"]},"shadow":false,"topLevel":true},
  "r":{"opcode":"operator_random","next":null,"parent":"s","inputs":{},"fields":{},"shadow":false,"topLevel":false}}}]}`,
			code:    diag.LowUnsupportedOpcode,
			blockID: "r",
			opcode:  "operator_random",
		},
		{
			name: "unknown_variable",
			doc: `{"targets":[{"isStage":true,"name":"Stage","variables":{},"blocks":{}},
 {"isStage":false,"name":"Cat","variables":{},"blocks":{
  "s":{"opcode":"data_setvariableto","next":null,"parent":null,"inputs":{"VALUE":[1,[10,"1"]]},"fields":{"VARIABLE":["ghost","g"]},"shadow":false,"topLevel":true}}}]}`,
			code:    diag.LowUnknownVariable,
			blockID: "s",
			opcode:  "data_setvariableto",
		},
		{
			name: "dangling_next",
			doc: `{"targets":[{"isStage":true,"name":"Stage","variables":{},"blocks":{
  "h":{"opcode":"event_whenflagclicked","next":"gone","parent":null,"inputs":{},"fields":{},"shadow":false,"topLevel":true}}}]}`,
			code:    diag.LowDanglingBlock,
			blockID: "h",
			opcode:  "event_whenflagclicked",
		},
		{
			name: "missing_field",
			doc: `{"targets":[{"isStage":true,"name":"Stage","variables":{},"blocks":{
  "s":{"opcode":"data_setvariableto","next":null,"parent":null,"inputs":{"VALUE":[1,[10,"1"]]},"fields":{},"shadow":false,"topLevel":true}}}]}`,
			code:    diag.LowMissingField,
			blockID: "s",
			opcode:  "data_setvariableto",
		},
		{
			name: "missing_input",
			doc: `{"targets":[{"isStage":true,"name":"Stage","variables":{},"blocks":{
  "m":{"opcode":"motion_setx","next":null,"parent":null,"inputs":{},"fields":{},"shadow":false,"topLevel":true}}}]}`,
			code:    diag.LowMissingInput,
			blockID: "m",
			opcode:  "motion_setx",
		},
		{
			name: "name_collision",
			doc: `{"targets":[{"isStage":true,"name":"Stage","variables":{"a":["my var",1],"b":["my_var",2]},"blocks":{
  "s":{"opcode":"data_setvariableto","next":"t","parent":null,"inputs":{"VALUE":[1,[10,"1"]]},"fields":{"VARIABLE":["my var","a"]},"shadow":false,"topLevel":true},
  "t":{"opcode":"data_setvariableto","next":null,"parent":"s","inputs":{"VALUE":[1,[10,"2"]]},"fields":{"VARIABLE":["my_var","b"]},"shadow":false,"topLevel":false}}}]}`,
			code:    diag.LowNameCollision,
			blockID: "t",
			opcode:  "data_setvariableto",
		},
		{
			name: "next_cycle",
			doc: `{"targets":[{"isStage":true,"name":"Stage","variables":{},"blocks":{
  "h":{"opcode":"event_whenflagclicked","next":"w","parent":null,"inputs":{},"fields":{},"shadow":false,"topLevel":true},
  "w":{"opcode":"control_wait","next":"w","parent":"h","inputs":{"DURATION":[1,[5,"1"]]},"fields":{},"shadow":false,"topLevel":false}}}]}`,
			code:    diag.LowBlockReused,
			blockID: "w",
			opcode:  "control_wait",
		},
		{
			name: "shared_reporter",
			doc: `{"targets":[{"isStage":true,"name":"Stage","variables":{},"blocks":{
  "a":{"opcode":"motion_setx","next":"b","parent":null,"inputs":{"X":[3,"r",[4,""]]},"fields":{},"shadow":false,"topLevel":true},
  "b":{"opcode":"motion_sety","next":null,"parent":"a","inputs":{"Y":[3,"r",[4,""]]},"fields":{},"shadow":false,"topLevel":false},
  "r":{"opcode":"operator_add","next":null,"parent":"a","inputs":{"NUM1":[1,[4,"1"]],"NUM2":[1,[4,"2"]]},"fields":{},"shadow":false,"topLevel":false}}}]}`,
			code:    diag.LowBlockReused,
			blockID: "b",
			opcode:  "motion_sety",
		},
		{
			name: "unknown_math_operator",
			doc: `{"targets":[{"isStage":true,"name":"Stage","variables":{},"blocks":{
  "m":{"opcode":"motion_setx","next":null,"parent":null,"inputs":{"X":[3,"op",[4,""]]},"fields":{},"shadow":false,"topLevel":true},
  "op":{"opcode":"operator_mathop","next":null,"parent":"m","inputs":{"NUM":[1,[4,"1"]]},"fields":{"OPERATOR":["cbrt",null]},"shadow":false,"topLevel":false}}}]}`,
			code:    diag.LowUnsupportedOpcode,
			blockID: "op",
			opcode:  "operator_mathop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := compile(t, tt.doc)
			if err == nil {
				t.Fatalf("expected error, got program with %d blocks", len(prog.Blocks))
			}
			if prog != nil {
				t.Fatalf("a failed compilation must not return a program")
			}
			var de *diag.Error
			if !errors.As(err, &de) {
				t.Fatalf("expected *diag.Error, got %T: %v", err, err)
			}
			if de.Code != tt.code {
				t.Fatalf("code = %s, want %s (%v)", de.Code.ID(), tt.code.ID(), err)
			}
			if de.Where.BlockID != tt.blockID || de.Where.Opcode != tt.opcode || de.Where.Target == "" {
				t.Fatalf("location = %+v, want block %s opcode %s", de.Where, tt.blockID, tt.opcode)
			}
			if !strings.Contains(err.Error(), tt.code.ID()) {
				t.Fatalf("message %q lacks code", err.Error())
			}
		})
	}
}

func TestCompile_ErrorInLaterSpriteAbortsAll(t *testing.T) {
	doc := `{"targets":[
 {"isStage":true,"name":"Stage","variables":{"v":["v",0]},"blocks":{
  "ok":{"opcode":"data_setvariableto","next":null,"parent":null,"inputs":{"VALUE":[1,[10,"1"]]},"fields":{"VARIABLE":["v","v"]},"shadow":false,"topLevel":true}}},
 {"isStage":false,"name":"Cat","variables":{},"blocks":{
  "bad":{"opcode":"sound_play","next":null,"parent":null,"inputs":{},"fields":{},"shadow":false,"topLevel":true}}}]}`
	prog, err := compile(t, doc)
	if err == nil || prog != nil {
		t.Fatalf("expected failure without output, got prog=%v err=%v", prog, err)
	}
}

func TestCompile_HelperCountersArePerTarget(t *testing.T) {
	doc := `{"targets":[
 {"isStage":true,"name":"Stage","variables":{"v":["v",0]},"blocks":{
  "a":{"opcode":"data_setvariableto","next":null,"parent":null,"inputs":{"VALUE":[1,[10,"1"]]},"fields":{"VARIABLE":["v","v"]},"shadow":false,"topLevel":true},
  "b":{"opcode":"data_setvariableto","next":null,"parent":null,"inputs":{"VALUE":[1,[10,"2"]]},"fields":{"VARIABLE":["v","v"]},"shadow":false,"topLevel":true}}},
 {"isStage":false,"name":"Cat","variables":{},"blocks":{
  "c":{"opcode":"motion_sety","next":null,"parent":null,"inputs":{"Y":[1,[4,"7"]]},"fields":{},"shadow":false,"topLevel":true}}}]}`
	prog := mustCompile(t, doc)

	var names []string
	prog.Helpers(func(_ *ir.Block, h *ir.Helper) { names = append(names, h.Name) })
	want := []string{
		"Stage_read_value_number_helper_0",
		"Stage_set_variable_helper_1",
		"Stage_read_value_number_helper_2",
		"Stage_set_variable_helper_3",
		"Cat_read_value_number_helper_0",
		"Cat_motion_sety_helper_1",
	}
	if !equalStrings(names, want) {
		t.Fatalf("helper names = %v, want %v", names, want)
	}
	if len(prog.Variables) != 1 {
		t.Fatalf("variable v must be registered once, got %d", len(prog.Variables))
	}
}

func TestCompile_EmptyTargetsAndLooseReporters(t *testing.T) {
	doc := `{"targets":[
 {"isStage":true,"name":"Stage","variables":{"v":["v",0]},"blocks":{
  "loose":[12,"v","v",10,20]}},
 {"isStage":false,"name":"Cat","variables":{},"blocks":{}}]}`
	prog := mustCompile(t, doc)
	if len(prog.Targets) != 2 || len(prog.Blocks) != 0 || len(prog.Variables) != 0 {
		t.Fatalf("unexpected program: %+v", prog)
	}
	if !prog.Targets[0].IsStage || prog.Targets[1].StateName != "ScratchState_Cat" {
		t.Fatalf("targets = %+v", prog.Targets)
	}
}
