package lower

import "scratchc/internal/ir"

// controlOps maps the control and event opcodes that become their own block.
var controlOps = map[string]ir.BlockOp{
	"event_whenflagclicked": ir.OpWhenFlagClicked,
	"control_forever":       ir.OpControlForever,
	"control_if":            ir.OpControlIf,
	"control_wait":          ir.OpControlWait,
	"control_repeat":        ir.OpControlRepeat,
	"control_stop":          ir.OpControlStop,
}

// operandInputs names the value input a control block evaluates.
var operandInputs = map[ir.BlockOp]struct {
	name     string
	optional bool // boolean slots are dropped from the document when empty
}{
	ir.OpControlIf:     {name: "CONDITION", optional: true},
	ir.OpControlWait:   {name: "DURATION"},
	ir.OpControlRepeat: {name: "TIMES"},
}

const substackInput = "SUBSTACK"

// exprOp is the closed set of instructions the flattener understands.
type exprOp uint8

const (
	exprInvalid exprOp = iota
	exprSetVariable
	exprChangeVariable
	exprSetX
	exprSetY
	exprChangeX
	exprChangeY
	exprReadVariable
	exprMathOp
	exprAdd
	exprSubtract
	exprMultiply
	exprDivide
	exprJoin
	exprLessThan
	exprGreaterThan
	exprEquals
	exprAnd
	exprOr
	exprNot
)

var exprOps = map[string]exprOp{
	"data_setvariableto":    exprSetVariable,
	"data_changevariableby": exprChangeVariable,
	"motion_setx":           exprSetX,
	"motion_sety":           exprSetY,
	"motion_changexby":      exprChangeX,
	"motion_changeyby":      exprChangeY,
	"data_variable":         exprReadVariable,
	"operator_mathop":       exprMathOp,
	"operator_add":          exprAdd,
	"operator_subtract":     exprSubtract,
	"operator_multiply":     exprMultiply,
	"operator_divide":       exprDivide,
	"operator_join":         exprJoin,
	"operator_lt":           exprLessThan,
	"operator_gt":           exprGreaterThan,
	"operator_equals":       exprEquals,
	"operator_and":          exprAnd,
	"operator_or":           exprOr,
	"operator_not":          exprNot,
}

// isMergeable reports whether the instruction is a pure side-effect
// primitive that runs inside a merged-run block.
func isMergeable(opcode string) bool {
	switch exprOps[opcode] {
	case exprSetVariable, exprChangeVariable, exprSetX, exprSetY, exprChangeX, exprChangeY:
		return true
	}
	return false
}

// assignsVariable reports whether the primitive writes its VARIABLE field.
func assignsVariable(opcode string) bool {
	switch exprOps[opcode] {
	case exprSetVariable, exprChangeVariable:
		return true
	}
	return false
}

type binaryRule struct {
	op       ir.HelperOp
	lhs, rhs string
	optional bool
}

var binaryRules = map[exprOp]binaryRule{
	exprAdd:         {op: ir.HelperAdd, lhs: "NUM1", rhs: "NUM2"},
	exprSubtract:    {op: ir.HelperSubtract, lhs: "NUM1", rhs: "NUM2"},
	exprMultiply:    {op: ir.HelperMultiply, lhs: "NUM1", rhs: "NUM2"},
	exprDivide:      {op: ir.HelperDivide, lhs: "NUM1", rhs: "NUM2"},
	exprJoin:        {op: ir.HelperJoin, lhs: "STRING1", rhs: "STRING2"},
	exprLessThan:    {op: ir.HelperLessThan, lhs: "OPERAND1", rhs: "OPERAND2"},
	exprGreaterThan: {op: ir.HelperGreaterThan, lhs: "OPERAND1", rhs: "OPERAND2"},
	exprEquals:      {op: ir.HelperEquals, lhs: "OPERAND1", rhs: "OPERAND2"},
	exprAnd:         {op: ir.HelperAnd, lhs: "OPERAND1", rhs: "OPERAND2", optional: true},
	exprOr:          {op: ir.HelperOr, lhs: "OPERAND1", rhs: "OPERAND2", optional: true},
}

type motionRule struct {
	op    ir.HelperOp
	input string
}

var motionRules = map[exprOp]motionRule{
	exprSetX:    {op: ir.HelperSetX, input: "X"},
	exprSetY:    {op: ir.HelperSetY, input: "Y"},
	exprChangeX: {op: ir.HelperChangeX, input: "DX"},
	exprChangeY: {op: ir.HelperChangeY, input: "DY"},
}
