package ir

// BlockOp is the op code of a linearized block.
type BlockOp uint8

const (
	OpInvalid BlockOp = iota
	OpWhenFlagClicked
	OpInPlace
	OpControlForever
	OpControlIf
	OpControlWait
	OpControlRepeat
	OpControlStop
)

func (op BlockOp) String() string {
	switch op {
	case OpWhenFlagClicked:
		return "when_flag_clicked"
	case OpInPlace:
		return "inplace"
	case OpControlForever:
		return "forever"
	case OpControlIf:
		return "if"
	case OpControlWait:
		return "wait"
	case OpControlRepeat:
		return "repeat"
	case OpControlStop:
		return "stop"
	}
	return "invalid"
}

// CName is the enumerator the C runtime uses for op.
func (op BlockOp) CName() string {
	switch op {
	case OpWhenFlagClicked:
		return "kScratchWhenFlagClicked"
	case OpInPlace:
		return "kScratchInPlace"
	case OpControlForever:
		return "kScratchControlForever"
	case OpControlIf:
		return "kScratchControlIf"
	case OpControlWait:
		return "kScratchControlWait"
	case OpControlRepeat:
		return "kScratchControlRepeat"
	case OpControlStop:
		return "kScratchControlStop"
	}
	return "kScratchInvalid"
}

// HasSubstack reports whether blocks with op own a nested body.
func (op BlockOp) HasSubstack() bool {
	switch op {
	case OpControlForever, OpControlIf, OpControlRepeat:
		return true
	}
	return false
}

// AllBlockOps lists every valid op in enumerator order.
var AllBlockOps = []BlockOp{
	OpWhenFlagClicked,
	OpInPlace,
	OpControlForever,
	OpControlIf,
	OpControlWait,
	OpControlRepeat,
	OpControlStop,
}

// HelperOp is the operation of one single-assignment helper step.
type HelperOp uint8

const (
	HelperInvalid HelperOp = iota
	HelperReadNumber
	HelperReadString
	HelperReadVariable
	HelperSetVariable
	HelperChangeVariable
	HelperSetX
	HelperSetY
	HelperChangeX
	HelperChangeY
	HelperAdd
	HelperSubtract
	HelperMultiply
	HelperDivide
	HelperJoin
	HelperLessThan
	HelperGreaterThan
	HelperEquals
	HelperAnd
	HelperOr
	HelperNot
	HelperMathOp
)

var helperOpNames = [...]string{
	HelperInvalid:        "invalid",
	HelperReadNumber:     "read_value_number",
	HelperReadString:     "read_value_string",
	HelperReadVariable:   "read_variable",
	HelperSetVariable:    "set_variable",
	HelperChangeVariable: "change_variable",
	HelperSetX:           "motion_setx",
	HelperSetY:           "motion_sety",
	HelperChangeX:        "motion_changexby",
	HelperChangeY:        "motion_changeyby",
	HelperAdd:            "operator_add",
	HelperSubtract:       "operator_subtract",
	HelperMultiply:       "operator_multiply",
	HelperDivide:         "operator_divide",
	HelperJoin:           "operator_join",
	HelperLessThan:       "operator_lt",
	HelperGreaterThan:    "operator_gt",
	HelperEquals:         "operator_equals",
	HelperAnd:            "operator_and",
	HelperOr:             "operator_or",
	HelperNot:            "operator_not",
	HelperMathOp:         "operator_mathop",
}

func (op HelperOp) String() string {
	if int(op) < len(helperOpNames) {
		return helperOpNames[op]
	}
	return "invalid"
}

// Arity is the number of arguments a helper with op takes.
func (op HelperOp) Arity() int {
	switch op {
	case HelperReadNumber, HelperReadString, HelperReadVariable,
		HelperSetX, HelperSetY, HelperChangeX, HelperChangeY,
		HelperNot, HelperMathOp:
		return 1
	case HelperSetVariable, HelperChangeVariable,
		HelperAdd, HelperSubtract, HelperMultiply, HelperDivide, HelperJoin,
		HelperLessThan, HelperGreaterThan, HelperEquals, HelperAnd, HelperOr:
		return 2
	}
	return 0
}

// IsEffect reports whether op mutates state instead of producing a value.
func (op HelperOp) IsEffect() bool {
	switch op {
	case HelperSetVariable, HelperChangeVariable, HelperSetX, HelperSetY, HelperChangeX, HelperChangeY:
		return true
	}
	return false
}

// MathOperators maps the unary operators of operator_mathop to the
// identifier used in helper names and the C runtime.
var MathOperators = map[string]string{
	"abs":     "abs",
	"floor":   "floor",
	"ceiling": "ceiling",
	"sqrt":    "sqrt",
	"sin":     "sin",
	"cos":     "cos",
	"tan":     "tan",
	"asin":    "asin",
	"acos":    "acos",
	"atan":    "atan",
	"ln":      "ln",
	"log":     "log",
	"e ^":     "exp",
	"10 ^":    "pow10",
}
