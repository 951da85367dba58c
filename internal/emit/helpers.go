package emit

import (
	"errors"
	"fmt"
	"strings"

	"scratchc/internal/diag"
	"scratchc/internal/ir"
)

// binaryExprs maps numeric and comparison helpers to the C expression
// computing their result from num1 and num2.
var binaryExprs = map[ir.HelperOp]string{
	ir.HelperAdd:         "Scratch_ReadNumberVariable(&num1) + Scratch_ReadNumberVariable(&num2)",
	ir.HelperSubtract:    "Scratch_ReadNumberVariable(&num1) - Scratch_ReadNumberVariable(&num2)",
	ir.HelperMultiply:    "Scratch_ReadNumberVariable(&num1) * Scratch_ReadNumberVariable(&num2)",
	ir.HelperDivide:      "Scratch_ReadNumberVariable(&num1) / Scratch_ReadNumberVariable(&num2)",
	ir.HelperLessThan:    "Scratch_CompareVariables(&num1, &num2) < 0",
	ir.HelperGreaterThan: "Scratch_CompareVariables(&num1, &num2) > 0",
	ir.HelperEquals:      "Scratch_CompareVariables(&num1, &num2) == 0",
	ir.HelperAnd:         "Scratch_IsTruthy(&num1) && Scratch_IsTruthy(&num2)",
	ir.HelperOr:          "Scratch_IsTruthy(&num1) || Scratch_IsTruthy(&num2)",
}

// mathExprs maps operator_mathop identifiers to C; %[1]s is the operand.
// Trigonometry works in degrees.
var mathExprs = map[string]string{
	"abs":     "fabs(%[1]s)",
	"floor":   "floor(%[1]s)",
	"ceiling": "ceil(%[1]s)",
	"sqrt":    "sqrt(%[1]s)",
	"sin":     "sin(%[1]s * M_PI / 180)",
	"cos":     "cos(%[1]s * M_PI / 180)",
	"tan":     "tan(%[1]s * M_PI / 180)",
	"asin":    "asin(%[1]s) * 180 / M_PI",
	"acos":    "acos(%[1]s) * 180 / M_PI",
	"atan":    "atan(%[1]s) * 180 / M_PI",
	"ln":      "log(%[1]s)",
	"log":     "log10(%[1]s)",
	"exp":     "exp(%[1]s)",
	"pow10":   "pow(10, %[1]s)",
}

// motionStmts maps motion helpers to the statement applied to the sprite.
var motionStmts = map[ir.HelperOp]string{
	ir.HelperSetX:    "sprite->x = %s;",
	ir.HelperSetY:    "sprite->y = %s;",
	ir.HelperChangeX: "sprite->x += %s;",
	ir.HelperChangeY: "sprite->y += %s;",
}

func (e *Emitter) emitHelpers(b *ir.Block, helpers []ir.Helper) error {
	for i := range helpers {
		if err := e.emitHelper(&helpers[i]); err != nil {
			var de *diag.Error
			if errors.As(err, &de) && de.Where.Target == "" {
				de.Where = diag.Location{Target: b.Target, BlockID: b.SourceID, Opcode: b.Opcode}
			}
			return err
		}
	}
	return nil
}

func (e *Emitter) emitHelper(h *ir.Helper) error {
	if len(h.Args) != h.Op.Arity() {
		return diag.Errorf(diag.EmitFailure, diag.Location{}, "helper %s: %s takes %d args, has %d", h.Name, h.Op, h.Op.Arity(), len(h.Args))
	}
	ret := "ScratchVariable"
	if h.Op.IsEffect() {
		ret = "void"
	}
	var body []string

	switch h.Op {
	case ir.HelperReadNumber:
		body = []string{
			"ScratchVariable result;",
			fmt.Sprintf("Scratch_InitNumberVariable(&result, %s);", e.arg(h.Args[0])),
		}
	case ir.HelperReadString:
		body = []string{
			"ScratchVariable result;",
			fmt.Sprintf("Scratch_InitStringVariable(&result, (char*) %s, /*is_const_str_value=*/ 1);", e.arg(h.Args[0])),
		}
	case ir.HelperReadVariable:
		body = []string{
			"ScratchVariable result;",
			"Scratch_InitVariable(&result);",
			fmt.Sprintf("Scratch_AssignVariable(&result, %s);", e.arg(h.Args[0])),
		}
	case ir.HelperSetVariable:
		body = []string{
			fmt.Sprintf("ScratchVariable num = %s;", e.arg(h.Args[0])),
			fmt.Sprintf("Scratch_AssignVariable(%s, &num);", e.arg(h.Args[1])),
			"",
			"Scratch_FreeVariable(&num);",
		}
	case ir.HelperChangeVariable:
		target := e.arg(h.Args[1])
		body = []string{
			fmt.Sprintf("ScratchVariable num = %s;", e.arg(h.Args[0])),
			fmt.Sprintf("Scratch_AssignNumberVariable(%s, Scratch_ReadNumberVariable(%s) + Scratch_ReadNumberVariable(&num));", target, target),
			"",
			"Scratch_FreeVariable(&num);",
		}
	case ir.HelperSetX, ir.HelperSetY, ir.HelperChangeX, ir.HelperChangeY:
		body = []string{
			fmt.Sprintf("ScratchVariable num = %s;", e.arg(h.Args[0])),
			fmt.Sprintf(motionStmts[h.Op], "(float) Scratch_ReadNumberVariable(&num)"),
			"",
			"Scratch_FreeVariable(&num);",
		}
	case ir.HelperJoin:
		body = []string{
			fmt.Sprintf("ScratchVariable num1 = %s;", e.arg(h.Args[0])),
			fmt.Sprintf("ScratchVariable num2 = %s;", e.arg(h.Args[1])),
			"",
			"ScratchVariable result = Scratch_JoinStringVariables(&num1, &num2);",
			"",
			"Scratch_FreeVariable(&num1);",
			"Scratch_FreeVariable(&num2);",
		}
	case ir.HelperNot:
		body = []string{
			fmt.Sprintf("ScratchVariable num = %s;", e.arg(h.Args[0])),
			"",
			"ScratchVariable result;",
			"Scratch_InitNumberVariable(&result, !Scratch_IsTruthy(&num));",
			"",
			"Scratch_FreeVariable(&num);",
		}
	case ir.HelperMathOp:
		expr, ok := mathExprs[h.Operator]
		if !ok {
			return diag.Errorf(diag.EmitFailure, diag.Location{}, "helper %s: unknown math operator %q", h.Name, h.Operator)
		}
		body = []string{
			fmt.Sprintf("ScratchVariable num = %s;", e.arg(h.Args[0])),
			"",
			"ScratchVariable result;",
			fmt.Sprintf("Scratch_InitNumberVariable(&result, %s);", fmt.Sprintf(expr, "Scratch_ReadNumberVariable(&num)")),
			"",
			"Scratch_FreeVariable(&num);",
		}
	default:
		expr, ok := binaryExprs[h.Op]
		if !ok {
			return diag.Errorf(diag.EmitFailure, diag.Location{}, "helper %s: no C form for %s", h.Name, h.Op)
		}
		body = []string{
			fmt.Sprintf("ScratchVariable num1 = %s;", e.arg(h.Args[0])),
			fmt.Sprintf("ScratchVariable num2 = %s;", e.arg(h.Args[1])),
			"",
			"ScratchVariable result;",
			fmt.Sprintf("Scratch_InitNumberVariable(&result, %s);", expr),
			"",
			"Scratch_FreeVariable(&num1);",
			"Scratch_FreeVariable(&num2);",
		}
	}

	fmt.Fprintf(&e.buf, "static inline %s %s(ScratchSprite* sprite, float dt) {\n", ret, h.Name)
	e.buf.WriteString("  (void) sprite;\n  (void) dt;\n")
	for _, line := range body {
		if line == "" {
			e.buf.WriteString("\n")
			continue
		}
		e.buf.WriteString("  ")
		e.buf.WriteString(line)
		e.buf.WriteString("\n")
	}
	if ret != "void" {
		e.buf.WriteString("  return result;\n")
	}
	e.buf.WriteString("}\n")
	return nil
}

// arg renders a helper argument: helper calls, variable addresses, number
// and string literals.
func (e *Emitter) arg(a ir.Arg) string {
	switch a.Kind {
	case ir.ArgHelper:
		return a.Ref + "(sprite, dt)"
	case ir.ArgVariable:
		return "&" + ir.VariableCName(a.Ref)
	case ir.ArgNumber:
		return ir.FormatNumber(a.Number)
	case ir.ArgString:
		return cString(a.Text)
	}
	return "0"
}

// cString quotes s as a C string literal. Bytes outside printable ASCII
// are written as three-digit octal escapes.
func cString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '?':
			// keeps "??x" from forming a trigraph
			sb.WriteString(`\?`)
		default:
			if c < 0x20 || c >= 0x7f {
				fmt.Fprintf(&sb, `\%03o`, c)
				continue
			}
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
