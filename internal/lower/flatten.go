package lower

import (
	"fmt"
	"math"

	"scratchc/internal/diag"
	"scratchc/internal/ir"
	"scratchc/internal/sb3"
)

// flattener decomposes one value expression into single-assignment helpers.
// Every method returns the name of the helper producing its value; that
// helper is always the last one appended so far.
type flattener struct {
	s       *scope
	helpers []ir.Helper
}

func (s *scope) newFlattener() *flattener {
	return &flattener{s: s}
}

// input flattens the named input of b. Optional inputs that are absent or
// empty read as numeric zero, which Scratch treats as false.
func (f *flattener) input(b *sb3.Block, name string, optional bool) (string, error) {
	in, ok := b.Input(name)
	if !ok || in.Kind == sb3.InputEmpty {
		if optional || ok {
			return f.emit(ir.HelperReadNumber, "", ir.NumberArg(0))
		}
		return "", diag.Errorf(diag.LowMissingInput, f.s.where(b), "missing input %s", name)
	}
	return f.value(b, in)
}

// value dispatches on the input tag.
func (f *flattener) value(owner *sb3.Block, in sb3.Input) (string, error) {
	switch in.Kind {
	case sb3.InputLiteral:
		v, isString := ir.ClassifyLiteral(in.Text)
		if isString {
			return f.emit(ir.HelperReadString, "", ir.StringArg(in.Text))
		}
		return f.emit(ir.HelperReadNumber, "", ir.NumberArg(v))
	case sb3.InputVariable:
		q, err := f.s.resolve(owner, in.RefID)
		if err != nil {
			return "", err
		}
		return f.emit(ir.HelperReadVariable, "", ir.VariableArg(q))
	case sb3.InputBlock:
		nested, err := f.s.lookup(owner, in.BlockID)
		if err != nil {
			return "", err
		}
		if err := f.s.claim(owner, nested); err != nil {
			return "", err
		}
		return f.block(nested)
	}
	return "", diag.Errorf(diag.LowUnsupportedOpcode, f.s.where(owner), "%s inputs are not supported", in.Kind)
}

// block flattens a nested instruction.
func (f *flattener) block(b *sb3.Block) (string, error) {
	op := exprOps[b.Opcode]
	switch op {
	case exprSetVariable, exprChangeVariable:
		target, err := f.s.resolveField(b, "VARIABLE")
		if err != nil {
			return "", err
		}
		value, err := f.input(b, "VALUE", false)
		if err != nil {
			return "", err
		}
		hop := ir.HelperSetVariable
		if op == exprChangeVariable {
			hop = ir.HelperChangeVariable
		}
		return f.emit(hop, "", ir.HelperArg(value), ir.VariableArg(target))

	case exprSetX, exprSetY, exprChangeX, exprChangeY:
		rule := motionRules[op]
		value, err := f.input(b, rule.input, false)
		if err != nil {
			return "", err
		}
		return f.emit(rule.op, "", ir.HelperArg(value))

	case exprReadVariable:
		q, err := f.s.resolveField(b, "VARIABLE")
		if err != nil {
			return "", err
		}
		return f.emit(ir.HelperReadVariable, "", ir.VariableArg(q))

	case exprMathOp:
		field, ok := b.Field("OPERATOR")
		if !ok {
			return "", diag.Errorf(diag.LowMissingField, f.s.where(b), "missing field OPERATOR")
		}
		operator, ok := ir.MathOperators[field.Value]
		if !ok {
			return "", diag.Errorf(diag.LowUnsupportedOpcode, f.s.where(b), "unsupported math operator %q", field.Value)
		}
		operand, err := f.input(b, "NUM", false)
		if err != nil {
			return "", err
		}
		return f.emit(ir.HelperMathOp, operator, ir.HelperArg(operand))

	case exprNot:
		operand, err := f.input(b, "OPERAND", true)
		if err != nil {
			return "", err
		}
		return f.emit(ir.HelperNot, "", ir.HelperArg(operand))

	case exprAdd, exprSubtract, exprMultiply, exprDivide, exprJoin,
		exprLessThan, exprGreaterThan, exprEquals, exprAnd, exprOr:
		rule := binaryRules[op]
		// left operand is fully flattened before any helper of the right one
		lhs, err := f.input(b, rule.lhs, rule.optional)
		if err != nil {
			return "", err
		}
		rhs, err := f.input(b, rule.rhs, rule.optional)
		if err != nil {
			return "", err
		}
		return f.emit(rule.op, "", ir.HelperArg(lhs), ir.HelperArg(rhs))

	default:
		return "", diag.Errorf(diag.LowUnsupportedOpcode, f.s.where(b), "cannot flatten opcode %q", b.Opcode)
	}
}

// emit appends a helper named <target>_<op>_helper_<n>. For unary math
// operators the operator identifier replaces the op name.
func (f *flattener) emit(op ir.HelperOp, operator string, args ...ir.Arg) (string, error) {
	n, err := f.s.nextHelper()
	if err != nil {
		return "", err
	}
	label := op.String()
	if operator != "" {
		label = operator
	}
	name := fmt.Sprintf("%s_%s_helper_%d", f.s.target.Name, label, n)
	f.helpers = append(f.helpers, ir.Helper{
		Op:       op,
		Operator: operator,
		Name:     name,
		Args:     args,
	})
	return name, nil
}

// nextHelper hands out the next value of the target's helper counter.
func (s *scope) nextHelper() (uint32, error) {
	n := s.c.helperSeq[s.target.Name]
	if n == math.MaxUint32 {
		return 0, diag.Errorf(diag.LowCounterOverflow, diag.Location{Target: s.src.Name}, "helper counter exhausted")
	}
	s.c.helperSeq[s.target.Name] = n + 1
	return n, nil
}
