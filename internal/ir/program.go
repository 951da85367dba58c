package ir

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// BlockID addresses a block in Program.Blocks.
type BlockID int32

// NoBlockID marks an absent next/substack link.
const NoBlockID BlockID = -1

func (id BlockID) IsValid() bool { return id >= 0 }

// Target is one sprite or the stage.
type Target struct {
	Name      string // sanitized, used as identifier prefix
	RawName   string // as written in the project
	IsStage   bool
	StateName string // C storage of the sprite position
}

// Variable is a resolved, globally unique variable.
type Variable struct {
	Target        string // owning target (sanitized)
	RawTarget     string // owning target as written in the project
	Name          string // identifier as written in the project
	QualifiedName string // <target>_<identifier>
	Value         string // literal as text
	Number        float64
	IsString      bool
}

// CName is the C storage of the variable.
func (v Variable) CName() string { return VariableCName(v.QualifiedName) }

// VariableCName mangles a qualified variable name into a C identifier of its
// own namespace. Names made of [A-Za-z0-9_] keep their spelling under
// ScratchVar_; any other name goes under ScratchVarX_ with '_' doubled and
// every rune outside [A-Za-z0-9] written as _<hex>_, so distinct names never
// meet.
func VariableCName(qualified string) string {
	plain := true
	for i := 0; i < len(qualified); i++ {
		if c := qualified[i]; c != '_' && !isAlnum(c) {
			plain = false
			break
		}
	}
	if plain {
		return "ScratchVar_" + qualified
	}
	var sb strings.Builder
	sb.Grow(len(qualified) + 16)
	sb.WriteString("ScratchVarX_")
	for _, r := range qualified {
		switch {
		case r == '_':
			sb.WriteString("__")
		case r < 0x80 && isAlnum(byte(r)):
			sb.WriteRune(r)
		default:
			fmt.Fprintf(&sb, "_%x_", r)
		}
	}
	return sb.String()
}

func isAlnum(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// ArgKind tells what a helper argument refers to.
type ArgKind uint8

const (
	ArgHelper ArgKind = iota + 1
	ArgVariable
	ArgNumber
	ArgString
)

func (k ArgKind) String() string {
	switch k {
	case ArgHelper:
		return "helper"
	case ArgVariable:
		return "var"
	case ArgNumber:
		return "num"
	case ArgString:
		return "str"
	}
	return "invalid"
}

// Arg is one helper argument.
type Arg struct {
	Kind   ArgKind
	Ref    string // helper name or variable qualified name
	Number float64
	Text   string
}

func HelperArg(name string) Arg { return Arg{Kind: ArgHelper, Ref: name} }
func VariableArg(qualified string) Arg { return Arg{Kind: ArgVariable, Ref: qualified} }
func NumberArg(v float64) Arg { return Arg{Kind: ArgNumber, Number: v} }
func StringArg(s string) Arg { return Arg{Kind: ArgString, Text: s} }

func (a Arg) String() string {
	switch a.Kind {
	case ArgHelper, ArgVariable:
		return a.Ref
	case ArgNumber:
		return FormatNumber(a.Number)
	case ArgString:
		return strconv.Quote(a.Text)
	}
	return "<invalid>"
}

// Helper is one single-assignment expression step.
type Helper struct {
	Op       HelperOp
	Operator string // operator_mathop only: identifier of the unary operator
	Name     string
	Args     []Arg
}

// InplaceOp is one primitive of a merged run together with its helpers.
// Effect names the final helper, which drives the primitive.
type InplaceOp struct {
	Opcode   string
	SourceID string
	Helpers  []Helper
	Effect   string
}

// Block is one linearized instruction.
type Block struct {
	Target   string
	Op       BlockOp
	Opcode   string // source opcode; for merged runs the opcode of the first primitive
	SourceID string // source block id; for merged runs the id of the first primitive
	TopLevel bool
	Level    int
	MaxLevel int
	Inplace  []InplaceOp
	Operand  []Helper // flattened value input of a control block (condition, duration, count)
	Name     string
	Next     BlockID
	Substack BlockID
}

// OperandResult names the helper producing the control block's value, or "".
func (b *Block) OperandResult() string {
	if b == nil || len(b.Operand) == 0 {
		return ""
	}
	return b.Operand[len(b.Operand)-1].Name
}

// Program is the complete output of one compilation.
type Program struct {
	Targets   []Target
	Blocks    []Block
	Variables []Variable
	// Entries are the heads of the top-level scripts in visiting order.
	Entries []BlockID
}

// AddBlock appends b to the arena and returns its id.
func (p *Program) AddBlock(b Block) (BlockID, error) {
	id, err := safecast.Conv[int32](len(p.Blocks))
	if err != nil {
		return NoBlockID, fmt.Errorf("block arena overflow: %w", err)
	}
	p.Blocks = append(p.Blocks, b)
	return BlockID(id), nil
}

// Block returns the block with the given id, or nil.
func (p *Program) Block(id BlockID) *Block {
	if p == nil || !id.IsValid() || int(id) >= len(p.Blocks) {
		return nil
	}
	return &p.Blocks[id]
}

// BlockName returns the generated name of the block id refers to, or "".
func (p *Program) BlockName(id BlockID) string {
	if b := p.Block(id); b != nil {
		return b.Name
	}
	return ""
}

// MaxLevel is the deepest nesting level of any block.
func (p *Program) MaxLevel() int {
	level := 0
	for i := range p.Blocks {
		level = max(level, p.Blocks[i].MaxLevel)
	}
	return level
}

// Helpers calls fn for every helper of the program in emission order.
func (p *Program) Helpers(fn func(b *Block, h *Helper)) {
	for i := range p.Blocks {
		b := &p.Blocks[i]
		for j := range b.Operand {
			fn(b, &b.Operand[j])
		}
		for j := range b.Inplace {
			for k := range b.Inplace[j].Helpers {
				fn(b, &b.Inplace[j].Helpers[k])
			}
		}
	}
}

// ClassifyLiteral parses the textual literal as a float. Scratch stores
// every literal as text, so a successful parse is the only way to tell a
// number from a string. Variables and literal reads share this rule.
//
// Only decimal text counts: hex floats are strings, underscores must sit
// between two digits, and a finite literal beyond float64 range reads as
// ±Inf.
func ClassifyLiteral(text string) (value float64, isString bool) {
	text, ok := decimalText(strings.TrimSpace(text))
	if !ok {
		return 0, true
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, true
	}
	return v, false
}

// decimalText drops digit separators from text and reports whether it can
// be handed to strconv.ParseFloat as a decimal literal.
func decimalText(text string) (string, bool) {
	digits := strings.TrimLeft(text, "+-")
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return "", false
	}
	if !strings.Contains(text, "_") {
		return text, true
	}
	for i := 0; i < len(text); i++ {
		if text[i] != '_' {
			continue
		}
		if i == 0 || i == len(text)-1 || !isDigit(text[i-1]) || !isDigit(text[i+1]) {
			return "", false
		}
	}
	return strings.ReplaceAll(text, "_", ""), true
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// FormatNumber renders v as a C double literal.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NAN"
	case math.IsInf(v, 1):
		return "INFINITY"
	case math.IsInf(v, -1):
		return "-INFINITY"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
