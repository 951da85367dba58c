// Package sb3 decodes Scratch 3 projects (.sb3 archives or bare project.json
// documents) into the in-memory tree consumed by the lowering pass.
package sb3

// Project is a decoded project document.
type Project struct {
	Targets []*Target
	Meta    Meta
}

// Meta mirrors the "meta" object of project.json.
type Meta struct {
	Semver string `json:"semver"`
	VM     string `json:"vm"`
	Agent  string `json:"agent"`
}

// Target is one sprite or the stage.
type Target struct {
	Name      string
	IsStage   bool
	Variables map[string]VariableDecl
	Blocks    map[string]*Block
	// Order keeps block ids in document order; map iteration order is not
	// stable and top-level scripts must be visited deterministically.
	Order []string
}

// VariableDecl is one entry of a target's variable table.
type VariableDecl struct {
	ID    string
	Name  string
	Value string // literal as text, numbers keep their JSON spelling
	Cloud bool
}

// Block is one instruction record.
type Block struct {
	ID       string
	Opcode   string
	Next     string
	Parent   string
	TopLevel bool
	Shadow   bool
	Inputs   map[string]Input
	Fields   map[string]Field
}

// Field is a static selector, e.g. VARIABLE: ["score", "id"] or
// OPERATOR: ["sqrt", null].
type Field struct {
	Value string
	ID    string
}

// ShadowKind is the first element of a compressed input array.
type ShadowKind uint8

const (
	ShadowSame     ShadowKind = 1 // input holds its own shadow
	ShadowNone     ShadowKind = 2 // block without shadow
	ShadowObscured ShadowKind = 3 // block covering a shadow
)

// PrimitiveKind is the type tag of an inline primitive.
type PrimitiveKind uint8

const (
	PrimNone        PrimitiveKind = 0
	PrimMathNumber  PrimitiveKind = 4
	PrimPositiveNum PrimitiveKind = 5
	PrimWholeNumber PrimitiveKind = 6
	PrimInteger     PrimitiveKind = 7
	PrimAngle       PrimitiveKind = 8
	PrimColor       PrimitiveKind = 9
	PrimText        PrimitiveKind = 10
	PrimBroadcast   PrimitiveKind = 11
	PrimVariable    PrimitiveKind = 12
	PrimList        PrimitiveKind = 13
)

// IsLiteral reports whether k tags a plain literal (number, angle, color or
// text). Scratch stores all of them as text.
func (k PrimitiveKind) IsLiteral() bool {
	return k >= PrimMathNumber && k <= PrimText
}

// InputKind classifies what an input points to.
type InputKind uint8

const (
	InputEmpty     InputKind = iota // null value, e.g. an empty boolean slot
	InputLiteral                    // shadow literal, Text holds the value
	InputBlock                      // nested block, BlockID holds the id
	InputVariable                   // inline variable reference
	InputList                       // inline list reference
	InputBroadcast                  // inline broadcast reference
)

func (k InputKind) String() string {
	switch k {
	case InputEmpty:
		return "empty"
	case InputLiteral:
		return "literal"
	case InputBlock:
		return "block"
	case InputVariable:
		return "variable"
	case InputList:
		return "list"
	case InputBroadcast:
		return "broadcast"
	}
	return "unknown"
}

// Input is one decoded entry of a block's inputs mapping.
type Input struct {
	Shadow  ShadowKind
	Kind    InputKind
	Prim    PrimitiveKind
	Text    string // literal text for InputLiteral
	BlockID string // for InputBlock
	RefName string // for variable/list/broadcast references
	RefID   string
}

// Block returns the block with the given id.
func (t *Target) Block(id string) (*Block, bool) {
	if t == nil || id == "" {
		return nil, false
	}
	b, ok := t.Blocks[id]
	return b, ok
}

// TopLevel returns the top-level blocks of the target in document order.
func (t *Target) TopLevel() []*Block {
	if t == nil {
		return nil
	}
	out := make([]*Block, 0, 4)
	for _, id := range t.Order {
		if b := t.Blocks[id]; b != nil && b.TopLevel {
			out = append(out, b)
		}
	}
	return out
}

// Stage returns the stage target.
func (p *Project) Stage() (*Target, bool) {
	if p == nil {
		return nil, false
	}
	for _, t := range p.Targets {
		if t.IsStage {
			return t, true
		}
	}
	return nil, false
}

// Input returns the named input.
func (b *Block) Input(name string) (Input, bool) {
	if b == nil {
		return Input{}, false
	}
	in, ok := b.Inputs[name]
	return in, ok
}

// Field returns the named field.
func (b *Block) Field(name string) (Field, bool) {
	if b == nil {
		return Field{}, false
	}
	f, ok := b.Fields[name]
	return f, ok
}
