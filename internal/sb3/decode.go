package sb3

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"scratchc/internal/diag"
)

type rawProject struct {
	Targets []rawTarget `json:"targets"`
	Meta    Meta        `json:"meta"`
}

type rawTarget struct {
	Name      string                       `json:"name"`
	IsStage   bool                         `json:"isStage"`
	Variables map[string][]json.RawMessage `json:"variables"`
	Blocks    json.RawMessage              `json:"blocks"`
}

type rawBlock struct {
	Opcode   string                       `json:"opcode"`
	Next     *string                      `json:"next"`
	Parent   *string                      `json:"parent"`
	Inputs   map[string][]json.RawMessage `json:"inputs"`
	Fields   map[string][]json.RawMessage `json:"fields"`
	Shadow   bool                         `json:"shadow"`
	TopLevel bool                         `json:"topLevel"`
}

// Decode parses a project.json document.
func Decode(data []byte) (*Project, error) {
	return decode(data, "")
}

func decode(data []byte, file string) (*Project, error) {
	var raw rawProject
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, diag.Wrap(diag.LoadMalformed, diag.Location{File: file}, err, "cannot parse project.json")
	}
	if len(raw.Targets) == 0 {
		return nil, diag.Errorf(diag.LoadNoTargets, diag.Location{File: file}, "project has no targets")
	}

	p := &Project{
		Targets: make([]*Target, 0, len(raw.Targets)),
		Meta:    raw.Meta,
	}
	for i := range raw.Targets {
		t, err := decodeTarget(&raw.Targets[i])
		if err != nil {
			var de *diag.Error
			if errors.As(err, &de) && de.Where.File == "" {
				de.Where.File = file
			}
			return nil, err
		}
		p.Targets = append(p.Targets, t)
	}
	return p, nil
}

func decodeTarget(rt *rawTarget) (*Target, error) {
	where := diag.Location{Target: rt.Name}
	t := &Target{
		Name:      rt.Name,
		IsStage:   rt.IsStage,
		Variables: make(map[string]VariableDecl, len(rt.Variables)),
		Blocks:    make(map[string]*Block),
	}

	for id, entry := range rt.Variables {
		if len(entry) < 2 {
			return nil, diag.Errorf(diag.LoadMalformed, where, "variable %q: expected [name, value]", id)
		}
		name, err := literalText(entry[0])
		if err != nil {
			return nil, diag.Wrap(diag.LoadMalformed, where, err, fmt.Sprintf("variable %q: bad name", id))
		}
		value, err := literalText(entry[1])
		if err != nil {
			return nil, diag.Wrap(diag.LoadMalformed, where, err, fmt.Sprintf("variable %q: bad value", id))
		}
		decl := VariableDecl{ID: id, Name: name, Value: value}
		if len(entry) > 2 {
			var cloud bool
			if json.Unmarshal(entry[2], &cloud) == nil {
				decl.Cloud = cloud
			}
		}
		t.Variables[id] = decl
	}

	if len(rt.Blocks) == 0 {
		return t, nil
	}
	err := decodeOrderedObject(rt.Blocks, func(id string, val json.RawMessage) error {
		val = bytes.TrimSpace(val)
		// top-level loose reporters are stored as bare arrays; they never run
		if len(val) == 0 || val[0] != '{' {
			return nil
		}
		var rb rawBlock
		if err := json.Unmarshal(val, &rb); err != nil {
			return diag.Wrap(diag.LoadMalformed, diag.Location{Target: rt.Name, BlockID: id}, err, "cannot parse block")
		}
		b, err := decodeBlock(id, &rb)
		if err != nil {
			return diag.Wrap(diag.LoadMalformed, diag.Location{Target: rt.Name, BlockID: id, Opcode: rb.Opcode}, err, "cannot decode block")
		}
		t.Blocks[id] = b
		t.Order = append(t.Order, id)
		return nil
	})
	if err != nil {
		var de *diag.Error
		if errors.As(err, &de) && de.Where.Target == "" {
			de.Where.Target = rt.Name
		}
		return nil, err
	}
	return t, nil
}

func decodeBlock(id string, rb *rawBlock) (*Block, error) {
	b := &Block{
		ID:       id,
		Opcode:   rb.Opcode,
		TopLevel: rb.TopLevel,
		Shadow:   rb.Shadow,
		Inputs:   make(map[string]Input, len(rb.Inputs)),
		Fields:   make(map[string]Field, len(rb.Fields)),
	}
	if rb.Next != nil {
		b.Next = *rb.Next
	}
	if rb.Parent != nil {
		b.Parent = *rb.Parent
	}
	for name, arr := range rb.Inputs {
		in, err := decodeInput(arr)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", name, err)
		}
		b.Inputs[name] = in
	}
	for name, arr := range rb.Fields {
		f, err := decodeField(arr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		b.Fields[name] = f
	}
	return b, nil
}

// decodeInput understands the compressed input form
// [shadow, value, obscuredShadow?] where value is null, a block id or a
// primitive array.
func decodeInput(arr []json.RawMessage) (Input, error) {
	if len(arr) < 2 {
		return Input{}, fmt.Errorf("expected [shadow, value], got %d elements", len(arr))
	}
	var shadow uint8
	if err := json.Unmarshal(arr[0], &shadow); err != nil {
		return Input{}, fmt.Errorf("bad shadow tag: %w", err)
	}
	in := Input{Shadow: ShadowKind(shadow)}

	val := bytes.TrimSpace(arr[1])
	switch {
	case len(val) == 0 || bytes.Equal(val, []byte("null")):
		in.Kind = InputEmpty
		return in, nil
	case val[0] == '"':
		if err := json.Unmarshal(val, &in.BlockID); err != nil {
			return Input{}, err
		}
		in.Kind = InputBlock
		return in, nil
	case val[0] == '[':
		return decodePrimitive(in, val)
	}
	return Input{}, fmt.Errorf("unexpected input value %s", val)
}

func decodePrimitive(in Input, val json.RawMessage) (Input, error) {
	var prim []json.RawMessage
	if err := json.Unmarshal(val, &prim); err != nil {
		return Input{}, err
	}
	if len(prim) < 2 {
		return Input{}, fmt.Errorf("primitive needs at least [type, value]")
	}
	var kind uint8
	if err := json.Unmarshal(prim[0], &kind); err != nil {
		return Input{}, fmt.Errorf("bad primitive tag: %w", err)
	}
	in.Prim = PrimitiveKind(kind)

	text, err := literalText(prim[1])
	if err != nil {
		return Input{}, err
	}

	switch {
	case in.Prim.IsLiteral():
		in.Kind = InputLiteral
		in.Text = text
	case in.Prim == PrimBroadcast || in.Prim == PrimVariable || in.Prim == PrimList:
		if len(prim) < 3 {
			return Input{}, fmt.Errorf("reference primitive %d needs [type, name, id]", kind)
		}
		id, err := literalText(prim[2])
		if err != nil {
			return Input{}, err
		}
		in.RefName, in.RefID = text, id
		switch in.Prim {
		case PrimVariable:
			in.Kind = InputVariable
		case PrimList:
			in.Kind = InputList
		default:
			in.Kind = InputBroadcast
		}
	default:
		return Input{}, fmt.Errorf("unknown primitive type %d", kind)
	}
	return in, nil
}

func decodeField(arr []json.RawMessage) (Field, error) {
	if len(arr) == 0 {
		return Field{}, fmt.Errorf("empty field")
	}
	value, err := literalText(arr[0])
	if err != nil {
		return Field{}, err
	}
	f := Field{Value: value}
	if len(arr) > 1 {
		if f.ID, err = literalText(arr[1]); err != nil {
			return Field{}, err
		}
	}
	return f, nil
}

// literalText returns the textual form of a JSON scalar. Numbers keep their
// JSON spelling so that the numeric/string classification downstream sees
// exactly what the editor stored.
func literalText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("expected a scalar, got %s", abbreviate(raw))
	}
	return string(raw), nil
}

// decodeOrderedObject walks a JSON object calling fn for every member in
// document order.
func decodeOrderedObject(data json.RawMessage, fn func(key string, val json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return diag.Wrap(diag.LoadMalformed, diag.Location{}, err, "cannot read blocks")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return diag.Errorf(diag.LoadMalformed, diag.Location{}, "blocks must be an object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return diag.Wrap(diag.LoadMalformed, diag.Location{}, err, "cannot read block id")
		}
		key, ok := keyTok.(string)
		if !ok {
			return diag.Errorf(diag.LoadMalformed, diag.Location{}, "unexpected token %v in blocks", keyTok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return diag.Wrap(diag.LoadMalformed, diag.Location{BlockID: key}, err, "cannot read block")
		}
		if err := fn(key, val); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return diag.Wrap(diag.LoadMalformed, diag.Location{}, err, "unterminated blocks object")
	}
	return nil
}

func abbreviate(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 32 {
		return s[:29] + "..."
	}
	return s
}
