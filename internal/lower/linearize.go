package lower

import (
	"scratchc/internal/diag"
	"scratchc/internal/ir"
	"scratchc/internal/sb3"
)

// chain is the result of linearizing one next-chain: its head block and the
// deepest nesting level seen in it.
type chain struct {
	id  ir.BlockID
	max int
}

var emptyChain = chain{id: ir.NoBlockID}

// linearize walks the next-chain starting at entry. Mergeable primitives are
// accumulated into a pending run; the first control instruction flushes the
// run into a merged-run block and the rest of the chain hangs off that
// block's next link.
func (s *scope) linearize(entry *sb3.Block, level int) (chain, error) {
	var run []*sb3.Block
	for cur := entry; cur != nil; {
		if err := s.claim(cur, cur); err != nil {
			return emptyChain, err
		}
		next, err := s.next(cur)
		if err != nil {
			return emptyChain, err
		}
		if isMergeable(cur.Opcode) {
			run = append(run, cur)
			cur = next
			continue
		}
		if len(run) == 0 {
			return s.linearizeControl(cur, next, level)
		}

		merged, err := s.mergeRun(run, level)
		if err != nil {
			return emptyChain, err
		}
		rest, err := s.linearizeControl(cur, next, level)
		if err != nil {
			return emptyChain, err
		}
		return s.linkNext(merged, rest), nil
	}
	if len(run) == 0 {
		return emptyChain, nil
	}
	// trailing run, nothing follows it
	return s.mergeRun(run, level)
}

func (s *scope) next(cur *sb3.Block) (*sb3.Block, error) {
	if cur.Next == "" {
		return nil, nil
	}
	return s.lookup(cur, cur.Next)
}

// linearizeControl emits the block for a control or event instruction, then
// its substack at level+1, then the remainder of the chain at level.
func (s *scope) linearizeControl(cur, next *sb3.Block, level int) (chain, error) {
	op, ok := controlOps[cur.Opcode]
	if !ok {
		return emptyChain, diag.Errorf(diag.LowUnsupportedOpcode, s.where(cur), "unsupported opcode %q", cur.Opcode)
	}

	blk := ir.Block{
		Target:   s.target.Name,
		Op:       op,
		Opcode:   cur.Opcode,
		SourceID: cur.ID,
		TopLevel: cur.TopLevel,
		Level:    level,
		MaxLevel: level,
		Next:     ir.NoBlockID,
		Substack: ir.NoBlockID,
	}
	if spec, ok := operandInputs[op]; ok {
		f := s.newFlattener()
		if _, err := f.input(cur, spec.name, spec.optional); err != nil {
			return emptyChain, err
		}
		blk.Operand = f.helpers
	}
	id, err := s.addBlock(blk, cur.Opcode)
	if err != nil {
		return emptyChain, err
	}
	head := chain{id: id, max: level}

	if op.HasSubstack() {
		body, err := s.substack(cur)
		if err != nil {
			return emptyChain, err
		}
		sub, err := s.linearize(body, level+1)
		if err != nil {
			return emptyChain, err
		}
		head = s.linkSubstack(head, sub)
	}

	rest, err := s.linearize(next, level)
	if err != nil {
		return emptyChain, err
	}
	return s.linkNext(head, rest), nil
}

// substack returns the entry block of cur's nested body, or nil when the
// body is empty.
func (s *scope) substack(cur *sb3.Block) (*sb3.Block, error) {
	in, ok := cur.Input(substackInput)
	if !ok || in.Kind == sb3.InputEmpty {
		return nil, nil
	}
	if in.Kind != sb3.InputBlock {
		return nil, diag.Errorf(diag.LowMissingInput, s.where(cur), "substack holds a %s, expected a block", in.Kind)
	}
	return s.lookup(cur, in.BlockID)
}

// linkNext writes parent's next link and unifies the max level of both ends.
func (s *scope) linkNext(parent, child chain) chain {
	if !child.id.IsValid() {
		return parent
	}
	p := s.c.prog.Block(parent.id)
	p.Next = child.id
	return s.unify(parent, child)
}

// linkSubstack writes parent's substack link and unifies the max level.
func (s *scope) linkSubstack(parent, child chain) chain {
	if !child.id.IsValid() {
		return parent
	}
	p := s.c.prog.Block(parent.id)
	p.Substack = child.id
	return s.unify(parent, child)
}

func (s *scope) unify(parent, child chain) chain {
	m := max(parent.max, child.max)
	s.c.prog.Block(parent.id).MaxLevel = m
	s.c.prog.Block(child.id).MaxLevel = m
	return chain{id: parent.id, max: m}
}
