package lower

import (
	"scratchc/internal/ir"
	"scratchc/internal/sb3"
)

// mergeRun emits one merged-run block for consecutive primitives. Every
// primitive gets its own helper list; the final helper of each list is the
// primitive's effect. A single primitive is still wrapped.
func (s *scope) mergeRun(run []*sb3.Block, level int) (chain, error) {
	ops := make([]ir.InplaceOp, 0, len(run))
	for _, prim := range run {
		if assignsVariable(prim.Opcode) {
			// the assigned variable is registered before its value is flattened
			if _, err := s.resolveField(prim, "VARIABLE"); err != nil {
				return emptyChain, err
			}
		}
		f := s.newFlattener()
		effect, err := f.block(prim)
		if err != nil {
			return emptyChain, err
		}
		ops = append(ops, ir.InplaceOp{
			Opcode:   prim.Opcode,
			SourceID: prim.ID,
			Helpers:  f.helpers,
			Effect:   effect,
		})
	}

	first := run[0]
	id, err := s.addBlock(ir.Block{
		Target:   s.target.Name,
		Op:       ir.OpInPlace,
		Opcode:   first.Opcode,
		SourceID: first.ID,
		TopLevel: first.TopLevel,
		Level:    level,
		MaxLevel: level,
		Inplace:  ops,
		Next:     ir.NoBlockID,
		Substack: ir.NoBlockID,
	}, "Inplace")
	if err != nil {
		return emptyChain, err
	}
	return chain{id: id, max: level}, nil
}
