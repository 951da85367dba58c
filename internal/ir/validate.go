package ir

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of a linearized program:
// unique block, helper and variable names, links inside the arena,
// helpers referencing only earlier helpers and known variables, and a
// single max level per connected script. All generated C names share one
// file scope, so they must also be distinct across kinds.
func Validate(p *Program) error {
	if p == nil {
		return nil
	}
	var errs []error
	report := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	vars := make(map[string]struct{}, len(p.Variables))
	for _, v := range p.Variables {
		if _, dup := vars[v.QualifiedName]; dup {
			report("variable %s registered twice", v.QualifiedName)
		}
		vars[v.QualifiedName] = struct{}{}
	}

	blockNames := make(map[string]struct{}, len(p.Blocks))
	helpers := make(map[string]struct{})
	for i := range p.Blocks {
		b := &p.Blocks[i]
		if b.Name == "" {
			report("block #%d has no name", i)
		} else if _, dup := blockNames[b.Name]; dup {
			report("block name %s used twice", b.Name)
		}
		blockNames[b.Name] = struct{}{}

		if b.Next != NoBlockID && p.Block(b.Next) == nil {
			report("block %s: next link %d out of range", b.Name, b.Next)
		}
		if b.Substack != NoBlockID && p.Block(b.Substack) == nil {
			report("block %s: substack link %d out of range", b.Name, b.Substack)
		}
		if b.Substack != NoBlockID && !b.Op.HasSubstack() {
			report("block %s: %s cannot own a substack", b.Name, b.Op)
		}
		if (b.Op == OpInPlace) != (len(b.Inplace) > 0) {
			report("block %s: op %s with %d merged primitives", b.Name, b.Op, len(b.Inplace))
		}
		if b.MaxLevel < b.Level {
			report("block %s: max level %d below own level %d", b.Name, b.MaxLevel, b.Level)
		}

		checkHelpers := func(list []Helper) {
			for j := range list {
				h := &list[j]
				if _, dup := helpers[h.Name]; dup {
					report("helper name %s used twice", h.Name)
				}
				if len(h.Args) != h.Op.Arity() {
					report("helper %s: %s takes %d args, has %d", h.Name, h.Op, h.Op.Arity(), len(h.Args))
				}
				for _, a := range h.Args {
					switch a.Kind {
					case ArgHelper:
						if _, ok := helpers[a.Ref]; !ok {
							report("helper %s references %s before it is defined", h.Name, a.Ref)
						}
					case ArgVariable:
						if _, ok := vars[a.Ref]; !ok {
							report("helper %s references unknown variable %s", h.Name, a.Ref)
						}
					}
				}
				helpers[h.Name] = struct{}{}
			}
		}
		checkHelpers(b.Operand)
		for _, op := range b.Inplace {
			checkHelpers(op.Helpers)
			if len(op.Helpers) == 0 {
				report("block %s: primitive %s has no helpers", b.Name, op.Opcode)
				continue
			}
			if last := op.Helpers[len(op.Helpers)-1].Name; op.Effect != last {
				report("block %s: effect %s is not the final helper %s", b.Name, op.Effect, last)
			}
		}
	}

	for _, entry := range p.Entries {
		validateScript(p, entry, report)
	}
	validateCNames(p, report)
	return errors.Join(errs...)
}

// validateCNames reports C names claimed by two different kinds of storage
// or function. Duplicates within one kind are reported above.
func validateCNames(p *Program, report func(string, ...any)) {
	owners := make(map[string]string)
	claim := func(name, kind string) {
		if name == "" {
			return
		}
		if prev, ok := owners[name]; ok && prev != kind {
			report("C name %s used by %s and %s", name, prev, kind)
			return
		}
		owners[name] = kind
	}
	for _, v := range p.Variables {
		claim(v.CName(), "variable "+v.QualifiedName)
	}
	for i, t := range p.Targets {
		claim(t.StateName, fmt.Sprintf("sprite state #%d", i))
	}
	for i := range p.Blocks {
		b := &p.Blocks[i]
		claim(b.Name, "block")
		if b.Op == OpInPlace {
			claim(b.Name+"_function", "block function")
		}
	}
	p.Helpers(func(_ *Block, h *Helper) {
		claim(h.Name, "helper")
	})
}

func validateScript(p *Program, entry BlockID, report func(string, ...any)) {
	head := p.Block(entry)
	if head == nil {
		report("entry %d out of range", entry)
		return
	}
	deepest := 0
	seen := make(map[BlockID]bool)
	stack := []BlockID{entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !id.IsValid() || seen[id] {
			continue
		}
		b := p.Block(id)
		if b == nil {
			continue
		}
		seen[id] = true
		deepest = max(deepest, b.Level)
		if b.MaxLevel != head.MaxLevel {
			report("block %s: max level %d differs from script head %s (%d)", b.Name, b.MaxLevel, head.Name, head.MaxLevel)
		}
		stack = append(stack, b.Next, b.Substack)
	}
	if head.MaxLevel != deepest {
		report("script %s: max level %d, deepest block is at %d", head.Name, head.MaxLevel, deepest)
	}
}
