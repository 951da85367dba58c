package lower

import (
	"scratchc/internal/diag"
	"scratchc/internal/ir"
	"scratchc/internal/sb3"
)

// resolveField resolves the variable selected by a field (VARIABLE) of b.
func (s *scope) resolveField(b *sb3.Block, name string) (string, error) {
	field, ok := b.Field(name)
	if !ok {
		return "", diag.Errorf(diag.LowMissingField, s.where(b), "missing field %s", name)
	}
	if field.ID == "" {
		return "", diag.Errorf(diag.LowMissingField, s.where(b), "field %s carries no variable id", name)
	}
	return s.resolve(b, field.ID)
}

// resolve returns the qualified name of the variable id. The target's own
// table shadows the stage; the stage is tried exactly once.
func (s *scope) resolve(from *sb3.Block, id string) (string, error) {
	if q, ok, err := s.c.register(s.src, id, s.where(from)); ok || err != nil {
		return q, err
	}
	stage, ok := s.c.proj.Stage()
	if !ok {
		return "", diag.Errorf(diag.LowNoStage, s.where(from), "variable %q is not local and the project has no stage", id)
	}
	if q, ok, err := s.c.register(stage, id, s.where(from)); ok || err != nil {
		return q, err
	}
	return "", diag.Errorf(diag.LowUnknownVariable, s.where(from), "variable %q not found in %q or the stage", id, s.src.Name)
}

// register looks id up in t's table. The first resolution of a qualified
// name appends it to the global list; later ones are lookups only. Two
// different variables whose names sanitize to the same identifier are
// rejected.
func (c *compiler) register(t *sb3.Target, id string, where diag.Location) (string, bool, error) {
	decl, ok := t.Variables[id]
	if !ok {
		return "", false, nil
	}
	q := qualify(t.Name, decl.Name)
	if idx, seen := c.vars[q]; seen {
		prev := c.prog.Variables[idx]
		if prev.RawTarget != t.Name || prev.Name != decl.Name {
			return "", false, diag.Errorf(diag.LowNameCollision, where,
				"variable %q of %q and %q of %q both become %s", decl.Name, t.Name, prev.Name, prev.RawTarget, q)
		}
		return q, true, nil
	}
	number, isString := ir.ClassifyLiteral(decl.Value)
	c.vars[q] = len(c.prog.Variables)
	c.prog.Variables = append(c.prog.Variables, ir.Variable{
		Target:        c.idents[t],
		RawTarget:     t.Name,
		Name:          decl.Name,
		QualifiedName: q,
		Value:         decl.Value,
		Number:        number,
		IsString:      isString,
	})
	return q, true, nil
}
