// Package lower linearizes a decoded Scratch project into an ir.Program.
//
// Each sprite's scripts are walked along their next chains and nested
// substacks. Consecutive side-effect primitives collapse into one merged-run
// block whose value expressions are flattened into single-assignment helper
// steps. Variables resolve against the sprite first and the stage second.
//
// Any failure aborts the whole compilation; no partial program is returned.
package lower

import (
	"fmt"
	"strconv"

	"scratchc/internal/diag"
	"scratchc/internal/ir"
	"scratchc/internal/sb3"
	"scratchc/internal/trace"
)

// Options configures a compilation.
type Options struct {
	Tracer trace.Tracer
	// Parent is the span the lowering pass nests under.
	Parent uint64
}

// compiler is the context of one compilation. It owns the growing output
// lists, the variable dedup cache and the helper counters; nothing in it is
// shared between compilations.
type compiler struct {
	proj      *sb3.Project
	prog      *ir.Program
	vars      map[string]int    // qualified name -> index in prog.Variables
	helperSeq map[string]uint32 // per-target helper counter, never reset
	idents    map[*sb3.Target]string
	tracer    trace.Tracer
}

// scope is the per-target view of the compiler.
type scope struct {
	c      *compiler
	src    *sb3.Target
	target ir.Target
	span   uint64
	// claimed holds every source block already placed in the output.
	claimed map[string]bool
}

// Compile linearizes every target of proj.
func Compile(proj *sb3.Project, opts Options) (*ir.Program, error) {
	if proj == nil || len(proj.Targets) == 0 {
		return nil, diag.Errorf(diag.LoadNoTargets, diag.Location{}, "project has no targets")
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	c := &compiler{
		proj: proj,
		prog: &ir.Program{
			Targets: make([]ir.Target, 0, len(proj.Targets)),
		},
		vars:      make(map[string]int),
		helperSeq: make(map[string]uint32),
		idents:    make(map[*sb3.Target]string, len(proj.Targets)),
		tracer:    tracer,
	}

	span := trace.Begin(tracer, trace.ScopePass, "lower", opts.Parent)
	scopes := make([]*scope, 0, len(proj.Targets))
	taken := make(map[string]bool, len(proj.Targets))
	for _, t := range proj.Targets {
		s := c.newScope(t, taken)
		c.prog.Targets = append(c.prog.Targets, s.target)
		scopes = append(scopes, s)
	}
	for _, s := range scopes {
		if err := s.compileScripts(span.ID()); err != nil {
			span.End("failed")
			return nil, err
		}
	}
	span.WithExtra("blocks", strconv.Itoa(len(c.prog.Blocks))).
		WithExtra("variables", strconv.Itoa(len(c.prog.Variables))).
		End("")
	return c.prog, nil
}

// newScope names the target's C identifiers. Targets whose names sanitize
// alike get a numeric suffix in document order.
func (c *compiler) newScope(t *sb3.Target, taken map[string]bool) *scope {
	base := targetIdent(t.Name)
	name := base
	for n := 2; taken[name]; n++ {
		name = base + "_" + strconv.Itoa(n)
	}
	taken[name] = true
	c.idents[t] = name
	return &scope{
		c:   c,
		src: t,
		target: ir.Target{
			Name:      name,
			RawName:   t.Name,
			IsStage:   t.IsStage,
			StateName: "ScratchState_" + name,
		},
		claimed: make(map[string]bool),
	}
}

func (s *scope) compileScripts(parent uint64) error {
	span := trace.Begin(s.c.tracer, trace.ScopeTarget, "target:"+s.target.Name, parent)
	s.span = span.ID()
	first := len(s.c.prog.Blocks)
	for _, top := range s.src.TopLevel() {
		if err := s.compileScript(top); err != nil {
			span.End("failed")
			return err
		}
	}
	span.WithExtra("blocks", strconv.Itoa(len(s.c.prog.Blocks)-first)).End("")
	return nil
}

// compileScript linearizes one top-level script and makes its max level
// shared by every block it produced.
func (s *scope) compileScript(top *sb3.Block) error {
	span := trace.Begin(s.c.tracer, trace.ScopeScript, "script:"+top.ID, s.span)
	first := len(s.c.prog.Blocks)
	head, err := s.linearize(top, 0)
	if err != nil {
		span.End("failed")
		return err
	}
	if !head.id.IsValid() {
		span.End("empty")
		return nil
	}
	blocks := s.c.prog.Blocks[first:]
	deepest := head.max
	for i := range blocks {
		deepest = max(deepest, blocks[i].Level)
	}
	for i := range blocks {
		blocks[i].MaxLevel = deepest
	}
	s.c.prog.Entries = append(s.c.prog.Entries, head.id)
	span.WithExtra("blocks", strconv.Itoa(len(blocks))).
		WithExtra("max_level", strconv.Itoa(deepest)).
		End("")
	return nil
}

// where builds the error location for b.
func (s *scope) where(b *sb3.Block) diag.Location {
	loc := diag.Location{Target: s.src.Name}
	if b != nil {
		loc.BlockID = b.ID
		loc.Opcode = b.Opcode
	}
	return loc
}

// lookup resolves a block id referenced from b.
func (s *scope) lookup(from *sb3.Block, id string) (*sb3.Block, error) {
	blk, ok := s.src.Block(id)
	if !ok {
		return nil, diag.Errorf(diag.LowDanglingBlock, s.where(from), "reference to unknown block %q", id)
	}
	return blk, nil
}

// claim marks b as placed. A block reached twice means the document links
// it from two parents or through a cycle.
func (s *scope) claim(from, b *sb3.Block) error {
	if s.claimed[b.ID] {
		return diag.Errorf(diag.LowBlockReused, s.where(from), "block %q is reached more than once", b.ID)
	}
	s.claimed[b.ID] = true
	return nil
}

// addBlock appends b to the arena, naming it with its arena index.
func (s *scope) addBlock(b ir.Block, label string) (ir.BlockID, error) {
	b.Name = fmt.Sprintf("%s_%s%d", s.target.Name, label, len(s.c.prog.Blocks))
	id, err := s.c.prog.AddBlock(b)
	if err != nil {
		return ir.NoBlockID, diag.Wrap(diag.LowCounterOverflow, diag.Location{Target: s.src.Name, BlockID: b.SourceID}, err, "too many blocks")
	}
	trace.Point(s.c.tracer, trace.ScopeScript, b.Name, b.Op.String(), s.span)
	return id, nil
}
