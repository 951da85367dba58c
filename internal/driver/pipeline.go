// Package driver runs the scratchc pipeline: load a project, lower it to the
// block IR, emit C and write the header/source pair. Lowered programs are
// cached in memory and, optionally, on disk.
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"scratchc/internal/diag"
	"scratchc/internal/emit"
	"scratchc/internal/ir"
	"scratchc/internal/lower"
	"scratchc/internal/observ"
	"scratchc/internal/project"
	"scratchc/internal/sb3"
	"scratchc/internal/trace"
)

// Request describes the compilation of one project document.
type Request struct {
	Input  string
	OutDir string
	// Stem overrides the output base name; defaults to StemFor(Input).
	Stem     string
	Cache    *Cache
	Observer PhaseObserver
}

// Result is the outcome of a successful compilation.
type Result struct {
	Input      string
	Program    *ir.Program
	Files      *emit.Files
	HeaderPath string
	SourcePath string
	CacheHit   bool
	Timer      *observ.Timer
}

// StemFor returns the default output stem of an input path: its base name
// without extension.
func StemFor(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Compile loads, lowers and emits req.Input without touching the output
// directory.
func Compile(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "compile", trace.CurrentSpan(ctx)).
		WithExtra("input", req.Input)
	res, err := compile(ctx, tracer, span.ID(), req)
	if err != nil {
		span.End("failed")
		return nil, err
	}
	span.WithExtra("cache_hit", strconv.FormatBool(res.CacheHit)).End("")
	return res, nil
}

func compile(ctx context.Context, tracer trace.Tracer, parent uint64, req Request) (*Result, error) {
	res := &Result{Input: req.Input, Timer: observ.NewTimer()}

	ph := beginPhase(tracer, parent, res.Timer, req.Observer, req.Input, "load")
	src, err := sb3.Read(req.Input)
	if err != nil {
		ph.end("failed")
		return nil, err
	}
	key := Key(project.Digest(src.Digest))
	prog, hit, cacheErr := req.Cache.Get(key)
	if cacheErr != nil {
		// битый кэш не должен ронять сборку
		trace.Point(tracer, trace.ScopePass, "cache", "read failed: "+cacheErr.Error(), parent)
	}
	var proj *sb3.Project
	if !hit {
		proj, err = src.Decode()
		if err != nil {
			ph.end("failed")
			return nil, err
		}
	}
	ph.end(fmt.Sprintf("%d bytes", len(src.JSON)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ph = beginPhase(tracer, parent, res.Timer, req.Observer, req.Input, "lower")
	if hit {
		res.CacheHit = true
		ph.end("cached")
	} else {
		prog, err = lower.Compile(proj, lower.Options{Tracer: tracer, Parent: parent})
		if err != nil {
			ph.end("failed")
			return nil, withFile(err, req.Input)
		}
		if err := ir.Validate(prog); err != nil {
			ph.end("failed")
			return nil, diag.Wrap(diag.EmitFailure, diag.Location{File: req.Input}, err, "invalid program")
		}
		if err := req.Cache.Put(key, req.Input, prog); err != nil {
			trace.Point(tracer, trace.ScopePass, "cache", "write failed: "+err.Error(), parent)
		}
		ph.end(fmt.Sprintf("%d blocks", len(prog.Blocks)))
	}
	res.Program = prog

	ph = beginPhase(tracer, parent, res.Timer, req.Observer, req.Input, "emit")
	stem := req.Stem
	if stem == "" {
		stem = StemFor(req.Input)
	}
	files, err := emit.C(prog, emit.Options{Stem: stem})
	if err != nil {
		ph.end("failed")
		return nil, withFile(err, req.Input)
	}
	res.Files = files
	ph.end(fmt.Sprintf("%d bytes", len(files.Source)))
	return res, nil
}

// Build compiles req.Input and writes <stem>.h and <stem>.c into req.OutDir.
// Nothing is written when compilation fails.
func Build(ctx context.Context, req Request) (*Result, error) {
	res, err := Compile(ctx, req)
	if err != nil {
		return nil, err
	}
	tracer := trace.FromContext(ctx)
	ph := beginPhase(tracer, trace.CurrentSpan(ctx), res.Timer, req.Observer, req.Input, "write")
	outDir := req.OutDir
	if outDir == "" {
		outDir = "."
	}
	where := diag.Location{File: req.Input}
	res.HeaderPath = filepath.Join(outDir, res.Files.HeaderName)
	res.SourcePath = filepath.Join(outDir, res.Files.SourceName)
	// stem may carry its own subdirectory
	if err := os.MkdirAll(filepath.Dir(res.SourcePath), 0o755); err != nil {
		ph.end("failed")
		return nil, diag.Wrap(diag.ProjWriteFailed, where, err, "cannot create output directory")
	}
	if err := writeFileAtomic(res.HeaderPath, []byte(res.Files.Header)); err != nil {
		ph.end("failed")
		return nil, diag.Wrap(diag.ProjWriteFailed, where, err, "cannot write "+res.HeaderPath)
	}
	if err := writeFileAtomic(res.SourcePath, []byte(res.Files.Source)); err != nil {
		ph.end("failed")
		return nil, diag.Wrap(diag.ProjWriteFailed, where, err, "cannot write "+res.SourcePath)
	}
	ph.end(res.SourcePath)
	return res, nil
}

func withFile(err error, file string) error {
	var de *diag.Error
	if errors.As(err, &de) && de.Where.File == "" {
		de.Where.File = file
	}
	return err
}

func writeFileAtomic(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".scratchc-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Chmod(f.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
