package driver

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"scratchc/internal/diag"
	"scratchc/internal/trace"
)

// BatchRequest describes a build of several project documents.
type BatchRequest struct {
	Inputs []string
	OutDir string
	// Stem overrides the output stem; only valid with a single input.
	Stem           string
	Jobs           int
	Cache          *Cache
	MaxDiagnostics int
	Timings        bool
	// Observer is called from worker goroutines.
	Observer PhaseObserver
}

// BatchResult holds per-input results in input order. Results of failed
// inputs are nil; their errors are in Bag.
type BatchResult struct {
	Results []*Result
	Bag     *diag.Bag
}

// BuildAll builds every input in parallel. A failing input does not stop
// the others; its error is recorded in the bag.
func BuildAll(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	bag := diag.NewBag(req.MaxDiagnostics)
	out := &BatchResult{Results: make([]*Result, len(req.Inputs)), Bag: bag}
	if len(req.Inputs) == 0 {
		return out, nil
	}
	if req.Stem != "" && len(req.Inputs) > 1 {
		return nil, fmt.Errorf("output stem %q given for %d inputs", req.Stem, len(req.Inputs))
	}

	// Два входа с одинаковым stem перезаписали бы друг друга.
	stems := make(map[string]string, len(req.Inputs))
	for _, in := range req.Inputs {
		stem := req.Stem
		if stem == "" {
			stem = StemFor(in)
		}
		if prev, ok := stems[stem]; ok {
			return nil, diag.Errorf(diag.ProjWriteFailed, diag.Location{File: in},
				"output %s.c would also be written by %s", stem, prev)
		}
		stems[stem] = in
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "build_all", trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Ошибки по индексу, чтобы не нужен был мьютекс на bag.
	errs := make([]error, len(req.Inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(req.Inputs)))

	for i, in := range req.Inputs {
		i, in := i, in
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := Build(gctx, Request{
				Input:    in,
				OutDir:   req.OutDir,
				Stem:     req.Stem,
				Cache:    req.Cache,
				Observer: req.Observer,
			})
			// индекс i уникален
			out.Results[i] = res
			errs[i] = err
			if req.Observer != nil {
				ev := PhaseEvent{Input: in, Name: PhaseBuild, Status: PhaseEnd, Err: err}
				if res != nil {
					ev.Elapsed = time.Duration(res.Timer.Report().TotalMS * float64(time.Millisecond))
				}
				req.Observer(ev)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.End("cancelled")
		return out, err
	}

	for i, err := range errs {
		if err != nil {
			bag.AddError(req.Inputs[i], err)
			continue
		}
		if req.Timings {
			appendTimingDiagnostic(bag, out.Results[i])
		}
	}
	bag.Sort()
	bag.Dedup()
	span.End(fmt.Sprintf("%d inputs", len(req.Inputs)))
	return out, nil
}
