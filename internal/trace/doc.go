// Package trace provides the tracing subsystem of scratchc.
//
// Tracing replaces ad-hoc logging: every pipeline phase opens a span, and
// the lowering pass reports targets and scripts as nested spans.
//
// Enable tracing via command-line flags:
//
//	scratchc build --trace=- --trace-level=detail clock.sb3
//
// # Tracers
//
//   - Nop: zero-overhead tracer used when tracing is disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer, dumped to stderr when a build fails
//   - MultiTracer: combines several tracers
//
// # Levels and scopes
//
// LevelPhase emits driver and pass spans, LevelDetail adds per-target spans,
// LevelDebug adds per-script spans and point events for every emitted block.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "lower", parentID)
//	defer span.End("")
package trace
