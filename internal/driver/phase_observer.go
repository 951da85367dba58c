package driver

import (
	"time"

	"scratchc/internal/observ"
	"scratchc/internal/trace"
)

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a build phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a timing phase boundary.
type PhaseEvent struct {
	Input   string
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
	// Err is set on the final "build" event of a failed input.
	Err error
}

// PhaseBuild names the event closing the whole build of one input.
const PhaseBuild = "build"

// PhaseObserver receives phase events emitted during Compile and Build.
type PhaseObserver func(PhaseEvent)

// phase brackets one pipeline step: timer entry, pass span and observer
// notifications share the same boundaries.
type phase struct {
	name    string
	input   string
	idx     int
	started time.Time
	timer   *observ.Timer
	span    *trace.Span
	notify  PhaseObserver
}

func beginPhase(tracer trace.Tracer, parent uint64, timer *observ.Timer, notify PhaseObserver, input, name string) *phase {
	p := &phase{
		name:    name,
		input:   input,
		idx:     timer.Begin(name),
		started: time.Now(),
		timer:   timer,
		span:    trace.Begin(tracer, trace.ScopePass, name, parent),
		notify:  notify,
	}
	if notify != nil {
		notify(PhaseEvent{Input: input, Name: name, Status: PhaseStart})
	}
	return p
}

func (p *phase) end(note string) {
	p.timer.End(p.idx, note)
	p.span.End(note)
	if p.notify != nil {
		p.notify(PhaseEvent{Input: p.input, Name: p.name, Status: PhaseEnd, Elapsed: time.Since(p.started)})
	}
}
