package devindex

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/devindex-app/devindex-adk/store"
)

// State identifies where a run is in the pipeline's state machine. A run
// starts Idle, moves to Running, and ends in exactly one terminal state.
type State string

const (
	// StateIdle means the run has not started.
	StateIdle State = "idle"

	// StateRunning means a stage is currently executing.
	StateRunning State = "running"

	// StateCompleted means every stage ran and honored its output contract.
	StateCompleted State = "completed"

	// StateHaltedOnPrecheck means validation failed before any stage ran.
	StateHaltedOnPrecheck State = "halted_on_precheck"

	// StateHaltedOnFailure means a stage returned an error during execution.
	StateHaltedOnFailure State = "halted_on_failure"

	// StateHaltedOnMissingOutput means a stage completed without writing one
	// of its promised keys.
	StateHaltedOnMissingOutput State = "halted_on_missing_output"

	// StateCancelled means the caller cancelled the run or its time budget
	// expired. Distinct from the halted states.
	StateCancelled State = "cancelled"
)

// Terminal reports whether s is a final state of the run state machine.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateHaltedOnPrecheck, StateHaltedOnFailure,
		StateHaltedOnMissingOutput, StateCancelled:
		return true
	}
	return false
}

// RunResult contains the outcome of a pipeline run.
type RunResult struct {
	Pipeline      string
	RunID         string
	State         State
	Err           error
	ExecutionTime time.Duration
	// Store is the run's state store after execution; on a halt it retains
	// whatever the completed stages wrote.
	Store *store.KVStore
	// EventCount is the number of events relayed to the sink, terminal
	// events included.
	EventCount int
}

// Success reports whether the run reached StateCompleted.
func (r RunResult) Success() bool { return r.State == StateCompleted }

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for the pipeline's own diagnostics.
func WithLogger(logger Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics attaches prometheus instrumentation to the pipeline.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithTracerProvider makes the pipeline record a span per run and a child
// span per stage on the given provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pipeline) {
		p.tracer = tp.Tracer(tracerName)
	}
}

// WithStageMiddleware appends middleware applied around every stage
// execution, outermost first.
func WithStageMiddleware(middleware ...StageMiddleware) Option {
	return func(p *Pipeline) {
		p.middleware = append(p.middleware, middleware...)
	}
}

// WithTimeout sets a wall-clock budget for the whole run. Exceeding it is
// modeled as cancellation, not as a distinct halted state.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// WithStreamBuffer sets the event channel buffering between a stage and the
// pipeline driver. Zero means fully synchronous hand-off.
func WithStreamBuffer(n int) Option {
	return func(p *Pipeline) {
		p.streamBuffer = n
	}
}
