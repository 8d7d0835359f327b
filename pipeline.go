package devindex

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/devindex-app/devindex-adk/store"
)

const tracerName = "github.com/devindex-app/devindex-adk"

// Pipeline composes an ordered sequence of stages into one runnable process.
// It owns the run context, drives each stage's event stream to exhaustion
// while relaying events to the sink in order, enforces required-output checks
// between stages, and decides continue or halt. Stages execute strictly
// sequentially; the pipeline never invokes two stages concurrently within one
// run. A single Pipeline value may serve many concurrent runs, each with its
// own run context, store and stream.
type Pipeline struct {
	name   string
	stages []Stage

	logger       Logger
	metrics      *Metrics
	tracer       trace.Tracer
	middleware   []StageMiddleware
	timeout      time.Duration
	streamBuffer int
}

// New creates a pipeline with the given name and options.
func New(name string, opts ...Option) *Pipeline {
	p := &Pipeline{
		name:   name,
		logger: NewDefaultLogger(),
		tracer: noop.NewTracerProvider().Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the pipeline's name.
func (p *Pipeline) Name() string { return p.name }

// AddStage appends a stage to the pipeline. Stages run in the order they are
// added.
func (p *Pipeline) AddStage(stage Stage) {
	p.stages = append(p.stages, stage)
}

// Stages returns the pipeline's stages in execution order.
func (p *Pipeline) Stages() []Stage { return p.stages }

// Use adds middleware to the pipeline's stage middleware chain. Middleware is
// executed in the order it is added.
func (p *Pipeline) Use(middleware ...StageMiddleware) {
	p.middleware = append(p.middleware, middleware...)
}

// Validate checks that every stage's required keys are satisfiable from the
// initial keys plus the outputs of all stages ordered before it. It returns a
// *PrecheckError naming the first offending stage, or an error when the
// pipeline has no stages. Run performs the same check before starting.
func (p *Pipeline) Validate(initialKeys []string) error {
	if len(p.stages) == 0 {
		return fmt.Errorf("pipeline '%s' has no stages to execute", p.name)
	}

	available := make(map[string]bool, len(initialKeys))
	for _, k := range initialKeys {
		available[k] = true
	}

	for _, stage := range p.stages {
		var missing []string
		for _, k := range stage.Requires() {
			if !available[k] {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return &PrecheckError{Pipeline: p.name, Stage: stage.Name(), Missing: missing}
		}
		for _, k := range stage.Produces() {
			available[k] = true
		}
	}

	return nil
}

// Run executes the pipeline once against the initial store, relaying every
// stage event to sink in emission order. The returned result carries the
// terminal state, the final store and the terminal error, if any. Run never
// retries; re-invoking the pipeline with adjusted initial state is the
// caller's responsibility.
func (p *Pipeline) Run(ctx context.Context, initial *store.KVStore, sink EventSink) RunResult {
	start := time.Now()

	if ctx == nil {
		ctx = context.Background()
	}
	if initial == nil {
		initial = store.NewKVStore()
	}
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}

	result := RunResult{
		Pipeline: p.name,
		RunID:    uuid.NewString(),
		State:    StateIdle,
		Store:    initial,
	}

	if err := p.Validate(initial.ListKeys()); err != nil {
		p.logger.Error("pipeline %s precheck failed: %v", p.name, err)
		var stageName string
		if pe, ok := err.(*PrecheckError); ok {
			stageName = pe.Stage
		}
		result.EventCount++
		sink.Emit(p.terminalEvent(result.RunID, stageName, err.Error()))
		result.State = StateHaltedOnPrecheck
		result.Err = err
		result.ExecutionTime = time.Since(start)
		p.metrics.observeRun(p.name, result.State)
		return result
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("pipeline.name", p.name),
		attribute.String("pipeline.run_id", result.RunID),
	))
	defer span.End()

	rc := &RunContext{
		ctx:    ctx,
		runID:  result.RunID,
		store:  initial,
		logger: p.logger,
	}

	// Build the stage runner with middleware applied in reverse order.
	runner := func(rc *RunContext, stage Stage) error {
		return stage.Run(rc)
	}
	for i := len(p.middleware) - 1; i >= 0; i-- {
		runner = p.middleware[i](runner)
	}

	result.State = StateRunning
	p.logger.Info("Starting pipeline: %s (%s)", p.name, result.RunID)

	for i, stage := range p.stages {
		if ctx.Err() != nil {
			return p.finish(span, start, result, StateCancelled, ctx.Err())
		}

		p.logger.Debug("Executing stage %d/%d: %s", i+1, len(p.stages), stage.Name())
		rc.enterBranch(p.name, stage.Name())

		stageStart := time.Now()
		relayed, err := p.driveStage(ctx, rc, stage, runner, sink)
		result.EventCount += relayed
		p.metrics.observeStage(p.name, stage.Name(), time.Since(stageStart))
		p.metrics.observeEvents(p.name, stage.Name(), relayed)

		if err != nil {
			if ctx.Err() != nil {
				// Caller cancellation or timeout: stop at the yield point the
				// stage already reached and emit nothing further.
				return p.finish(span, start, result, StateCancelled, ctx.Err())
			}
			stageErr := &StageError{Stage: stage.Name(), Err: err}
			p.logger.Error("%v", stageErr)
			result.EventCount++
			sink.Emit(p.terminalEvent(result.RunID, stage.Name(), stageErr.Error()))
			return p.finish(span, start, result, StateHaltedOnFailure, stageErr)
		}

		if missing := missingKeys(stage.Produces(), initial); len(missing) > 0 {
			outErr := &MissingOutputError{Stage: stage.Name(), Missing: missing}
			p.logger.Error("%v", outErr)
			result.EventCount++
			sink.Emit(p.terminalEvent(result.RunID, stage.Name(), outErr.Error()))
			return p.finish(span, start, result, StateHaltedOnMissingOutput, outErr)
		}

		p.logger.Info("Completed stage %d/%d: %s", i+1, len(p.stages), stage.Name())
	}

	summary := NewEvent(EventSummary, fmt.Sprintf("pipeline '%s' completed: %d stage(s) run", p.name, len(p.stages)))
	summary.RunID = result.RunID
	result.EventCount++
	sink.Emit(summary)

	p.logger.Info("Pipeline completed successfully: %s", p.name)
	return p.finish(span, start, result, StateCompleted, nil)
}

// driveStage launches the stage and drains its event stream, relaying every
// event to the sink in order. It returns once the stream is exhausted, so the
// stage goroutine has fully terminated before the next stage can start and
// partially consumed streams cannot occur.
func (p *Pipeline) driveStage(ctx context.Context, rc *RunContext, stage Stage, runner StageRunnerFunc, sink EventSink) (int, error) {
	stream := newEventStream(p.streamBuffer)
	rc.stream = stream

	stageCtx, stageSpan := p.tracer.Start(ctx, "pipeline.stage", trace.WithAttributes(
		attribute.String("stage.name", stage.Name()),
		attribute.String("stage.branch", rc.Branch()),
	))
	defer stageSpan.End()
	rc.ctx = stageCtx

	go func() {
		defer func() {
			if r := recover(); r != nil {
				stream.close(fmt.Errorf("panic: %v", r))
			}
		}()
		stream.close(runner(rc, stage))
	}()

	relayed := 0
	for {
		event, ok := stream.Next()
		if !ok {
			break
		}
		sink.Emit(event)
		relayed++
	}

	rc.ctx = ctx

	if err := stream.Err(); err != nil {
		stageSpan.RecordError(err)
		stageSpan.SetStatus(codes.Error, err.Error())
		return relayed, err
	}

	return relayed, nil
}

// terminalEvent builds the pipeline-authored failure event that is always the
// last event on the channel before a halt. Its text names the failure class
// and the stage or key involved.
func (p *Pipeline) terminalEvent(runID, stage, text string) Event {
	event := NewFailureEvent(text)
	event.RunID = runID
	event.Stage = stage
	return event
}

func (p *Pipeline) finish(span trace.Span, start time.Time, result RunResult, state State, err error) RunResult {
	result.State = state
	result.Err = err
	result.ExecutionTime = time.Since(start)

	span.SetAttributes(attribute.String("pipeline.state", string(state)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	p.metrics.observeRun(p.name, state)
	return result
}

func missingKeys(keys []string, s *store.KVStore) []string {
	var missing []string
	for _, k := range keys {
		if !s.Has(k) {
			missing = append(missing, k)
		}
	}
	return missing
}
