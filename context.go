package devindex

import (
	"context"

	"github.com/devindex-app/devindex-adk/store"
)

// RunContext bundles everything a stage may touch during one pipeline run:
// the ambient cancellation context, the run-scoped state store, the event
// stream and the current branch label. It is created by the pipeline at run
// start, owned exclusively by the pipeline for the run's duration, and passed
// by pointer to each stage in turn. The pipeline never invokes two stages
// concurrently with the same RunContext.
type RunContext struct {
	ctx    context.Context
	runID  string
	store  *store.KVStore
	stream *EventStream
	logger Logger

	// branch isolates per-stage execution history; set by the pipeline
	// before each stage starts, read-only from the stage's point of view.
	branch string
	stage  string
}

// Context returns the ambient context for the run. Stages should honor its
// cancellation on blocking work.
func (rc *RunContext) Context() context.Context { return rc.ctx }

// RunID returns the unique identifier of this run.
func (rc *RunContext) RunID() string { return rc.runID }

// Store returns the run's shared state store.
func (rc *RunContext) Store() *store.KVStore { return rc.store }

// Branch returns the isolation label of the currently executing stage.
func (rc *RunContext) Branch() string { return rc.branch }

// Stage returns the name of the currently executing stage.
func (rc *RunContext) Stage() string { return rc.stage }

// Logger returns the run's logger.
func (rc *RunContext) Logger() Logger { return rc.logger }

// SetState writes a value into the run's state store. Last writer wins.
func (rc *RunContext) SetState(key string, value any) error {
	return rc.store.Put(key, value)
}

// HasState reports whether the given key is present in the state store.
func (rc *RunContext) HasState(key string) bool {
	return rc.store.Has(key)
}

// Emit stamps the event with the run, stage and branch identity and forwards
// it onto the run's event stream. It blocks until the pipeline driver relays
// the event, and returns the context error if the run was cancelled; the
// stage should stop and return that error.
func (rc *RunContext) Emit(event Event) error {
	event.RunID = rc.runID
	event.Stage = rc.stage
	event.Branch = rc.branch
	return rc.stream.send(rc.ctx, event)
}

// enterBranch points the context at the named stage before it runs. The
// branch label is derived from the pipeline and stage names so repeated use
// of the same stage implementation never shares execution history.
func (rc *RunContext) enterBranch(pipeline, stage string) {
	rc.stage = stage
	rc.branch = branchPath(pipeline, stage)
}

// branchPath composes a hierarchical branch identifier. An empty parent
// returns child unchanged.
func branchPath(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}
