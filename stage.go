package devindex

// Stage is a single unit of pipeline work with declared input and output key
// contracts. Stages are executed strictly sequentially by the pipeline; a
// stage reads and writes the run's state store and produces events
// incrementally through RunContext.Emit.
//
// A stage signals failure in one of two ways: returning a non-nil error from
// Run (fatal, the run halts immediately), or returning nil without having
// written one of its Produces keys (incomplete output, detected by the
// pipeline's postcondition check, which also halts the run).
type Stage interface {
	// Name returns the stage's identity, also used to derive its branch label.
	Name() string

	// Requires returns the state keys this stage needs before it can run.
	// Satisfiability is checked statically at pipeline validation time.
	Requires() []string

	// Produces returns the state keys this stage promises to write. Presence
	// is verified by the pipeline after the stage completes.
	Produces() []string

	// Run executes the unit of work. It may call ctx.Store, ctx.SetState and
	// ctx.Emit; it must honor cancellation of ctx.Context on blocking work.
	Run(ctx *RunContext) error
}

// BaseStage provides the descriptor half of the Stage contract. Concrete
// stages embed it and implement Run.
type BaseStage struct {
	name        string
	description string
	requires    []string
	produces    []string
}

// NewBaseStage creates a stage descriptor with the given identity and key
// contracts.
func NewBaseStage(name, description string, requires, produces []string) BaseStage {
	return BaseStage{
		name:        name,
		description: description,
		requires:    requires,
		produces:    produces,
	}
}

// Name returns the stage's name.
func (s BaseStage) Name() string { return s.name }

// Description returns a human-readable description of the stage.
func (s BaseStage) Description() string { return s.description }

// Requires returns the stage's required state keys.
func (s BaseStage) Requires() []string { return s.requires }

// Produces returns the stage's promised output keys.
func (s BaseStage) Produces() []string { return s.produces }

// FuncStage wraps a plain function as a Stage. It is convenient for small
// inline stages and for tests.
type FuncStage struct {
	BaseStage
	fn func(ctx *RunContext) error
}

// NewFuncStage creates a function-backed stage with the given key contracts.
func NewFuncStage(name string, requires, produces []string, fn func(ctx *RunContext) error) *FuncStage {
	return &FuncStage{
		BaseStage: NewBaseStage(name, "", requires, produces),
		fn:        fn,
	}
}

// Run implements Stage.
func (s *FuncStage) Run(ctx *RunContext) error {
	if s.fn == nil {
		return nil
	}
	return s.fn(ctx)
}
