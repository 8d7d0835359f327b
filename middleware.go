package devindex

import "time"

// StageRunnerFunc is the core function type for executing a stage within a
// run.
type StageRunnerFunc func(ctx *RunContext, stage Stage) error

// StageMiddleware represents a function that wraps stage execution. It allows
// performing operations before and after a stage executes, such as logging or
// timing.
type StageMiddleware func(next StageRunnerFunc) StageRunnerFunc

// LoggingMiddleware creates a middleware that logs stage execution steps.
func LoggingMiddleware() StageMiddleware {
	return func(next StageRunnerFunc) StageRunnerFunc {
		return func(ctx *RunContext, stage Stage) error {
			ctx.Logger().Info("Middleware: starting stage %s", stage.Name())

			err := next(ctx, stage)

			if err != nil {
				ctx.Logger().Error("Middleware: stage %s failed: %v", stage.Name(), err)
			} else {
				ctx.Logger().Info("Middleware: stage %s completed", stage.Name())
			}

			return err
		}
	}
}

// TimingMiddleware creates a middleware that logs how long each stage took.
func TimingMiddleware() StageMiddleware {
	return func(next StageRunnerFunc) StageRunnerFunc {
		return func(ctx *RunContext, stage Stage) error {
			start := time.Now()
			err := next(ctx, stage)
			ctx.Logger().Debug("stage %s took %v", stage.Name(), time.Since(start).Round(time.Millisecond))
			return err
		}
	}
}
