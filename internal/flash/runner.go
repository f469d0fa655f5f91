package flash

import "context"

// Runner submits a composite command string to the device programmer and
// reports its exit status. A non-nil error means the tool could not be run
// at all; a tool that ran and failed returns its status with a nil error.
type Runner interface {
	Run(ctx context.Context, script string) (int, error)
}

// OutputTailer is implemented by runners that keep the last lines of the
// tool's output from the most recent run.
type OutputTailer interface {
	Tail() []string
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, script string) (int, error)

func (f RunnerFunc) Run(ctx context.Context, script string) (int, error) {
	return f(ctx, script)
}
