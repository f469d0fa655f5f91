package flash

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"

	"cloupeer.io/cpeer-flash/internal/pkg/metrics"
	fsmutil "cloupeer.io/cpeer-flash/internal/pkg/util/fsm"
	"cloupeer.io/cpeer-flash/pkg/log"
)

// Invocation stages. Every invocation walks
// pending -> resolved -> sequenced -> provisioned -> executed
// and drops to failed from whichever stage returned an error.
const (
	StagePending     = "pending"
	StageResolved    = "resolved"
	StageSequenced   = "sequenced"
	StageProvisioned = "provisioned"
	StageExecuted    = "executed"
	StageFailed      = "failed"

	eventResolve   = "resolve"
	eventSequence  = "sequence"
	eventProvision = "provision"
	eventExecute   = "execute"
	eventFail      = "fail"
)

// Dispatcher turns an Operation into one programmer invocation for a single
// board. It holds no state between invocations.
type Dispatcher struct {
	layout      Layout
	board       string
	boardConfig string
	runner      Runner
	provisioner *Provisioner
	logger      log.Logger
}

type Option func(*Dispatcher)

// WithBoard sets the board name used in logs and metrics and the OpenOCD
// configuration file sourced at the start of every script.
func WithBoard(name, config string) Option {
	return func(d *Dispatcher) {
		d.board = name
		d.boardConfig = config
	}
}

func WithProvisioner(p *Provisioner) Option {
	return func(d *Dispatcher) {
		d.provisioner = p
	}
}

func WithLogger(logger log.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// Result describes one completed or aborted invocation.
type Result struct {
	Operation  Operation
	Artifact   Artifact
	Script     string
	Executed   bool
	ExitStatus int
	Stage      string
	Duration   time.Duration
}

func NewDispatcher(layout Layout, runner Runner, opts ...Option) (*Dispatcher, error) {
	if runner == nil {
		return nil, errors.New("dispatcher requires a runner")
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	d := &Dispatcher{
		layout: layout,
		runner: runner,
		logger: log.Std(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.provisioner == nil {
		d.provisioner = NewProvisioner(WithProvisionerLogger(d.logger))
	}
	d.logger = d.logger.WithValues("board", d.board)

	return d, nil
}

// Resolve computes the artifact path for op and profile.
func (d *Dispatcher) Resolve(op Operation, profile BuildProfile) (Artifact, error) {
	return d.layout.Resolve(op, profile)
}

// BuildSequence returns the programmer commands for op.
func (d *Dispatcher) BuildSequence(op Operation, artifact Artifact) (*Sequence, error) {
	return BuildSequence(op, artifact)
}

// Script renders seq with this dispatcher's board configuration.
func (d *Dispatcher) Script(seq *Sequence) string {
	return seq.Script(d.boardConfig)
}

// Execute runs the programmer once and returns its exit status unchanged.
// The error is non-nil only when the programmer could not be started.
func (d *Dispatcher) Execute(ctx context.Context, seq *Sequence) (int, error) {
	return d.runner.Run(ctx, d.Script(seq))
}

// Plan resolves and sequences op without touching the filesystem or
// launching anything.
func (d *Dispatcher) Plan(op Operation) (*Sequence, error) {
	artifact, err := d.Resolve(op, op.Profile())
	if err != nil {
		return nil, err
	}
	return d.BuildSequence(op, artifact)
}

// Dispatch runs the full pipeline for op: resolve, sequence, provision the
// artifact, execute. Each stage short-circuits on error and nothing is
// retried.
func (d *Dispatcher) Dispatch(ctx context.Context, op Operation) (*Result, error) {
	start := time.Now()
	inv := d.newInvocation(op)
	res := &Result{Operation: op}

	err := d.run(ctx, inv, res)
	if err != nil {
		if ferr := fsmutil.Fire(ctx, inv, eventFail, err); ferr != nil {
			d.logger.Warn("Failed to record failed stage", "error", ferr)
		}
	}

	res.Stage = inv.Current()
	res.Duration = time.Since(start)
	d.record(res, err)

	return res, err
}

func (d *Dispatcher) run(ctx context.Context, inv *fsm.FSM, res *Result) error {
	op := res.Operation
	if canonical := op.Canonical(); canonical != op {
		d.logger.Debug("Operation is an alias", "operation", op, "target", canonical)
	}

	artifact, err := d.Resolve(op, op.Profile())
	if err != nil {
		return err
	}
	res.Artifact = artifact
	if err := fsmutil.Fire(ctx, inv, eventResolve); err != nil {
		return err
	}

	seq, err := d.BuildSequence(op, artifact)
	if err != nil {
		return err
	}
	res.Script = d.Script(seq)
	if err := fsmutil.Fire(ctx, inv, eventSequence); err != nil {
		return err
	}

	if err := d.provisioner.Ensure(ctx, artifact); err != nil {
		return err
	}
	if err := fsmutil.Fire(ctx, inv, eventProvision); err != nil {
		return err
	}

	d.logger.Info("Flashing artifact", "operation", op, "artifact", artifact.Path, "profile", artifact.Profile)

	status, err := d.Execute(ctx, seq)
	if err != nil {
		return err
	}
	res.Executed = true
	res.ExitStatus = status

	if status != 0 {
		failure := &ExternalToolFailureError{Tool: d.toolName(), Status: status}
		if t, ok := d.runner.(OutputTailer); ok {
			failure.Output = t.Tail()
		}
		return failure
	}

	d.logger.Info("Flash complete", "operation", op, "artifact", artifact.Path)
	return fsmutil.Fire(ctx, inv, eventExecute)
}

func (d *Dispatcher) newInvocation(op Operation) *fsm.FSM {
	logger := d.logger.WithValues("operation", op)
	active := []string{StagePending, StageResolved, StageSequenced, StageProvisioned}

	return fsm.NewFSM(
		StagePending,
		fsm.Events{
			{Name: eventResolve, Src: []string{StagePending}, Dst: StageResolved},
			{Name: eventSequence, Src: []string{StageResolved}, Dst: StageSequenced},
			{Name: eventProvision, Src: []string{StageSequenced}, Dst: StageProvisioned},
			{Name: eventExecute, Src: []string{StageProvisioned}, Dst: StageExecuted},
			{Name: eventFail, Src: active, Dst: StageFailed},
		},
		fsm.Callbacks{
			"enter_state": fsmutil.WrapEvent(func(_ context.Context, e *fsm.Event) error {
				logger.Debug("Stage transition", "from", e.Src, "to", e.Dst)
				return nil
			}),
			"enter_" + StageFailed: fsmutil.WrapEvent(func(_ context.Context, e *fsm.Event) error {
				if len(e.Args) > 0 {
					if err, ok := e.Args[0].(error); ok {
						logger.Debug("Invocation aborted", "stage", e.Src, "reason", err.Error())
					}
				}
				return nil
			}),
		},
	)
}

func (d *Dispatcher) toolName() string {
	if n, ok := d.runner.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "programmer"
}

func (d *Dispatcher) record(res *Result, err error) {
	op := res.Operation.String()
	metrics.InvocationsTotal.WithLabelValues(op, d.board, resultLabel(err)).Inc()
	metrics.InvocationDuration.WithLabelValues(op, d.board).Observe(res.Duration.Seconds())
	if res.Executed {
		metrics.LastExitStatus.WithLabelValues(d.board).Set(float64(res.ExitStatus))
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnsupportedOperation):
		return "unsupported"
	case errors.Is(err, ErrArtifactNotFound):
		return "artifact_not_found"
	case errors.Is(err, ErrExternalToolFailure):
		return "tool_failure"
	default:
		return "error"
	}
}

// String implements fmt.Stringer for log output.
func (r *Result) String() string {
	return fmt.Sprintf("%s %s (stage=%s, status=%d)", r.Operation, r.Artifact.Path, r.Stage, r.ExitStatus)
}
