package flash

import (
	"context"
	"errors"
	"fmt"
	"sync"

	utilexec "k8s.io/utils/exec"

	"cloupeer.io/cpeer-flash/pkg/log"
)

const defaultTool = "openocd"

// OpenOCD runs the OpenOCD binary with a single -c script.
type OpenOCD struct {
	exec      utilexec.Interface
	binary    string
	extraArgs []string
	keep      int
	logger    log.Logger

	mu   sync.Mutex
	tail []string
}

var (
	_ Runner       = (*OpenOCD)(nil)
	_ OutputTailer = (*OpenOCD)(nil)
)

// NewOpenOCD returns a runner for binary. extraArgs are placed before the
// -c script; keep bounds the output lines retained for Tail.
func NewOpenOCD(exec utilexec.Interface, binary string, extraArgs []string, keep int, logger log.Logger) *OpenOCD {
	if binary == "" {
		binary = defaultTool
	}
	if logger == nil {
		logger = log.Std()
	}
	return &OpenOCD{
		exec:      exec,
		binary:    binary,
		extraArgs: extraArgs,
		keep:      keep,
		logger:    logger.WithName("openocd"),
	}
}

// Args returns the argument vector used for script, without the binary.
func (o *OpenOCD) Args(script string) []string {
	args := make([]string, 0, len(o.extraArgs)+2)
	args = append(args, o.extraArgs...)
	return append(args, "-c", script)
}

func (o *OpenOCD) Run(ctx context.Context, script string) (int, error) {
	args := o.Args(script)
	o.logger.Debug("Launching programmer", "binary", o.binary, "args", args)

	out := log.NewLineWriter(o.logger, "output", o.keep)
	cmd := o.exec.CommandContext(ctx, o.binary, args...)
	cmd.SetStdout(out)
	cmd.SetStderr(out)

	err := cmd.Run()
	out.Flush()

	o.mu.Lock()
	o.tail = out.Tail()
	o.mu.Unlock()

	if err == nil {
		return 0, nil
	}
	// A child killed by cancellation has no meaningful exit status.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, fmt.Errorf("%s interrupted: %w", o.binary, ctxErr)
	}

	var exitErr utilexec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), nil
	}

	return -1, fmt.Errorf("failed to run %s: %w", o.binary, err)
}

func (o *OpenOCD) Tail() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]string, len(o.tail))
	copy(out, o.tail)
	return out
}

// Name is the tool name used in failure reports.
func (o *OpenOCD) Name() string {
	return o.binary
}
