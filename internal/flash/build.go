package flash

import (
	"context"
	"errors"
	"fmt"
	"strings"

	utilexec "k8s.io/utils/exec"

	"cloupeer.io/cpeer-flash/pkg/log"
)

// Builder produces the artifact through the external build system.
type Builder interface {
	Build(ctx context.Context, artifact Artifact) error
}

// CommandBuilder runs a templated build command line.
type CommandBuilder struct {
	exec    utilexec.Interface
	command string
	dir     string
	logger  log.Logger
}

var _ Builder = (*CommandBuilder)(nil)

// NewCommandBuilder returns a Builder for command, a whitespace separated
// command line using the artifact placeholders. dir defaults to the
// artifact root.
func NewCommandBuilder(exec utilexec.Interface, command, dir string, logger log.Logger) (*CommandBuilder, error) {
	if len(strings.Fields(command)) == 0 {
		return nil, errors.New("build command is empty")
	}
	if logger == nil {
		logger = log.Std()
	}
	return &CommandBuilder{
		exec:    exec,
		command: command,
		dir:     dir,
		logger:  logger.WithName("build"),
	}, nil
}

// Argv returns the expanded command line for artifact.
func (b *CommandBuilder) Argv(artifact Artifact) []string {
	return strings.Fields(artifact.Expand(b.command))
}

func (b *CommandBuilder) Build(ctx context.Context, artifact Artifact) error {
	argv := b.Argv(artifact)
	if len(argv) == 0 {
		return fmt.Errorf("build command %q expands to nothing", b.command)
	}
	dir := b.dir
	if dir == "" {
		dir = artifact.Root
	}

	b.logger.Info("Building artifact", "command", argv, "dir", dir, "profile", artifact.Profile)

	out := log.NewLineWriter(b.logger, "output", 0)
	cmd := b.exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.SetDir(dir)
	cmd.SetStdout(out)
	cmd.SetStderr(out)

	err := cmd.Run()
	out.Flush()
	if err == nil {
		return nil
	}

	var exitErr utilexec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("build command %q exited with status %d", strings.Join(argv, " "), exitErr.ExitStatus())
	}
	return fmt.Errorf("failed to run build command %q: %w", argv[0], err)
}
