package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/klog/v2"

	"cloupeer.io/cpeer-flash/cmd/cpeer-flash/app/options"
	"cloupeer.io/cpeer-flash/internal/board"
	"cloupeer.io/cpeer-flash/internal/flash"
	"cloupeer.io/cpeer-flash/internal/pkg/metrics"
	"cloupeer.io/cpeer-flash/pkg/log"
)

const (
	commandName = "cpeer-flash"
	commandDesc = `cpeer-flash writes compiled firmware to a development board through
OpenOCD. It resolves the artifact for the selected board and build profile,
builds or fetches it when missing, and drives OpenOCD through init, reset
halt, erase and write, verify, reset and shutdown in a single invocation.`
)

var operationDesc = map[flash.Operation]string{
	flash.Install:    "Flash the release image (alias of flash)",
	flash.Flash:      "Flash the release image over JTAG/SWD",
	flash.FlashDebug: "Flash the debug image over JTAG/SWD",
	flash.Program:    "Program the board over USB (not supported)",
}

// NewFlashCommand creates the cpeer-flash root command. ctx is cancelled on
// SIGINT/SIGTERM and propagated to the programmer process.
func NewFlashCommand(ctx context.Context) *cobra.Command {
	opts := options.NewFlashOptions()

	cmd := &cobra.Command{
		Use:           commandName,
		Short:         "Flash firmware to development boards through OpenOCD",
		Long:          commandDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(ctx, cmd.OutOrStdout(), opts, flash.Install)
		},
	}

	namedfs := opts.Flags()
	pfs := cmd.PersistentFlags()
	for _, name := range namedfs.Order {
		pfs.AddFlagSet(namedfs.FlagSets[name])
	}
	opts.AddRunFlags(cmd.Flags(), false)
	setUsage(cmd, namedfs)

	for _, op := range flash.Operations() {
		cmd.AddCommand(newOperationCommand(ctx, opts, op))
	}
	cmd.AddCommand(newBoardsCommand(opts))

	return cmd
}

func newOperationCommand(ctx context.Context, opts *options.FlashOptions, op flash.Operation) *cobra.Command {
	cmd := &cobra.Command{
		Use:   op.String(),
		Short: operationDesc[op],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(ctx, cmd.OutOrStdout(), opts, op)
		},
	}
	opts.AddRunFlags(cmd.Flags(), op.Supported())
	return cmd
}

func newBoardsCommand(opts *options.FlashOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List the boards that can be flashed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return board.PrintTable(cmd.OutOrStdout(), opts.Registry().List())
		},
	}
}

func setup(cmd *cobra.Command, opts *options.FlashOptions) error {
	if err := opts.Complete(cmd.Flags()); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := log.Init(opts.Log); err != nil {
		return err
	}
	klog.SetLogger(log.Logr())

	// Match GOMAXPROCS to the container CPU quota.
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		log.Warn("Failed to set GOMAXPROCS", "error", err)
	}
	return nil
}

func runOperation(ctx context.Context, out io.Writer, opts *options.FlashOptions, op flash.Operation) error {
	defer func() { _ = log.Sync() }()

	cfg, err := opts.Config()
	if err != nil {
		if !op.Supported() {
			// program fails the same way with or without a board selected.
			return &flash.UnsupportedOperationError{Operation: op, Platform: opts.Board}
		}
		return err
	}

	d, err := cfg.NewDispatcher()
	if err != nil {
		return err
	}

	if opts.DryRun {
		seq, err := d.Plan(op)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s %s\n", opts.OpenOCDOptions.Binary, shellQuote(flashArgs(opts, d.Script(seq))))
		return err
	}

	if opts.Watch {
		return d.Watch(ctx, op, flash.DefaultSettle, func(res *flash.Result, err error) {
			if err != nil {
				log.Error(err, "Flash failed, waiting for the next build", "operation", op)
			}
			writeMetrics(opts)
		})
	}

	_, err = d.Dispatch(ctx, op)
	writeMetrics(opts)
	return err
}

func flashArgs(opts *options.FlashOptions, script string) []string {
	args := append([]string{}, opts.OpenOCDOptions.ExtraArgs...)
	return append(args, "-c", script)
}

func writeMetrics(opts *options.FlashOptions) {
	if opts.MetricsOptions.Textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(opts.MetricsOptions.Textfile); err != nil {
		log.Warn("Failed to write metrics textfile", "path", opts.MetricsOptions.Textfile, "error", err)
	}
}

// ExitCode maps a command error onto the process exit status. Programmer
// failures keep the programmer's own status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if status, ok := flash.ExitStatus(err); ok && status > 0 {
		return status
	}
	return 1
}

func setUsage(cmd *cobra.Command, namedfs cliflag.NamedFlagSets) {
	cols := 100
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		out := c.OutOrStderr()
		fmt.Fprintf(out, "Usage:\n  %s\n", c.UseLine())
		if c.HasAvailableSubCommands() {
			fmt.Fprintf(out, "\nCommands:\n")
			for _, sub := range c.Commands() {
				if sub.IsAvailableCommand() {
					fmt.Fprintf(out, "  %-12s %s\n", sub.Name(), sub.Short)
				}
			}
		}
		if local := c.LocalNonPersistentFlags(); local.HasFlags() {
			fmt.Fprintf(out, "\nFlags:\n%s", local.FlagUsagesWrapped(cols))
		}
		cliflag.PrintSections(out, namedfs, cols)
		return nil
	})
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		desc := c.Long
		if desc == "" {
			desc = c.Short
		}
		fmt.Fprintf(c.OutOrStdout(), "%s\n\n", desc)
		_ = c.Usage()
	})
}

// shellQuote renders args for copy-paste into a POSIX shell.
func shellQuote(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a != "" && strings.IndexFunc(a, needsQuote) < 0 {
			quoted[i] = a
			continue
		}
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

func needsQuote(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=:,+@", r))
}
