package flash

import (
	"fmt"

	utilexec "k8s.io/utils/exec"

	"cloupeer.io/cpeer-flash/internal/board"
	"cloupeer.io/cpeer-flash/pkg/log"
	"cloupeer.io/cpeer-flash/pkg/options"
)

// Config carries the completed options needed to wire a Dispatcher for one board.
type Config struct {
	Board          board.Board
	LayoutOptions  *options.LayoutOptions
	OpenOCDOptions *options.OpenOCDOptions
	BuildOptions   *options.BuildOptions
	S3Options      *options.S3Options

	// Exec launches the programmer and build commands. Defaults to the host.
	Exec utilexec.Interface
}

func (cfg *Config) NewDispatcher() (*Dispatcher, error) {
	logger := log.WithName("flash")
	exec := cfg.Exec
	if exec == nil {
		exec = utilexec.New()
	}

	layout := Layout{
		Root:     cfg.LayoutOptions.Root,
		Target:   cfg.Board.Target,
		Platform: cfg.Board.Platform,
		Template: cfg.LayoutOptions.Template,
	}

	boardConfig := cfg.Board.OpenOCDConfig
	if cfg.OpenOCDOptions.BoardConfig != "" {
		boardConfig = cfg.OpenOCDOptions.BoardConfig
	}

	runner := NewOpenOCD(exec, cfg.OpenOCDOptions.Binary, cfg.OpenOCDOptions.ExtraArgs, cfg.OpenOCDOptions.OutputTail, logger)

	provisioner, err := cfg.newProvisioner(exec, logger)
	if err != nil {
		return nil, err
	}

	d, err := NewDispatcher(layout, runner,
		WithBoard(cfg.Board.Name, boardConfig),
		WithProvisioner(provisioner),
		WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", cfg.Board.Name, err)
	}
	return d, nil
}

func (cfg *Config) newProvisioner(exec utilexec.Interface, logger log.Logger) (*Provisioner, error) {
	opts := []ProvisionerOption{WithProvisionerLogger(logger)}

	if cfg.BuildOptions != nil && cfg.BuildOptions.Command != "" {
		builder, err := NewCommandBuilder(exec, cfg.BuildOptions.Command, cfg.BuildOptions.Dir, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithBuilder(builder, cfg.BuildOptions.Always))
	}

	if cfg.S3Options != nil && cfg.S3Options.Enabled {
		fetcher, err := NewS3Fetcher(cfg.S3Options, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithFetcher(fetcher))
	}

	return NewProvisioner(opts...), nil
}
