package options

import (
	"github.com/spf13/pflag"
)

var _ IOptions = (*BuildOptions)(nil)

// BuildOptions wires an external build command that produces missing artifacts.
type BuildOptions struct {
	// Command is a command line with {root}, {target}, {profile} and
	// {platform} placeholders. Empty disables the build step.
	Command string `json:"command" mapstructure:"command"`

	// Dir is the working directory of the build command. Defaults to the layout root.
	Dir string `json:"dir" mapstructure:"dir"`

	// Always runs the build command even when the artifact already exists,
	// leaving staleness checks to the build system.
	Always bool `json:"always" mapstructure:"always"`
}

func NewBuildOptions() *BuildOptions {
	return &BuildOptions{}
}

func (o *BuildOptions) Validate() []error {
	return nil
}

func (o *BuildOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Command, "build.command", o.Command, "Build command run when the artifact is missing, e.g. 'cargo build --target {target} --{profile}'.")
	fs.StringVar(&o.Dir, "build.dir", o.Dir, "Working directory of the build command (defaults to --layout.root).")
	fs.BoolVar(&o.Always, "build.always", o.Always, "Run the build command before every flash, not only when the artifact is missing.")
}
