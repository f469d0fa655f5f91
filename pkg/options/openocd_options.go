package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*OpenOCDOptions)(nil)

// OpenOCDOptions configures how the device-programmer tool is launched.
type OpenOCDOptions struct {
	// Binary is the programmer executable, looked up in PATH when not absolute.
	Binary string `json:"binary" mapstructure:"binary"`

	// ExtraArgs are passed before the -c script, e.g. ["-f", "interface/stlink.cfg"].
	ExtraArgs []string `json:"extra-args" mapstructure:"extra-args"`

	// BoardConfig overrides the board's own OpenOCD configuration file.
	BoardConfig string `json:"board-config" mapstructure:"board-config"`

	// OutputTail is the number of trailing output lines kept for failure reports.
	OutputTail int `json:"output-tail" mapstructure:"output-tail"`
}

// NewOpenOCDOptions creates OpenOCDOptions with default values.
func NewOpenOCDOptions() *OpenOCDOptions {
	return &OpenOCDOptions{
		Binary:     "openocd",
		OutputTail: 20,
	}
}

func (o *OpenOCDOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.Binary == "" {
		errs = append(errs, errors.New("--openocd.binary must not be empty"))
	}
	if o.OutputTail < 0 {
		errs = append(errs, errors.New("--openocd.output-tail must not be negative"))
	}

	return errs
}

func (o *OpenOCDOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Binary, "openocd.binary", o.Binary, "Path or name of the OpenOCD executable.")
	fs.StringSliceVar(&o.ExtraArgs, "openocd.extra-args", o.ExtraArgs, "Extra arguments passed to OpenOCD before the command script.")
	fs.StringVar(&o.BoardConfig, "openocd.board-config", o.BoardConfig, "Override the board's OpenOCD configuration file (resolved with [find ...]).")
	fs.IntVar(&o.OutputTail, "openocd.output-tail", o.OutputTail, "Number of trailing OpenOCD output lines included in failure reports.")
}
