package options

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"cloupeer.io/cpeer-flash/internal/board"
	"cloupeer.io/cpeer-flash/internal/flash"
	"cloupeer.io/cpeer-flash/pkg/log"
	"cloupeer.io/cpeer-flash/pkg/options"
)

const envPrefix = "CPEER_FLASH"

// FlashOptions gathers every option group of the cpeer-flash commands.
type FlashOptions struct {
	// ConfigFile is an optional YAML file with the same keys as the flags.
	ConfigFile string `json:"-" mapstructure:"-"`

	Board    string `json:"board" mapstructure:"board"`
	Platform string `json:"platform" mapstructure:"platform"`
	Target   string `json:"target" mapstructure:"target"`

	// Boards extends the built-in board table. Config file only.
	Boards []board.Board `json:"boards" mapstructure:"boards"`

	DryRun bool `json:"dry-run" mapstructure:"dry-run"`
	Watch  bool `json:"watch" mapstructure:"watch"`

	LayoutOptions  *options.LayoutOptions  `json:"layout" mapstructure:"layout"`
	OpenOCDOptions *options.OpenOCDOptions `json:"openocd" mapstructure:"openocd"`
	BuildOptions   *options.BuildOptions   `json:"build" mapstructure:"build"`
	S3Options      *options.S3Options      `json:"s3" mapstructure:"s3"`
	MetricsOptions *options.MetricsOptions `json:"metrics" mapstructure:"metrics"`
	Log            *log.Options            `json:"log" mapstructure:"log"`

	registry *board.Registry
}

func NewFlashOptions() *FlashOptions {
	return &FlashOptions{
		LayoutOptions:  options.NewLayoutOptions(),
		OpenOCDOptions: options.NewOpenOCDOptions(),
		BuildOptions:   options.NewBuildOptions(),
		S3Options:      options.NewS3Options(),
		MetricsOptions: options.NewMetricsOptions(),
		Log:            log.NewOptions(),
	}
}

func (o *FlashOptions) Flags() (fss cliflag.NamedFlagSets) {
	fs := fss.FlagSet("Board")
	fs.StringVarP(&o.ConfigFile, "config", "c", o.ConfigFile, "Path to a YAML configuration file.")
	fs.StringVarP(&o.Board, "board", "b", o.Board, "Name of the board to flash (see 'cpeer-flash boards').")
	fs.StringVar(&o.Platform, "platform", o.Platform, "Override the board's platform (artifact base name).")
	fs.StringVar(&o.Target, "target", o.Target, "Override the board's target triple.")

	o.LayoutOptions.AddFlags(fss.FlagSet("Layout"))
	o.OpenOCDOptions.AddFlags(fss.FlagSet("OpenOCD"))
	o.BuildOptions.AddFlags(fss.FlagSet("Build"))
	o.S3Options.AddFlags(fss.FlagSet("S3"))
	o.MetricsOptions.AddFlags(fss.FlagSet("Metrics"))
	o.Log.AddFlags(fss.FlagSet("Log"))

	return fss
}

// AddRunFlags registers the flags that only make sense for flashing commands.
func (o *FlashOptions) AddRunFlags(fs *pflag.FlagSet, watch bool) {
	fs.BoolVar(&o.DryRun, "dry-run", o.DryRun, "Print the programmer invocation instead of running it.")
	if watch {
		fs.BoolVarP(&o.Watch, "watch", "w", o.Watch, "Flash again every time the artifact is rebuilt.")
	}
}

// Complete merges the config file and CPEER_FLASH_* environment into the
// options. Flags set on the command line win over both.
func (o *FlashOptions) Complete(fs *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", o.ConfigFile, err)
		}
	}

	if err := v.Unmarshal(o); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}

	registry, err := board.NewRegistry(o.Boards...)
	if err != nil {
		return err
	}
	o.registry = registry

	return nil
}

func (o *FlashOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.LayoutOptions.Validate()...)
	errs = append(errs, o.OpenOCDOptions.Validate()...)
	errs = append(errs, o.BuildOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.MetricsOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)

	if o.DryRun && o.Watch {
		errs = append(errs, errors.New("--dry-run and --watch are mutually exclusive"))
	}

	return utilerrors.NewAggregate(errs)
}

// Registry returns the board table built by Complete.
func (o *FlashOptions) Registry() *board.Registry {
	return o.registry
}

// Config resolves the selected board and returns the dispatcher configuration.
func (o *FlashOptions) Config() (*flash.Config, error) {
	if o.registry == nil {
		return nil, errors.New("options are not completed")
	}
	if o.Board == "" {
		return nil, fmt.Errorf("no board selected: pass --board or set board in the config file (known: %s)",
			strings.Join(o.registry.Names(), ", "))
	}

	b, err := o.registry.Get(o.Board)
	if err != nil {
		return nil, err
	}
	if o.Platform != "" {
		b.Platform = o.Platform
	}
	if o.Target != "" {
		b.Target = o.Target
	}

	return &flash.Config{
		Board:          b,
		LayoutOptions:  o.LayoutOptions,
		OpenOCDOptions: o.OpenOCDOptions,
		BuildOptions:   o.BuildOptions,
		S3Options:      o.S3Options,
	}, nil
}
