package options

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"
)

var _ IOptions = (*LayoutOptions)(nil)

// DefaultArtifactTemplate mirrors the cargo target directory layout.
const DefaultArtifactTemplate = "{root}/target/{target}/{profile}/{platform}.elf"

// LayoutOptions describes where compiled artifacts live.
type LayoutOptions struct {
	Root     string `json:"root" mapstructure:"root"`
	Template string `json:"template" mapstructure:"template"`
}

func NewLayoutOptions() *LayoutOptions {
	return &LayoutOptions{
		Root:     ".",
		Template: DefaultArtifactTemplate,
	}
}

func (o *LayoutOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.Root == "" {
		errs = append(errs, errors.New("--layout.root must not be empty"))
	}
	if !strings.Contains(o.Template, "{profile}") {
		errs = append(errs, errors.New("--layout.template must contain the {profile} placeholder"))
	}

	return errs
}

func (o *LayoutOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Root, "layout.root", o.Root, "Root directory of the firmware build tree.")
	fs.StringVar(&o.Template, "layout.template", o.Template, "Artifact path template with {root}, {target}, {profile} and {platform} placeholders.")
}
