// Package options holds the flag-bindable option groups shared by the
// cpeer-flash commands. Every group can also be populated from a config
// file through its mapstructure tags.
package options

import "github.com/spf13/pflag"

// IOptions is implemented by every option group.
type IOptions interface {
	// Validate checks the group and returns every problem found.
	Validate() []error

	// AddFlags registers the group's flags on fs.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}
