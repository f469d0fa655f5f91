package options

import (
	"github.com/spf13/pflag"
)

var _ IOptions = (*MetricsOptions)(nil)

// MetricsOptions controls the Prometheus textfile export.
type MetricsOptions struct {
	// Textfile is written after each invocation in the node_exporter textfile
	// collector format. Empty disables the export.
	Textfile string `json:"textfile" mapstructure:"textfile"`
}

func NewMetricsOptions() *MetricsOptions {
	return &MetricsOptions{}
}

func (o *MetricsOptions) Validate() []error {
	return nil
}

func (o *MetricsOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Textfile, "metrics.textfile", o.Textfile, "Write flash metrics to this file in Prometheus text format.")
}
