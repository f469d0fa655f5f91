package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every cpeer-flash collector. It is separate from the
// default registry so the textfile export carries no Go runtime noise.
var Registry = prometheus.NewRegistry()

var (
	// InvocationsTotal counts dispatcher invocations by operation and result.
	// result: success/unsupported/artifact_not_found/tool_failure/error
	InvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpeer_flash_invocations_total",
			Help: "Total number of flash operations by result.",
		},
		[]string{"operation", "board", "result"},
	)

	// InvocationDuration records the wall time of complete invocations.
	InvocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cpeer_flash_invocation_duration_seconds",
			Help:    "Duration of flash operations, including build and programmer time.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"operation", "board"},
	)

	// LastExitStatus is the exit status of the most recent programmer run.
	LastExitStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cpeer_flash_last_exit_status",
			Help: "Exit status of the most recent programmer invocation.",
		},
		[]string{"board"},
	)
)

func init() {
	Registry.MustRegister(InvocationsTotal)
	Registry.MustRegister(InvocationDuration)
	Registry.MustRegister(LastExitStatus)
}

// WriteTextfile writes the registry to path in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
