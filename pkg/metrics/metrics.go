package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Simulation metrics
	SimulationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowsim_simulations_total",
			Help: "Total number of simulation runs by outcome",
		},
		[]string{"outcome"},
	)

	SimulationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowsim_simulation_duration_seconds",
			Help:    "Wall-clock time to run one simulation, in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MakespanMinutes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowsim_makespan_minutes",
			Help:    "Achieved makespan of a simulation run, in wall-clock minutes including calendar gaps",
			Buckets: []float64{30, 60, 120, 240, 480, 960, 1920, 3840},
		},
	)

	TaskInstancesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowsim_task_instances_total",
			Help: "Total number of task-instances recorded by reason",
		},
		[]string{"reason"},
	)

	// Resource ledger metrics
	WorkerUtilization = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flowsim_worker_utilization_ratio",
			Help: "Fraction of the makespan a worker spent occupied",
		},
		[]string{"worker"},
	)

	MachineUtilization = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flowsim_machine_utilization_ratio",
			Help: "Fraction of the makespan a machine spent occupied",
		},
		[]string{"machine"},
	)

	BottleneckResource = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flowsim_bottleneck_resource",
			Help: "1 for the resource identified as most often on the critical path, 0 otherwise",
		},
		[]string{"resource"},
	)

	// Cycle controller metrics
	CycleIterationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowsim_cycle_iterations_total",
			Help: "Total number of cycle-group iterations opened",
		},
		[]string{"cycle_group"},
	)

	// Reassignment controller metrics
	ReassignmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flowsim_reassignments_total",
			Help: "Total number of worker reassignments performed",
		},
	)

	ReassignmentsSuppressedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flowsim_reassignments_suppressed_total",
			Help: "Total number of reassignment rules suppressed by their condition",
		},
	)

	// Optimiser metrics
	OptimiserCandidatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flowsim_optimiser_candidates_total",
			Help: "Total number of worker-count candidates evaluated by the optimiser",
		},
	)

	OptimiserCandidateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowsim_optimiser_candidate_duration_seconds",
			Help:    "Time taken to evaluate one optimiser candidate, in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CLI metrics
	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowsim_command_duration_seconds",
			Help:    "Wall-clock time to run one CLI command, in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
)

func init() {
	prometheus.MustRegister(SimulationsTotal)
	prometheus.MustRegister(SimulationDuration)
	prometheus.MustRegister(MakespanMinutes)
	prometheus.MustRegister(TaskInstancesTotal)
	prometheus.MustRegister(WorkerUtilization)
	prometheus.MustRegister(MachineUtilization)
	prometheus.MustRegister(BottleneckResource)
	prometheus.MustRegister(CycleIterationsTotal)
	prometheus.MustRegister(ReassignmentsTotal)
	prometheus.MustRegister(ReassignmentsSuppressedTotal)
	prometheus.MustRegister(OptimiserCandidatesTotal)
	prometheus.MustRegister(OptimiserCandidateDuration)
	prometheus.MustRegister(CommandDuration)
}

// Handler returns the Prometheus HTTP handler, for a CLI that opts into
// exposing a scrape endpoint while a long optimiser search runs.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
