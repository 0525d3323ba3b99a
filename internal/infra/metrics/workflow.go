package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		workflowsTotal,
		agentRunsTotal,
		agentDuration,
		strategyIterations,
		persistenceFailuresTotal,
	)
}

var (
	workflowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflows_total",
			Help: "Workflow runs by workflow and final status.",
		},
		[]string{"workflow", "status"},
	)

	agentRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_runs_total",
			Help: "Agent invocations by agent and outcome.",
		},
		[]string{"agent", "success"},
	)

	agentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_duration_seconds",
			Help:    "Wall time of one agent invocation.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160, 320},
		},
		[]string{"agent"},
	)

	strategyIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strategy_react_iterations",
			Help:    "Iterations used by the strategy agent loop.",
			Buckets: []float64{1, 2, 3},
		},
	)

	persistenceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistence_failures_total",
			Help: "Best-effort persistence writes that failed, by entity.",
		},
		[]string{"entity"},
	)
)

func IncWorkflow(workflow, status string) {
	workflowsTotal.WithLabelValues(norm(workflow), norm(status)).Inc()
}

func ObserveAgent(agent string, success bool, d time.Duration) {
	agentRunsTotal.WithLabelValues(norm(agent), strconv.FormatBool(success)).Inc()
	agentDuration.WithLabelValues(norm(agent)).Observe(d.Seconds())
}

func ObserveStrategyIterations(n int) {
	strategyIterations.Observe(float64(n))
}

func IncPersistenceFailure(entity string) {
	persistenceFailuresTotal.WithLabelValues(norm(entity)).Inc()
}
