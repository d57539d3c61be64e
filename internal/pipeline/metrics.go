package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// pipelineMetrics holds Prometheus counters for the orchestrator.
type pipelineMetrics struct {
	once sync.Once

	runs         *prometheus.CounterVec
	nodesDone    prometheus.Counter
	nodesSkipped prometheus.Counter
	nodesFailed  prometheus.Counter
}

var metrics = &pipelineMetrics{}

func (m *pipelineMetrics) init() {
	m.once.Do(func() {
		m.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repowiki",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Warehouse runs by terminal state.",
		}, []string{"state"})
		m.nodesDone = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "repowiki",
			Subsystem: "pipeline",
			Name:      "nodes_generated_total",
			Help:      "Catalog nodes with freshly generated documents.",
		})
		m.nodesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "repowiki",
			Subsystem: "pipeline",
			Name:      "nodes_skipped_total",
			Help:      "Catalog nodes skipped as already current.",
		})
		m.nodesFailed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "repowiki",
			Subsystem: "pipeline",
			Name:      "node_failures_total",
			Help:      "Catalog nodes whose generation failed.",
		})
		prometheus.MustRegister(m.runs, m.nodesDone, m.nodesSkipped, m.nodesFailed)
	})
}
