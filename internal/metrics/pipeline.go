package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PipelineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pantrychef",
			Name:      "pipeline_requests_total",
			Help:      "Total retrieval pipeline runs",
		},
		[]string{"strategy", "status"},
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pantrychef",
			Name:      "pipeline_duration_seconds",
			Help:      "Retrieval pipeline duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"strategy"},
	)

	PipelineResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pantrychef",
			Name:      "pipeline_results",
			Help:      "Number of recipes returned per pipeline run",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
		[]string{"strategy"},
	)

	RelevanceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pantrychef",
			Name:      "relevance_total",
			Help:      "Answer relevance evaluations by verdict",
		},
		[]string{"verdict"},
	)

	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pantrychef",
			Name:      "feedback_total",
			Help:      "User feedback by sentiment",
		},
		[]string{"sentiment"}, // "positive" / "negative"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineRequestsTotal)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(PipelineResults)
	prometheus.MustRegister(RelevanceTotal)
	prometheus.MustRegister(FeedbackTotal)
	pipelineMetricsRegistered = true
}
