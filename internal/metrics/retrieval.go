package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval, reranking and answer metrics.
var (
	RetrievalStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_stage_duration_seconds",
			Help:      "Duration of each retrieval pipeline stage",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode", "stage"}, // stage: embed, vector, lexical, fuse, rerank, answer
	)

	RetrievalCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_candidates",
			Help:      "Candidates returned per source before truncation",
			Buckets:   []float64{0, 1, 5, 10, 20, 30, 50, 100},
		},
		[]string{"source"}, // vector, lexical, fused
	)

	RetrievalErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_errors_total",
			Help:      "Retrieval failures by source",
		},
		[]string{"mode", "source"},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answered and abstained questions",
		},
		[]string{"mode", "outcome"}, // answered, no_candidates, low_confidence
	)

	RerankerBootstrapTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reranker_bootstrap_total",
			Help:      "Relevance model bootstrap attempts by result",
		},
		[]string{"result"}, // trained, skipped, failed, refused
	)

	RerankerModelLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reranker_model_loaded",
			Help:      "1 when a relevance model is published",
		},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalStageDuration)
	prometheus.MustRegister(RetrievalCandidates)
	prometheus.MustRegister(RetrievalErrorsTotal)
	prometheus.MustRegister(AnswersTotal)
	prometheus.MustRegister(RerankerBootstrapTotal)
	prometheus.MustRegister(RerankerModelLoaded)
	retrievalMetricsRegistered = true
}
