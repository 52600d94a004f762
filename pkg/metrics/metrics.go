package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Variant assignments handed out, first-time and cached alike
	ExperimentAssignments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "experiment_assignments_total",
		Help: "Count of variant assignments by experiment and variant",
	}, []string{"experiment", "variant"})

	ExperimentResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "experiment_results_total",
		Help: "Count of recorded experiment outcomes",
	}, []string{"experiment", "variant", "converted"})

	RecommendationRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendation_requests_total",
		Help: "Count of recommendation requests by strategy",
	}, []string{"strategy"})

	RecommendationLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommendation_latency_seconds",
		Help:    "Latency of recommendation scoring",
		Buckets: prometheus.DefBuckets,
	})

	BehaviorRecomputes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "behavior_recomputes_total",
		Help: "Count of behavior profile, insight and cohort recomputes",
	}, []string{"kind"})

	KVStoreReadFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kvstore_read_failures_total",
		Help: "Count of storage reads that failed and were treated as empty",
	}, []string{"key"})
)

var once sync.Once

func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			ExperimentAssignments,
			ExperimentResults,
			RecommendationRequests,
			RecommendationLatency,
			BehaviorRecomputes,
			KVStoreReadFailures,
		)
	})
}
