package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobSearchTotal, jobSearchResults) }

var (
	jobSearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_search_requests_total",
			Help: "Job board searches by outcome.",
		},
		[]string{"outcome"}, // 'ok', 'area_retry', 'placeholder'
	)

	jobSearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "job_search_results",
			Help:    "Number of postings returned per search.",
			Buckets: []float64{0, 1, 5, 10, 20, 50},
		},
	)
)

func IncJobSearch(outcome string, results int) {
	jobSearchTotal.WithLabelValues(norm(outcome)).Inc()
	jobSearchResults.Observe(float64(results))
}
