package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(sessionStoreFallbackTotal, sessionJanitorEvicted) }

var (
	sessionStoreFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_store_fallback_total",
			Help: "Session store operations served by the in-process store after a Redis failure.",
		},
		[]string{"op"}, // 'get', 'set', 'del'
	)

	sessionJanitorEvicted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "session_janitor_evicted_total",
			Help: "Expired in-process session entries removed by the janitor.",
		},
	)
)

func IncSessionFallback(op string) {
	sessionStoreFallbackTotal.WithLabelValues(norm(op)).Inc()
}

func AddJanitorEvicted(n int) {
	sessionJanitorEvicted.Add(float64(n))
}
