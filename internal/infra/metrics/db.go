package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolConns, dbPoolAcquireTotal) }

var (
	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_conns",
			Help: "Connections in the Postgres pool by state.",
		},
		[]string{"state"}, // 'total', 'idle', 'acquired', 'max'
	)

	dbPoolAcquireTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_acquire_count",
			Help: "Cumulative successful connection acquisitions reported by the pool.",
		},
	)
)

func SetDBPoolStats(total, idle, acquired, max int32, acquireCount int64) {
	dbPoolConns.WithLabelValues("total").Set(float64(total))
	dbPoolConns.WithLabelValues("idle").Set(float64(idle))
	dbPoolConns.WithLabelValues("acquired").Set(float64(acquired))
	dbPoolConns.WithLabelValues("max").Set(float64(max))
	dbPoolAcquireTotal.Set(float64(acquireCount))
}
