package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ResolveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sheltermap_resolve_total",
		Help: "Total coverage resolutions by path (precomputed/cache/grid/empty)",
	}, []string{"path"})
	ResolveDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sheltermap_resolve_duration_ms",
		Help:    "Coverage resolution duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100},
	})
	GridQueriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sheltermap_grid_queries_total",
		Help: "Total live grid-index radius queries",
	})
	GridBuildDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sheltermap_grid_build_duration_ms",
		Help:    "Grid index build duration in milliseconds",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})
	GridIndexedBuildings = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sheltermap_grid_indexed_buildings",
		Help: "Number of building centroids held by the current grid index",
	})
	DepCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sheltermap_depcache_hits_total",
		Help: "Dependency-keyed cache hits by slot",
	}, []string{"slot"})
	DepCacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sheltermap_depcache_misses_total",
		Help: "Dependency-keyed cache misses (compute invoked) by slot",
	}, []string{"slot"})
	CoverageEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sheltermap_coverage_evictions_total",
		Help: "Entries evicted from the bounded fallback coverage cache",
	})
	TableLoadFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sheltermap_table_load_failures_total",
		Help: "Precomputed coverage table load failures",
	})
	TableResliceTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sheltermap_table_reslice_total",
		Help: "Active-radius re-slices of the precomputed coverage table",
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sheltermap_redis_hits_total",
		Help: "Total redis response cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sheltermap_redis_misses_total",
		Help: "Total redis response cache misses",
	})
)

func init() {
	prometheus.MustRegister(ResolveTotal)
	prometheus.MustRegister(ResolveDurationMs)
	prometheus.MustRegister(GridQueriesTotal)
	prometheus.MustRegister(GridBuildDurationMs)
	prometheus.MustRegister(GridIndexedBuildings)
	prometheus.MustRegister(DepCacheHitsTotal)
	prometheus.MustRegister(DepCacheMissesTotal)
	prometheus.MustRegister(CoverageEvictionsTotal)
	prometheus.MustRegister(TableLoadFailuresTotal)
	prometheus.MustRegister(TableResliceTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
