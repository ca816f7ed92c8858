// 包 api：集中注册 HTTP API 路由以解耦主入口；对前端暴露覆盖解析、统计聚合与缓存失效
package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"shelter-map/internal/coverage"
	"shelter-map/internal/depcache"
	"shelter-map/internal/geodata"
	"shelter-map/internal/logger"
	"shelter-map/internal/metrics"
	"shelter-map/internal/version"

	"github.com/redis/go-redis/v9"
)

// coverageResult：覆盖查询的对外返回结构
type coverageResult struct {
	Key             string `json:"key"`
	RadiusM         int    `json:"radius_m"`
	BuildingIndices []int  `json:"building_indices"`
	BuildingsCount  int    `json:"buildings_count"`
	EstimatedPeople int    `json:"estimated_people"`
}

// BaselineFunc：按半径取基线统计；缺失时返回零值基线
type BaselineFunc func(radiusM int) geodata.BaselineStats

// Deps：路由依赖的注入集合
type Deps struct {
	Resolver *coverage.Resolver
	Agg      *coverage.Aggregator
	DepCache *depcache.Cache
	Shelters []geodata.Shelter
	Baseline BaselineFunc
	Redis    *redis.Client
}

// BuildRoutes：构建并返回 API 路由，独立 ServeMux 便于在主入口挂载到前缀
func BuildRoutes(d Deps) *http.ServeMux {
	ttl := 60
	if s := os.Getenv("COVERAGE_REDIS_TTL_S"); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 {
			ttl = n
		}
	}
	mux := http.NewServeMux()

	// 覆盖查询：GET 传 lon/lat 字段，POST 接受任意形态的避难所记录（geometry/坐标对/分离字段）
	mux.HandleFunc("/coverage", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		radiusM := d.Resolver.Radius()
		if s := r.URL.Query().Get("radius"); s != "" {
			if n, e := strconv.Atoi(s); e == nil && n > 0 {
				radiusM = n
			}
		}
		sh, ok := shelterFromRequest(r)
		if !ok {
			// 畸形记录按空覆盖集返回，不报错
			writeJSON(w, coverageResult{RadiusM: radiusM, BuildingIndices: []int{}})
			return
		}
		key := geodata.LocationKey(sh.Loc)
		ck := "cov:" + key + ":" + strconv.Itoa(radiusM)
		if d.Redis != nil {
			if s, _ := d.Redis.Get(ctx, ck).Result(); s != "" {
				metrics.RedisHitsTotal.Inc()
				w.Header().Set("content-type", "application/json; charset=utf-8")
				_, _ = w.Write([]byte(s))
				return
			}
			metrics.RedisMissesTotal.Inc()
		}
		idxs := d.Resolver.Resolve(sh, radiusM)
		if idxs == nil {
			idxs = []int{}
		}
		res := coverageResult{
			Key:             key,
			RadiusM:         radiusM,
			BuildingIndices: idxs,
			BuildingsCount:  len(idxs),
			EstimatedPeople: len(idxs) * d.Agg.PeoplePerBuilding,
		}
		b, _ := json.Marshal(res)
		if d.Redis != nil {
			_ = d.Redis.Set(ctx, ck, string(b), time.Duration(ttl)*time.Second).Err()
		}
		w.Header().Set("content-type", "application/json; charset=utf-8")
		_, _ = w.Write(b)
	})

	// 覆盖统计：当前（或指定）半径下的既有/新增/合计覆盖与覆盖率
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		radiusM := d.Resolver.Radius()
		if s := r.URL.Query().Get("radius"); s != "" {
			if n, e := strconv.Atoi(s); e == nil && n > 0 {
				radiusM = n
			}
		}
		var baseline geodata.BaselineStats
		if d.Baseline != nil {
			baseline = d.Baseline(radiusM)
		}
		writeJSON(w, d.Agg.Summarize(d.Shelters, baseline, radiusM))
	})

	// 半径切换：重切活动映射并清空兜底缓存，作为一个整体步骤完成后才返回
	mux.HandleFunc("/radius", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		n, err := strconv.Atoi(r.URL.Query().Get("m"))
		if err != nil || n <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		d.Resolver.SetRadius(n)
		logger.L().Info("radius_changed", "radius_m", n)
		w.WriteHeader(http.StatusNoContent)
	})

	// 槽位失效：渲染层派生对象的显式失效入口；不带 slot 参数时清空全部
	mux.HandleFunc("/invalidate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		slots := r.URL.Query()["slot"]
		d.DepCache.Invalidate(slots...)
		logger.L().Debug("depcache_invalidate", "slots", slots)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":   "ok",
			"commit":   version.Commit,
			"radius_m": d.Resolver.Radius(),
		})
	})
	return mux
}

// shelterFromRequest：把请求归一化为避难所记录
// 背景：GET 以 lon/lat 查询参数表达；POST 接受 JSON 记录并走统一的位置归一化，
// 三种记录形态在此收敛，下游不再分支。
func shelterFromRequest(r *http.Request) (geodata.Shelter, bool) {
	if r.Method == http.MethodPost {
		var rec map[string]any
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			return geodata.Shelter{}, false
		}
		if loc, ok := geodata.NormalizeLocation(rec); ok {
			return geodata.Shelter{Loc: loc, HasLoc: true}, true
		}
		return geodata.Shelter{}, false
	}
	q := r.URL.Query()
	lon, e1 := strconv.ParseFloat(q.Get("lon"), 64)
	lat, e2 := strconv.ParseFloat(q.Get("lat"), 64)
	if e1 != nil || e2 != nil {
		return geodata.Shelter{}, false
	}
	return geodata.Shelter{Loc: geodata.Point{Lon: lon, Lat: lat}, HasLoc: true}, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}
