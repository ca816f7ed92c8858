package coverage

import (
	"strconv"
	"sync"
	"time"

	"shelter-map/internal/depcache"
	"shelter-map/internal/geodata"
	"shelter-map/internal/gridindex"
	"shelter-map/internal/metrics"
)

// 文档注释：覆盖解析器（预计算切片 → 有界缓存 → 网格索引）
// 背景：回答"半径 R 内避难所 S 覆盖哪些建筑"。预计算表命中是 O(1) 主路径，必须优先；
// 兜底为网格索引实时查询，结果进入容量 100 的 FIFO 缓存以约束长会话内存。
// 约束：半径切换是一个整体步骤——重切活动映射并清空兜底缓存后才处理后续解析，
// 旧半径下的任何缓存结果不得再返回。Resolve 永不向调用方抛错：无法定位的避难所
// 解析为空覆盖集。

// MetersPerDegree：米转度的固定除数
// NOTE: 固定近似（非纬度校正），误差随纬度升高而增大；预计算表由同一近似生成，
// 改为精确换算会在半径边界附近与表产生分歧，保持原样。
const MetersPerDegree = 111000.0

// DefaultCacheCap：兜底覆盖缓存的固定容量
const DefaultCacheCap = 100

// sliceSlot：活动半径切片在依赖键控缓存中的槽位名
const sliceSlot = "coverage_slice"

type Resolver struct {
	mu       sync.Mutex
	grid     *gridindex.Index
	table    *Table // nil 表示本会话永久降级（仅兜底路径）
	deps     *depcache.Cache
	fallback *depcache.Bounded
	radiusM  int
}

// NewResolver：构造解析器并完成首次切片
// 背景：table 允许为 nil（加载失败的降级模式）；deps 由调用方持有，渲染层可共享同一实例。
func NewResolver(grid *gridindex.Index, table *Table, deps *depcache.Cache, radiusM, cacheCap int) *Resolver {
	if cacheCap <= 0 {
		cacheCap = DefaultCacheCap
	}
	r := &Resolver{
		grid:     grid,
		table:    table,
		deps:     deps,
		fallback: depcache.NewBounded(cacheCap),
		radiusM:  radiusM,
	}
	if table != nil {
		r.mu.Lock()
		r.activeSlice()
		r.mu.Unlock()
	}
	return r
}

// Radius：当前活动半径（米）
func (r *Resolver) Radius() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.radiusM
}

// SetRadius：切换活动半径
// 背景：重切预计算表的活动映射并清空兜底缓存，二者在同一临界区内完成；
// 返回后任何 Resolve 都只会看到新半径的状态。
func (r *Resolver) SetRadius(radiusM int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if radiusM == r.radiusM {
		return
	}
	r.radiusM = radiusM
	if r.table != nil {
		r.activeSlice()
	}
	r.fallback.Clear()
}

// Resolve：返回半径内覆盖的建筑下标集合
// 解析顺序：活动切片（仅当查询半径等于活动半径）→ 兜底缓存 → 网格实时查询。
// 约束：预计算命中原样返回表中的下标列表；任何失败都折算为空集，不向上传播。
func (r *Resolver) Resolve(sh geodata.Shelter, radiusM int) []int {
	start := time.Now()
	defer func() {
		metrics.ResolveDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()
	if !sh.HasLoc {
		metrics.ResolveTotal.WithLabelValues("empty").Inc()
		return nil
	}
	key := geodata.LocationKey(sh.Loc)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.table != nil && radiusM == r.radiusM {
		if cov, ok := r.activeSlice()[key]; ok {
			metrics.ResolveTotal.WithLabelValues("precomputed").Inc()
			return cov.BuildingIndices
		}
	}
	ck := key + ":" + strconv.Itoa(radiusM)
	if v, ok := r.fallback.Get(ck); ok {
		metrics.ResolveTotal.WithLabelValues("cache").Inc()
		return v
	}
	idxs := r.grid.Query(sh.Loc, float64(radiusM)/MetersPerDegree)
	r.fallback.Set(ck, idxs)
	metrics.ResolveTotal.WithLabelValues("grid").Inc()
	return idxs
}

// activeSlice：经由依赖键控缓存取当前半径的活动映射；半径即依赖键，键变自动重切
// 约束：调用方必须已持有 r.mu
func (r *Resolver) activeSlice() map[string]RadiusCoverage {
	v := r.deps.GetOrCompute(sliceSlot, r.radiusM, func() any {
		metrics.TableResliceTotal.Inc()
		return r.table.Slice(r.radiusM)
	})
	return v.(map[string]RadiusCoverage)
}
