// 包 gridindex：建筑质心的定长网格索引，支撑亚线性半径查询
package gridindex

import (
	"math"
	"sync/atomic"
	"time"

	"shelter-map/internal/geodata"
	"shelter-map/internal/logger"
	"shelter-map/internal/metrics"
)

// 文档注释：网格索引
// 背景：按固定格长把建筑质心分桶，半径查询只需枚举切比雪夫距离内的格子再做平方距离判定，
// 规避全量扫描；与离线优化器一致，距离比较始终使用平方值，不做开方。
// 约束：格长在构建期固定，构建与查询必须使用同一格长；更换格长需整体重建。
// 重建通过 atomic.Value 原子替换快照，查询路径永远看不到半建成的索引。

type Entry struct {
	Index int
	Lon   float64
	Lat   float64
}

type cellKey struct {
	X int
	Y int
}

// snapshot：一次构建的只读成品，构建完成后整体替换
type snapshot struct {
	cellSize float64
	cells    map[cellKey][]Entry
	count    int
}

type Index struct {
	v atomic.Value // *snapshot
}

func New() *Index { return &Index{} }

// Build：全量构建网格索引并原子替换旧快照
// 背景：消费完整建筑序列；无质心的记录（不支持的几何类型）直接跳过，不计入索引。
// 约束：cellSize 必须为正，否则保留旧快照不动并告警。
func (ix *Index) Build(buildings []geodata.Building, cellSize float64) {
	if cellSize <= 0 {
		logger.L().Warn("grid_build_skipped", "reason", "non_positive_cell_size", "cell_size", cellSize)
		return
	}
	start := time.Now()
	snap := &snapshot{cellSize: cellSize, cells: make(map[cellKey][]Entry)}
	for _, b := range buildings {
		if !b.HasCentroid {
			continue
		}
		k := cellKey{
			X: int(math.Floor(b.Centroid.Lon / cellSize)),
			Y: int(math.Floor(b.Centroid.Lat / cellSize)),
		}
		snap.cells[k] = append(snap.cells[k], Entry{Index: b.Index, Lon: b.Centroid.Lon, Lat: b.Centroid.Lat})
		snap.count++
	}
	ix.v.Store(snap)
	metrics.GridBuildDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	metrics.GridIndexedBuildings.Set(float64(snap.count))
	logger.L().Info("grid_build_done",
		"buildings", snap.count,
		"cells", len(snap.cells),
		"cell_size", cellSize,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Query：返回质心落入查询圆内（含边界）的建筑下标
// 背景：先计算格半径 ceil(radius/cellSize)，枚举中心格切比雪夫距离内的格子，
// 逐条做平方距离判定；半径 0 仅命中与查询点完全重合的质心。
// 约束：索引未构建时返回空集（前端早期事件的优雅降级）；
// 固定的格序（x 外层、y 内层递增）加构建序保证同输入结果确定。
func (ix *Index) Query(center geodata.Point, radiusDeg float64) []int {
	x := ix.v.Load()
	if x == nil {
		return nil
	}
	snap := x.(*snapshot)
	if snap.count == 0 || radiusDeg < 0 {
		return nil
	}
	metrics.GridQueriesTotal.Inc()
	cellRadius := int(math.Ceil(radiusDeg / snap.cellSize))
	cx := int(math.Floor(center.Lon / snap.cellSize))
	cy := int(math.Floor(center.Lat / snap.cellSize))
	r2 := radiusDeg * radiusDeg
	var out []int
	for dx := -cellRadius; dx <= cellRadius; dx++ {
		for dy := -cellRadius; dy <= cellRadius; dy++ {
			for _, e := range snap.cells[cellKey{X: cx + dx, Y: cy + dy}] {
				ddx := e.Lon - center.Lon
				ddy := e.Lat - center.Lat
				if ddx*ddx+ddy*ddy <= r2 {
					out = append(out, e.Index)
				}
			}
		}
	}
	return out
}

// Len：当前快照持有的质心数；未构建返回 0
func (ix *Index) Len() int {
	x := ix.v.Load()
	if x == nil {
		return 0
	}
	return x.(*snapshot).count
}
