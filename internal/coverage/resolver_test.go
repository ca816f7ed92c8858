package coverage

import (
	"fmt"
	"sort"
	"testing"

	"shelter-map/internal/depcache"
	"shelter-map/internal/geodata"
	"shelter-map/internal/gridindex"

	"github.com/stretchr/testify/require"
)

func buildGrid(pts []geodata.Point) *gridindex.Index {
	bs := make([]geodata.Building, len(pts))
	for i, p := range pts {
		bs[i] = geodata.Building{Index: i, Centroid: p, HasCentroid: true}
	}
	ix := gridindex.New()
	ix.Build(bs, 0.001)
	return ix
}

func shelterAt(lon, lat float64) geodata.Shelter {
	return geodata.Shelter{Loc: geodata.Point{Lon: lon, Lat: lat}, HasLoc: true}
}

// 预计算命中必须原样返回表中的下标列表，即使与实时计算不同
func TestPrecomputedPreferredOverGrid(t *testing.T) {
	grid := buildGrid([]geodata.Point{{Lon: 34.9800, Lat: 31.2500}})
	tb := NewTable()
	// 表中故意写入与实时结果不同的内容，以区分命中路径
	tb.Add("34.980100_31.250000", 100, RadiusCoverage{BuildingIndices: []int{42, 43}, BuildingsCount: 2, EstimatedPeople: 14})

	r := NewResolver(grid, tb, depcache.New(), 100, 10)
	got := r.Resolve(shelterAt(34.9801, 31.25), 100)
	require.Equal(t, []int{42, 43}, got)
}

// 表只有 100m 档，查询 150m 必须走兜底路径而非返回 100m 条目
func TestInactiveRadiusUsesFallback(t *testing.T) {
	grid := buildGrid([]geodata.Point{{Lon: 34.9800, Lat: 31.2500}})
	tb := NewTable()
	tb.Add("34.980100_31.250000", 100, RadiusCoverage{BuildingIndices: []int{42}, BuildingsCount: 1, EstimatedPeople: 7})

	r := NewResolver(grid, tb, depcache.New(), 100, 10)
	got := r.Resolve(shelterAt(34.9801, 31.25), 150)
	// 兜底为实时网格结果：建筑 0，而不是表中的 42
	require.Equal(t, []int{0}, got)
}

// 表中缺该避难所时回落到实时计算
func TestPrecomputedMissFallsThrough(t *testing.T) {
	grid := buildGrid([]geodata.Point{{Lon: 34.9800, Lat: 31.2500}})
	tb := NewTable()
	tb.Add("99.000000_9.000000", 100, RadiusCoverage{BuildingIndices: []int{7}})

	r := NewResolver(grid, tb, depcache.New(), 100, 10)
	require.Equal(t, []int{0}, r.Resolve(shelterAt(34.9801, 31.25), 100))
}

// 无表（加载失败）时解析器在纯兜底模式下工作
func TestNilTableFallbackMode(t *testing.T) {
	grid := buildGrid([]geodata.Point{{Lon: 34.9800, Lat: 31.2500}})
	r := NewResolver(grid, nil, depcache.New(), 100, 10)
	require.Equal(t, []int{0}, r.Resolve(shelterAt(34.9801, 31.25), 100))
	require.Empty(t, r.Resolve(shelterAt(34.9801, 31.25), 5))
}

// 兜底结果进入缓存：索引重建为空后，同键查询仍返回缓存值
func TestFallbackCacheServesRepeatQueries(t *testing.T) {
	grid := buildGrid([]geodata.Point{{Lon: 34.9800, Lat: 31.2500}})
	r := NewResolver(grid, nil, depcache.New(), 100, 10)
	sh := shelterAt(34.9801, 31.25)
	require.Equal(t, []int{0}, r.Resolve(sh, 100))

	grid.Build(nil, 0.001)
	require.Equal(t, []int{0}, r.Resolve(sh, 100), "second resolve must come from the cache")
}

// 半径切换后不得返回旧半径下的任何结果（缓存与活动切片一并失效）
func TestRadiusSwitchInvalidates(t *testing.T) {
	grid := buildGrid([]geodata.Point{
		{Lon: 34.9801, Lat: 31.2500}, // ~0 m
		{Lon: 34.9810, Lat: 31.2500}, // ~100 m
	})
	tb := NewTable()
	tb.Add("34.980100_31.250000", 100, RadiusCoverage{BuildingIndices: []int{0}})
	tb.Add("34.980100_31.250000", 150, RadiusCoverage{BuildingIndices: []int{0, 1}})

	r := NewResolver(grid, tb, depcache.New(), 100, 10)
	sh := shelterAt(34.9801, 31.25)
	require.Equal(t, []int{0}, r.Resolve(sh, 100))

	r.SetRadius(150)
	require.Equal(t, 150, r.Radius())
	require.Equal(t, []int{0, 1}, r.Resolve(sh, 150))

	// 切回旧半径同样干净
	r.SetRadius(100)
	require.Equal(t, []int{0}, r.Resolve(sh, 100))
}

// 半径切换清空兜底缓存：旧半径条目不可复用
func TestRadiusSwitchClearsFallbackCache(t *testing.T) {
	grid := buildGrid([]geodata.Point{{Lon: 34.9800, Lat: 31.2500}})
	r := NewResolver(grid, nil, depcache.New(), 100, 10)
	sh := shelterAt(34.9801, 31.25)
	require.Equal(t, []int{0}, r.Resolve(sh, 100))

	r.SetRadius(150)
	// 索引清空后重查：若旧缓存未清空会错误地返回 [0]
	grid.Build(nil, 0.001)
	require.Empty(t, r.Resolve(sh, 100))
}

// 畸形避难所（无可推导位置）解析为空集，不抛错
func TestMalformedShelterEmptyCoverage(t *testing.T) {
	grid := buildGrid([]geodata.Point{{Lon: 34.9800, Lat: 31.2500}})
	r := NewResolver(grid, nil, depcache.New(), 100, 10)
	require.Empty(t, r.Resolve(geodata.Shelter{}, 100))
}

// 兜底缓存容量有界：大量相异查询后不超过上限
func TestFallbackCacheBounded(t *testing.T) {
	var pts []geodata.Point
	for i := 0; i < 10; i++ {
		pts = append(pts, geodata.Point{Lon: float64(i) * 0.01, Lat: 0})
	}
	grid := buildGrid(pts)
	r := NewResolver(grid, nil, depcache.New(), 100, DefaultCacheCap)
	for i := 0; i < 150; i++ {
		r.Resolve(shelterAt(float64(i)*0.001, 0), 100)
	}
	// 间接验证：引擎仍正常工作且结果正确
	got := r.Resolve(shelterAt(0.01, 0), 100)
	require.Equal(t, []int{1}, got)
}

// 兜底路径与暴力结果一致（集合意义）
func TestFallbackMatchesBruteForce(t *testing.T) {
	var pts []geodata.Point
	for i := 0; i < 50; i++ {
		pts = append(pts, geodata.Point{
			Lon: 34.97 + float64(i%10)*0.0004,
			Lat: 31.24 + float64(i/10)*0.0004,
		})
	}
	grid := buildGrid(pts)
	r := NewResolver(grid, nil, depcache.New(), 100, 10)
	center := geodata.Point{Lon: 34.9715, Lat: 31.2408}
	got := append([]int{}, r.Resolve(geodata.Shelter{Loc: center, HasLoc: true}, 100)...)
	sort.Ints(got)

	radiusDeg := 100.0 / MetersPerDegree
	var want []int
	for i, p := range pts {
		dx := p.Lon - center.Lon
		dy := p.Lat - center.Lat
		if dx*dx+dy*dy <= radiusDeg*radiusDeg {
			want = append(want, i)
		}
	}
	require.Equal(t, want, got, fmt.Sprintf("radius %.6f deg", radiusDeg))
}
