package geodata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestBuildingsFromGeoJSON(t *testing.T) {
	gj := parse(t, `{
		"type": "FeatureCollection",
		"features": [
			{"type":"Feature","geometry":{"type":"Point","coordinates":[34.98,31.25]}},
			{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0],[0,0]]]}},
			{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}},
			{"type":"Feature"}
		]
	}`)
	bs := BuildingsFromGeoJSON(gj)
	require.Len(t, bs, 4)

	// Point：直接取坐标
	require.True(t, bs[0].HasCentroid)
	require.Equal(t, Point{Lon: 34.98, Lat: 31.25}, bs[0].Centroid)

	// Polygon：外环去重顶点均值，闭合点不计入（四个顶点 → (0.5,0.5)）
	require.True(t, bs[1].HasCentroid)
	require.Equal(t, Point{Lon: 0.5, Lat: 0.5}, bs[1].Centroid)

	// 不支持的几何与缺失几何：跳过但保序——下标即标识
	require.False(t, bs[2].HasCentroid)
	require.Equal(t, 2, bs[2].Index)
	require.False(t, bs[3].HasCentroid)
	require.Equal(t, 3, bs[3].Index)
}

// 未闭合外环同样按全部顶点取均值
func TestPolygonCentroidOpenRing(t *testing.T) {
	gj := parse(t, `{
		"type": "FeatureCollection",
		"features": [
			{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[0,2],[2,2],[2,0]]]}}
		]
	}`)
	bs := BuildingsFromGeoJSON(gj)
	require.True(t, bs[0].HasCentroid)
	require.Equal(t, Point{Lon: 1, Lat: 1}, bs[0].Centroid)
}

func TestSheltersFromGeoJSON(t *testing.T) {
	gj := parse(t, `{
		"type": "FeatureCollection",
		"features": [
			{"type":"Feature","properties":{"status":"existing","name":"north"},"geometry":{"type":"Point","coordinates":[34.98,31.25]}},
			{"type":"Feature","properties":{"status":"planned"},"geometry":{"type":"Point","coordinates":[34.99,31.26]}},
			{"type":"Feature","properties":{"status":"proposed","buildings_covered":37},"geometry":{"type":"Point","coordinates":[35.00,31.27]}},
			{"type":"Feature","properties":{"status":"proposed"}}
		]
	}`)
	ss := SheltersFromGeoJSON(gj)
	require.Len(t, ss, 4)

	require.Equal(t, StatusExisting, ss[0].Status)
	require.Equal(t, "north", ss[0].Name)
	require.True(t, ss[0].HasLoc)

	// planned 归并为 requested
	require.Equal(t, StatusRequested, ss[1].Status)

	require.Equal(t, StatusProposed, ss[2].Status)
	require.Equal(t, 37, ss[2].BuildingsCovered)

	// 无几何的提案记录：保留但标记为不可定位
	require.Equal(t, StatusProposed, ss[3].Status)
	require.False(t, ss[3].HasLoc)
}

func TestSingleFeatureDocument(t *testing.T) {
	gj := parse(t, `{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]}}`)
	bs := BuildingsFromGeoJSON(gj)
	require.Len(t, bs, 1)
	require.Equal(t, Point{Lon: 1, Lat: 2}, bs[0].Centroid)
}

func TestNonCollectionDocument(t *testing.T) {
	require.Empty(t, BuildingsFromGeoJSON(parse(t, `{"type":"Topology"}`)))
	require.Empty(t, BuildingsFromGeoJSON(nil))
}
