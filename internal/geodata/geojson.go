package geodata

import "strings"

// 文档注释：GeoJSON FeatureCollection 解析
// 背景：建筑与避难所数据以 GeoJSON 形式交付；解析保持宽松（缺字段跳过而非报错），
// 与离线流程的产出约定对齐。
// 约束：建筑质心规则固定——Point 取坐标本身，Polygon 取外环去重顶点的算术平均
// （排除闭合重复点）；其余几何类型不参与索引。

// BuildingsFromGeoJSON：按 feature 顺序解析建筑序列，下标即建筑标识
func BuildingsFromGeoJSON(gj map[string]any) []Building {
	feats := features(gj)
	out := make([]Building, 0, len(feats))
	for i, f := range feats {
		b := Building{Index: i}
		if g, ok := f["geometry"].(map[string]any); ok {
			if c, ok := centroidOf(g); ok {
				b.Centroid = c
				b.HasCentroid = true
			}
		}
		out = append(out, b)
	}
	return out
}

// SheltersFromGeoJSON：解析避难所序列
// 背景：状态标签来自属性 status；历史数据中 planned 与 requested 同义，统一归并。
// Proposed 记录携带优化器写入的 buildings_covered。
func SheltersFromGeoJSON(gj map[string]any) []Shelter {
	feats := features(gj)
	out := make([]Shelter, 0, len(feats))
	for i, f := range feats {
		s := Shelter{Index: i, Status: StatusExisting}
		if p, ok := f["properties"].(map[string]any); ok {
			s.Name = getStr(p, "name")
			switch strings.ToLower(getStr(p, "status")) {
			case "requested", "planned":
				s.Status = StatusRequested
			case "proposed":
				s.Status = StatusProposed
			}
			if v, ok := p["buildings_covered"]; ok {
				s.BuildingsCovered = int(toFloat(v))
			}
		}
		if loc, ok := NormalizeLocation(f); ok {
			s.Loc = loc
			s.HasLoc = true
		}
		out = append(out, s)
	}
	return out
}

func features(gj map[string]any) []map[string]any {
	if gj == nil {
		return nil
	}
	t := strings.ToLower(getStr(gj, "type"))
	if t == "featurecollection" {
		arr, _ := gj["features"].([]any)
		out := make([]map[string]any, 0, len(arr))
		for _, it := range arr {
			if f, ok := it.(map[string]any); ok {
				out = append(out, f)
			}
		}
		return out
	}
	if t == "feature" {
		return []map[string]any{gj}
	}
	return nil
}

// centroidOf：按固定规则推导几何质心；不支持的类型返回 false
func centroidOf(g map[string]any) (Point, bool) {
	switch strings.ToLower(getStr(g, "type")) {
	case "point":
		if c, ok := g["coordinates"].([]any); ok && len(c) >= 2 {
			return Point{Lon: toFloat(c[0]), Lat: toFloat(c[1])}, true
		}
	case "polygon":
		rings, _ := g["coordinates"].([]any)
		if len(rings) == 0 {
			return Point{}, false
		}
		ring, _ := rings[0].([]any)
		return ringMean(ring)
	}
	return Point{}, false
}

// ringMean：外环顶点算术平均；闭合点（与首点重复的末点）不计入
func ringMean(ring []any) (Point, bool) {
	var pts []Point
	for _, it := range ring {
		if c, ok := it.([]any); ok && len(c) >= 2 {
			pts = append(pts, Point{Lon: toFloat(c[0]), Lat: toFloat(c[1])})
		}
	}
	if len(pts) == 0 {
		return Point{}, false
	}
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p.Lon
		sy += p.Lat
	}
	n := float64(len(pts))
	return Point{Lon: sx / n, Lat: sy / n}, true
}

func getStr(m map[string]any, k string) string {
	if v, ok := m[k].(string); ok {
		return v
	}
	return ""
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	default:
		return 0
	}
}
