package geodata

import (
	"fmt"
	"strings"
)

// 文档注释：避难所位置归一化与定位键
// 背景：历史数据中避难所位置存在三种记录形态（geometry 对象、裸坐标对、分离的经纬度字段），
// 下游组件不应感知形态差异；在边界处统一归一化为 Point，定位键从归一化结果推导。
// 约束：定位键固定 6 位小数（约 1 米精度），与优化器生成预计算表时的键格式一致，
// 用于吸收不同记录形态带来的浮点表示噪声。

// LocationKey：生成避难所定位键，格式 "<lon>_<lat>"，各 6 位小数
func LocationKey(p Point) string {
	return fmt.Sprintf("%.6f_%.6f", p.Lon, p.Lat)
}

// NormalizeLocation：从任意形态的避难所记录中提取位置
// 支持：geometry 对象（Point）、coordinates/coord 坐标对、lat+lon/lng/longitude/latitude 字段
// 返回：归一化 Point 与是否成功；失败表示记录无可推导位置
func NormalizeLocation(rec map[string]any) (Point, bool) {
	if rec == nil {
		return Point{}, false
	}
	if g, ok := rec["geometry"].(map[string]any); ok {
		if gt, _ := g["type"].(string); strings.EqualFold(gt, "Point") {
			if c, ok := g["coordinates"].([]any); ok && len(c) >= 2 {
				return Point{Lon: toFloat(c[0]), Lat: toFloat(c[1])}, true
			}
		}
	}
	for _, k := range []string{"coordinates", "coord"} {
		if c, ok := rec[k].([]any); ok && len(c) >= 2 {
			return Point{Lon: toFloat(c[0]), Lat: toFloat(c[1])}, true
		}
	}
	lat, latOK := numField(rec, "lat", "latitude")
	lon, lonOK := numField(rec, "lon", "lng", "longitude")
	if latOK && lonOK {
		return Point{Lon: lon, Lat: lat}, true
	}
	return Point{}, false
}

func numField(rec map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			switch v.(type) {
			case float64, float32, int, int64:
				return toFloat(v), true
			}
		}
	}
	return 0, false
}
