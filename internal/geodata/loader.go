package geodata

import (
	"encoding/json"
	"os"
	"path/filepath"

	"shelter-map/internal/logger"
)

// 文档注释：从数据目录加载建筑/避难所/基线统计
// 背景：约定文件名 buildings.geojson、shelters.geojson、baseline_stats.json；
// 均为离线流程产出，启动时一次性读入，会话内只读。
// 约束：加载失败不终止进程——返回错误交由上层记录并降级（空数据集也能提供服务）。

func LoadBuildings(dir string) ([]Building, error) {
	gj, err := readJSON(filepath.Join(dir, "buildings.geojson"))
	if err != nil {
		return nil, err
	}
	bs := BuildingsFromGeoJSON(gj)
	logger.L().Debug("buildings_loaded", "count", len(bs))
	return bs, nil
}

func LoadShelters(dir string) ([]Shelter, error) {
	gj, err := readJSON(filepath.Join(dir, "shelters.geojson"))
	if err != nil {
		return nil, err
	}
	ss := SheltersFromGeoJSON(gj)
	logger.L().Debug("shelters_loaded", "count", len(ss))
	return ss, nil
}

// LoadBaselineStats：读取基线统计；文件缺失或畸形时返回零值统计与错误
// 背景：统计聚合器在基线缺失时按全零基线工作（只展示新增覆盖）
func LoadBaselineStats(dir string) (BaselineStats, error) {
	var st BaselineStats
	b, err := os.ReadFile(filepath.Join(dir, "baseline_stats.json"))
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return BaselineStats{}, err
	}
	return st, nil
}

func readJSON(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
