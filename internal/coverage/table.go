// 包 coverage：覆盖解析与统计聚合（预计算表优先，网格索引兜底）
package coverage

import (
	"encoding/json"
	"strconv"
)

// 文档注释：预计算覆盖表
// 背景：离线优化器为每个避难所预计算多半径覆盖并落盘；表以定位键 → 半径档 → 覆盖块组织。
// 热路径上不持有全半径解码结果——按当前半径切片出 定位键 → 覆盖块 的活动映射。
// 约束：表加载后只读；半径档键为 "<radius>m" 格式，与优化器输出一致。

// RadiusCoverage：单个避难所在单一半径下的覆盖块
type RadiusCoverage struct {
	BuildingIndices []int `json:"building_indices"`
	BuildingsCount  int   `json:"buildings_count"`
	EstimatedPeople int   `json:"estimated_people"`
}

type shelterInfo struct {
	Coordinates []float64      `json:"coordinates"`
	Properties  map[string]any `json:"properties"`
}

type shelterEntry struct {
	ShelterInfo      shelterInfo               `json:"shelter_info"`
	CoverageByRadius map[string]RadiusCoverage `json:"coverage_by_radius"`
}

type Table struct {
	entries map[string]shelterEntry
}

// ParseTable：解析优化器输出的预计算覆盖 JSON
func ParseTable(b []byte) (*Table, error) {
	var entries map[string]shelterEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, err
	}
	return &Table{entries: entries}, nil
}

// NewTable：空表，供数据库来源逐行填充
func NewTable() *Table {
	return &Table{entries: make(map[string]shelterEntry)}
}

// Add：写入单个 (定位键, 半径) 覆盖块；同键同半径覆写
func (t *Table) Add(key string, radiusM int, cov RadiusCoverage) {
	e, ok := t.entries[key]
	if !ok {
		e = shelterEntry{CoverageByRadius: make(map[string]RadiusCoverage)}
	}
	e.CoverageByRadius[strconv.Itoa(radiusM)+"m"] = cov
	t.entries[key] = e
}

// Shelters：表内避难所条目数
func (t *Table) Shelters() int { return len(t.entries) }

// Slice：切出指定半径的活动映射（定位键 → 覆盖块）
// 背景：丢弃半径维度后热路径查找为单次 map 命中；表内没有该半径档的避难所不进入活动映射。
func (t *Table) Slice(radiusM int) map[string]RadiusCoverage {
	rk := strconv.Itoa(radiusM) + "m"
	out := make(map[string]RadiusCoverage, len(t.entries))
	for key, e := range t.entries {
		if cov, ok := e.CoverageByRadius[rk]; ok {
			out[key] = cov
		}
	}
	return out
}
