package coverage

import (
	"os"
	"strconv"

	"shelter-map/internal/geodata"
)

// 文档注释：覆盖统计聚合器
// 背景：把解析器输出与外部基线统计合成前端展示的覆盖数与覆盖率；
// 人口折算使用统一的每建筑常住系数——这是政策常数而非测量值，保持单点可配。
// 约束：分母为零时覆盖率按 0 返回，不产生 NaN/Inf。

// DefaultPeoplePerBuilding：每建筑折算人数的默认政策常数
const DefaultPeoplePerBuilding = 7

// Stats：聚合结果
type Stats struct {
	RadiusM                  int     `json:"radius_m"`
	ExistingBuildingsCovered int     `json:"existing_buildings_covered"`
	NewBuildingsCovered      int     `json:"new_buildings_covered"`
	TotalBuildingsCovered    int     `json:"total_buildings_covered"`
	ExistingPeopleCovered    int     `json:"existing_people_covered"`
	NewPeopleCovered         int     `json:"new_people_covered"`
	TotalPeopleCovered       int     `json:"total_people_covered"`
	TotalBuildings           int     `json:"total_buildings"`
	TotalPeople              int     `json:"total_people"`
	CoveragePercent          float64 `json:"coverage_percent"`
}

type Aggregator struct {
	PeoplePerBuilding int
}

// NewAggregator：按环境变量 PEOPLE_PER_BUILDING 覆盖默认系数
func NewAggregator() *Aggregator {
	ppb := DefaultPeoplePerBuilding
	if v := os.Getenv("PEOPLE_PER_BUILDING"); v != "" {
		if n, e := strconv.Atoi(v); e == nil && n > 0 {
			ppb = n
		}
	}
	return &Aggregator{PeoplePerBuilding: ppb}
}

// Summarize：合成覆盖统计
// 规则：既有覆盖 = 基线总覆盖 − 基线新增覆盖；新增覆盖 = 提案避难所 buildings_covered 之和；
// 总覆盖 = 两者之和；人数为建筑数乘系数统一折算。
func (a *Aggregator) Summarize(proposed []geodata.Shelter, baseline geodata.BaselineStats, radiusM int) Stats {
	ppb := a.PeoplePerBuilding
	if ppb <= 0 {
		ppb = DefaultPeoplePerBuilding
	}
	existing := baseline.TotalBuildingsCovered - baseline.NewBuildingsCovered
	added := 0
	for _, s := range proposed {
		// 畸形记录（无可推导位置）按零贡献处理
		if s.Status != geodata.StatusProposed || !s.HasLoc {
			continue
		}
		added += s.BuildingsCovered
	}
	total := existing + added
	st := Stats{
		RadiusM:                  radiusM,
		ExistingBuildingsCovered: existing,
		NewBuildingsCovered:      added,
		TotalBuildingsCovered:    total,
		ExistingPeopleCovered:    existing * ppb,
		NewPeopleCovered:         added * ppb,
		TotalPeopleCovered:       total * ppb,
		TotalBuildings:           baseline.TotalBuildings,
		TotalPeople:              baseline.TotalPeople,
	}
	if baseline.TotalBuildings > 0 {
		st.CoveragePercent = float64(total) / float64(baseline.TotalBuildings) * 100
	}
	return st
}
