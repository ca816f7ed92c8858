package geodata

// 文档注释：覆盖分析的最小数据结构
// 背景：建筑与避难所数据由离线流程产出（GeoJSON），加载后在会话内只读；保持轻量以便常驻内存与快速判定。
// 约束：几何仅支持 GeoJSON 的 Point/Polygon；其余几何类型在质心推导阶段跳过，不报错。

// 点坐标（WGS84，经度在前与 GeoJSON 一致）
type Point struct {
	Lon float64
	Lat float64
}

// 避难所状态标签
type ShelterStatus string

const (
	StatusExisting  ShelterStatus = "existing"
	StatusRequested ShelterStatus = "requested"
	StatusProposed  ShelterStatus = "proposed"
)

// Building：建筑记录。Index 为加载序中的稳定下标，即对外的建筑标识；
// Centroid 为推导质心，HasCentroid 为 false 表示几何类型不支持（不参与索引）。
type Building struct {
	Index       int
	Centroid    Point
	HasCentroid bool
}

// Shelter：避难所记录。Proposed 状态额外携带优化器预计算的 BuildingsCovered。
// HasLoc 为 false 表示记录无法推导位置（畸形记录），覆盖解析按空集处理。
type Shelter struct {
	Index            int
	Loc              Point
	HasLoc           bool
	Status           ShelterStatus
	Name             string
	BuildingsCovered int
}

// BaselineStats：优化器输出的基线统计块
type BaselineStats struct {
	TotalBuildings        int `json:"total_buildings"`
	TotalPeople           int `json:"total_people"`
	TotalBuildingsCovered int `json:"total_buildings_covered"`
	NewBuildingsCovered   int `json:"new_buildings_covered"`
	TotalPeopleCovered    int `json:"total_people_covered"`
	NewPeopleCovered      int `json:"new_people_covered"`
}
