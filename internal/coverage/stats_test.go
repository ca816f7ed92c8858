package coverage

import (
	"testing"

	"shelter-map/internal/geodata"

	"github.com/stretchr/testify/require"
)

func proposedShelter(covered int) geodata.Shelter {
	return geodata.Shelter{
		Status:           geodata.StatusProposed,
		BuildingsCovered: covered,
		Loc:              geodata.Point{Lon: 35, Lat: 31},
		HasLoc:           true,
	}
}

func TestSummarize(t *testing.T) {
	agg := &Aggregator{PeoplePerBuilding: 7}
	baseline := geodata.BaselineStats{
		TotalBuildings:        1000,
		TotalPeople:           7000,
		TotalBuildingsCovered: 400,
		NewBuildingsCovered:   150,
	}
	proposed := []geodata.Shelter{proposedShelter(30), proposedShelter(20)}

	st := agg.Summarize(proposed, baseline, 100)
	// 既有覆盖 = 基线总覆盖 − 基线新增覆盖
	require.Equal(t, 250, st.ExistingBuildingsCovered)
	require.Equal(t, 50, st.NewBuildingsCovered)
	require.Equal(t, 300, st.TotalBuildingsCovered)
	require.Equal(t, 250*7, st.ExistingPeopleCovered)
	require.Equal(t, 50*7, st.NewPeopleCovered)
	require.Equal(t, 300*7, st.TotalPeopleCovered)
	require.InDelta(t, 30.0, st.CoveragePercent, 1e-9)
	require.Equal(t, 100, st.RadiusM)
}

// 分母为零时覆盖率按 0 返回，不产生 NaN/Inf
func TestSummarizeZeroDenominator(t *testing.T) {
	agg := &Aggregator{PeoplePerBuilding: 7}
	st := agg.Summarize(nil, geodata.BaselineStats{}, 100)
	require.Equal(t, 0.0, st.CoveragePercent)
	require.Equal(t, 0, st.TotalBuildingsCovered)
}

// 非提案状态与畸形记录不计入新增覆盖
func TestSummarizeSkipsNonProposedAndMalformed(t *testing.T) {
	agg := &Aggregator{PeoplePerBuilding: 7}
	shelters := []geodata.Shelter{
		proposedShelter(10),
		{Status: geodata.StatusExisting, BuildingsCovered: 99, HasLoc: true},
		{Status: geodata.StatusProposed, BuildingsCovered: 50}, // 无位置
	}
	st := agg.Summarize(shelters, geodata.BaselineStats{TotalBuildings: 100}, 100)
	require.Equal(t, 10, st.NewBuildingsCovered)
}

// 人口系数是单点可配的政策常数
func TestConfigurableOccupancyFactor(t *testing.T) {
	agg := &Aggregator{PeoplePerBuilding: 4}
	st := agg.Summarize([]geodata.Shelter{proposedShelter(5)}, geodata.BaselineStats{TotalBuildings: 10}, 100)
	require.Equal(t, 20, st.NewPeopleCovered)
}

func TestNewAggregatorFromEnv(t *testing.T) {
	t.Setenv("PEOPLE_PER_BUILDING", "")
	require.Equal(t, DefaultPeoplePerBuilding, NewAggregator().PeoplePerBuilding)

	t.Setenv("PEOPLE_PER_BUILDING", "3")
	require.Equal(t, 3, NewAggregator().PeoplePerBuilding)
}
