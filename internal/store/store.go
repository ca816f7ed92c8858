// 包 store：提供与 PostgreSQL 的数据访问层，读取优化器发布的预计算覆盖与基线统计
package store

import (
	"database/sql"
	"encoding/json"

	"shelter-map/internal/coverage"
	"shelter-map/internal/geodata"
	"shelter-map/internal/logger"

	_ "github.com/lib/pq"
)

// Store：数据库访问入口，持有连接池
// 背景：优化器可把预计算覆盖表与基线统计发布到数据库；本层只做一次性批量读取，
// 读出后数据在会话内只读。作为文件来源之后的次级表来源接入加载链。
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open：使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return &Store{db: db}, nil
}

// Close：关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Name：来源链中的标识
func (s *Store) Name() string { return "postgres" }

// LoadTable：整表拉取预计算覆盖
// 背景：行结构 (shelter_key, radius_m, building_indices jsonb, buildings_count, estimated_people)，
// 与文件来源解析后的结构一致；building_indices 以 JSON 数组落库，逐行解码。
func (s *Store) LoadTable() (*coverage.Table, error) {
	rows, err := s.db.Query("SELECT shelter_key, radius_m, building_indices, buildings_count, estimated_people FROM _shelter_coverage")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	t := coverage.NewTable()
	n := 0
	for rows.Next() {
		var key string
		var radiusM int
		var raw []byte
		var cov coverage.RadiusCoverage
		if err := rows.Scan(&key, &radiusM, &raw, &cov.BuildingsCount, &cov.EstimatedPeople); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &cov.BuildingIndices); err != nil {
			return nil, err
		}
		t.Add(key, radiusM, cov)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("store_table_loaded", "rows", n, "shelters", t.Shelters())
	return t, nil
}

// LoadBaseline：读取指定半径的基线统计
// 返回：统计块与命中标记；无该半径行时返回零值与 false
func (s *Store) LoadBaseline(radiusM int) (geodata.BaselineStats, bool) {
	row := s.db.QueryRow("SELECT total_buildings, total_people, total_buildings_covered, new_buildings_covered, total_people_covered, new_people_covered FROM _baseline_stats WHERE radius_m=$1", radiusM)
	var st geodata.BaselineStats
	if err := row.Scan(&st.TotalBuildings, &st.TotalPeople, &st.TotalBuildingsCovered, &st.NewBuildingsCovered, &st.TotalPeopleCovered, &st.NewPeopleCovered); err != nil {
		logger.L().Debug("store_baseline_miss", "radius_m", radiusM)
		return geodata.BaselineStats{}, false
	}
	return st, true
}
