package coverage

import (
	"os"
	"path/filepath"

	"shelter-map/internal/logger"
	"shelter-map/internal/metrics"
)

// 文档注释：预计算表来源链
// 背景：表的主来源是优化器落盘的 JSON 文件；优化器也可把表发布到数据库，作为次级来源。
// 按序尝试，第一个成功者生效；全部失败时返回 nil，解析器在本会话内永久走兜底路径，
// 期间不做自动重试。

type Source interface {
	Name() string
	LoadTable() (*Table, error)
}

// FileSource：数据目录下的 shelter_coverage_precomputed.json
type FileSource struct {
	Dir string
}

func (s FileSource) Name() string { return "file" }

func (s FileSource) LoadTable() (*Table, error) {
	b, err := os.ReadFile(filepath.Join(s.Dir, "shelter_coverage_precomputed.json"))
	if err != nil {
		return nil, err
	}
	return ParseTable(b)
}

// LoadFirst：按序尝试各来源，失败仅记日志告警
// 返回：首个成功的表；全部失败返回 nil（调用方据此进入降级模式）
func LoadFirst(sources ...Source) *Table {
	for _, s := range sources {
		if s == nil {
			continue
		}
		t, err := s.LoadTable()
		if err != nil {
			metrics.TableLoadFailuresTotal.Inc()
			logger.L().Warn("coverage_table_load_error", "source", s.Name(), "err", err)
			continue
		}
		logger.L().Info("coverage_table_loaded", "source", s.Name(), "shelters", t.Shelters())
		return t
	}
	logger.L().Warn("coverage_table_unavailable", "mode", "fallback_only")
	return nil
}
