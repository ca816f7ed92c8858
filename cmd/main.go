// 程序入口：仅负责读取配置、加载数据集、初始化引擎并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"shelter-map/internal/api"
	"shelter-map/internal/coverage"
	"shelter-map/internal/depcache"
	"shelter-map/internal/geodata"
	"shelter-map/internal/gridindex"
	"shelter-map/internal/logger"
	"shelter-map/internal/metrics"
	"shelter-map/internal/middleware"
	"shelter-map/internal/store"
	"shelter-map/internal/utils"
	"shelter-map/internal/version"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "/api"
	}
	radiusM := 100
	if s := os.Getenv("COVERAGE_RADIUS_M"); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 {
			radiusM = n
		}
	}
	cellSize := 0.001
	if s := os.Getenv("GRID_CELL_SIZE_DEG"); s != "" {
		if f, e := strconv.ParseFloat(s, 64); e == nil && f > 0 {
			cellSize = f
		}
	}
	cacheCap := coverage.DefaultCacheCap
	if s := os.Getenv("COVERAGE_CACHE_CAP"); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 {
			cacheCap = n
		}
	}
	l.Debug("config_loaded", "data_dir", dataDir, "radius_m", radiusM, "cell_size", cellSize)

	// 数据集加载：失败只降级不退出，空数据集下所有查询返回空集
	buildings, err := geodata.LoadBuildings(dataDir)
	if err != nil {
		l.Warn("buildings_load_error", "err", err)
	}
	shelters, err := geodata.LoadShelters(dataDir)
	if err != nil {
		l.Warn("shelters_load_error", "err", err)
	}
	baselineFile, baselineErr := geodata.LoadBaselineStats(dataDir)
	if baselineErr != nil {
		l.Warn("baseline_load_error", "err", baselineErr)
	}

	grid := gridindex.New()
	grid.Build(buildings, cellSize)

	// 可选的数据库来源：优化器把预计算表发布到 Postgres 时启用
	var st *store.Store
	if os.Getenv("PG_ENABLED") == "true" {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
		} else if err := db.Ping(); err != nil {
			l.Error("db_ping_error", "err", err)
			_ = db.Close()
		} else {
			l.Info("db_ping_ok")
			st = store.AttachDB(db)
			defer st.Close()
		}
	}

	sources := []coverage.Source{coverage.FileSource{Dir: dataDir}}
	if st != nil {
		sources = append(sources, st)
	}
	table := coverage.LoadFirst(sources...)

	deps := depcache.New()
	resolver := coverage.NewResolver(grid, table, deps, radiusM, cacheCap)
	agg := coverage.NewAggregator()

	baselineFn := func(radiusM int) geodata.BaselineStats {
		if st != nil {
			if b, ok := st.LoadBaseline(radiusM); ok {
				return b
			}
		}
		if baselineErr == nil {
			return baselineFile
		}
		return geodata.BaselineStats{}
	}

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else if err := rc.Ping(context.Background()).Err(); err != nil {
		l.Error("redis_ping_error", "err", err)
		rc = nil
	} else {
		l.Info("redis_ping_ok")
	}

	apiMux := api.BuildRoutes(api.Deps{
		Resolver: resolver,
		Agg:      agg,
		DepCache: deps,
		Shelters: shelters,
		Baseline: baselineFn,
		Redis:    rc,
	})
	mux := http.NewServeMux()
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle("/metrics", metrics.Handler())

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler}
	l.Info("server_start", "addr", addr, "commit", version.Commit, "buildings", grid.Len(), "shelters", len(shelters))
	if os.Getenv("TLS_ENABLE") == "true" {
		certPath := os.Getenv("TLS_CERT_PATH")
		keyPath := os.Getenv("TLS_KEY_PATH")
		if certPath == "" {
			certPath = filepath.Join("data", "certs", "server.crt")
		}
		if keyPath == "" {
			keyPath = filepath.Join("data", "certs", "server.key")
		}
		_ = utils.EnsureSelfSignedCert(certPath, keyPath, "shelter-map.local")
		if err := s.ListenAndServeTLS(certPath, keyPath); err != nil {
			l.Error("server_error", "err", err)
			os.Exit(1)
		}
		return
	}
	if err := s.ListenAndServe(); err != nil {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
}
