package main

import (
	"net/http"

	"github.com/qinfyy/Nebula-sub000/internal/build"
	"github.com/qinfyy/Nebula-sub000/internal/config"
	"github.com/qinfyy/Nebula-sub000/internal/content"
	"github.com/qinfyy/Nebula-sub000/internal/game"
	"github.com/qinfyy/Nebula-sub000/internal/growth"
	"github.com/qinfyy/Nebula-sub000/internal/inventory"
	"github.com/qinfyy/Nebula-sub000/internal/server"
	"github.com/qinfyy/Nebula-sub000/internal/telemetry"
	"github.com/qinfyy/Nebula-sub000/pkg/logger"
)

func main() {
	logger.Init()

	cfg, err := config.Load("nebula_config.yml")
	if err != nil {
		logger.Log.Fatalf("load config: %v", err)
	}

	var builds build.Repository
	if cfg.DBPath != "" {
		repo, err := build.NewSQLiteRepo(cfg.DBPath)
		if err != nil {
			logger.Log.Fatalf("open build store: %v", err)
		}
		defer repo.Close()
		builds = repo
	} else {
		logger.Log.Warn("no db_path configured, builds are memory-only")
		builds = build.NewMemoryRepo()
	}

	engine := game.NewEngine(content.DefaultLibrary(), builds, growth.NewMemoryRepo(), inventory.NewMemoryLedger())
	engine.BuildCap = cfg.BuildCap
	engine.SweepAlwaysUnlocked = cfg.SweepAlwaysUnlocked
	engine.Telemetry = telemetry.NewMemoryRecorder(10000)

	srv := server.New(engine)

	logger.Log.WithField("addr", cfg.Addr).Info("tower run engine listening")
	logger.Log.Fatal(http.ListenAndServe(cfg.Addr, srv.Routes()))
}
