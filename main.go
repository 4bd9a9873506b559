package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cppla/filehub/config"
	"github.com/cppla/filehub/middleware"
	"github.com/cppla/filehub/routes"
	"github.com/cppla/filehub/storage"
	"github.com/cppla/filehub/utils"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "path to the optional JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger early
	logger, err := utils.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	accessLogger, err := utils.NewRollingFileLogger(cfg.GinPath, cfg)
	if err != nil {
		logger.Warn("gin access log disabled", zap.String("path", cfg.GinPath), zap.Error(err))
		accessLogger = nil
	}

	store := storage.NewStore(cfg.BaseDir, cfg.UploadRoot(), logger.Named("storage"))
	if err := store.Init(); err != nil {
		logger.Fatal("create upload dir failed", zap.String("dir", cfg.UploadRoot()), zap.Error(err))
	}

	db, err := config.InitDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("init database failed", zap.Error(err))
	}

	cache := utils.NewCache(utils.NewRedis(cfg, logger), cfg.CacheTTL, logger.Named("cache"))

	r := routes.SetupRouter(routes.Dependencies{
		Config:       cfg,
		DB:           db,
		Logger:       logger,
		AccessLogger: accessLogger,
		Cache:        cache,
		Store:        store,
		Metrics:      middleware.NewMetrics(),
	})

	srv := utils.NewServer(cfg.Addr(), r, utils.ServerOptions{
		ReadTimeout:     cfg.HTTPReadTimeout,
		WriteTimeout:    cfg.HTTPWriteTimeout,
		IdleTimeout:     cfg.HTTPIdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	logger.Info("starting server", zap.String("title", cfg.AppTitle), zap.String("addr", cfg.Addr()))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
