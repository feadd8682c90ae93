// migrate 建表，并可清理本地存储中没有被任何图片记录引用的文件
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"go-garage/internal/core/config"
	"go-garage/internal/core/database"
	"go-garage/internal/core/logger"
	"go-garage/internal/repo"
	"go-garage/internal/storage"
)

type options struct {
	Sweep  bool
	DryRun bool
	// 比它新的文件可能还在上传中，不清理
	MinAge time.Duration
}

var errSweepDriver = errors.New("sweep only supports the local storage driver")

func main() {
	var opt options
	flag.BoolVar(&opt.Sweep, "sweep", false, "delete local uploads not referenced by any car image")
	flag.BoolVar(&opt.DryRun, "dry-run", false, "with -sweep: only report orphans")
	flag.DurationVar(&opt.MinAge, "min-age", time.Hour, "with -sweep: skip files modified more recently than this")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, cleanup := logger.New(cfg.Log)
	err = run(context.Background(), cfg, log, opt)
	if err != nil {
		log.Error("migrate failed", zap.Error(err))
	}
	// 先刷日志再退出
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, opt options) error {
	if opt.Sweep && cfg.Storage.Driver != "" && cfg.Storage.Driver != "local" {
		return fmt.Errorf("%w: %q", errSweepDriver, cfg.Storage.Driver)
	}
	if opt.MinAge < 0 {
		return fmt.Errorf("min-age must not be negative: %s", opt.MinAge)
	}

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("migrate done", zap.String("driver", cfg.DB.Driver))

	if !opt.Sweep {
		return nil
	}
	local, err := storage.NewLocal(cfg.Storage.Dir, cfg.Storage.PublicPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	keep, err := repo.NewCarRepo(db).ReferencedPublicIDs(ctx)
	if err != nil {
		return fmt.Errorf("load references: %w", err)
	}
	orphans, err := local.Sweep(ctx, keep, opt.MinAge, opt.DryRun)
	for _, o := range orphans {
		log.Info("orphan", zap.String("public_id", o), zap.Bool("removed", !opt.DryRun))
	}
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	log.Info("sweep done",
		zap.Int("orphans", len(orphans)),
		zap.Bool("dry_run", opt.DryRun),
		zap.Duration("min_age", opt.MinAge),
	)
	return nil
}
