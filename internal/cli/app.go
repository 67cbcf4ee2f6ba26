package cli

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shift-clock/backend/config"
	"shift-clock/backend/pkg/database"
	applogger "shift-clock/backend/pkg/logger"
)

// app 各子命令共用的基础依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

// openRuntime 加载配置、初始化日志并连接数据库
func openRuntime(opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, &cfg.Log, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	return &app{cfg: cfg, logger: logger, db: db}, nil
}

// migrate 执行全部待执行的迁移
func (rt *app) migrate() error {
	sqlDB, err := rt.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return database.RunMigrations(sqlDB, rt.logger)
}

// Close 关闭数据库连接并刷新日志
func (rt *app) Close() {
	if sqlDB, err := rt.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rt.logger.Sync()
}
