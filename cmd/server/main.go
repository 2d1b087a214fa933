package main

import (
	"github.com/elbert/cvs/internal/cache"
	"github.com/elbert/cvs/internal/config"
	"github.com/elbert/cvs/internal/database"
	"github.com/elbert/cvs/internal/logger"
	"github.com/elbert/cvs/internal/logic"
	"github.com/elbert/cvs/internal/router"
	"github.com/elbert/cvs/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	setupLogger(cfg.Log)
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化缓存（未启用时为nil，所有调用安全退化）
	c := cache.Init(cfg.Redis)

	// 初始化账本
	clock := logic.NewRealClock()
	fundingLogic, err := logic.NewFundingLogic(db, cfg.Ledger, clock)
	if err != nil {
		logger.Fatal("Failed to initialize funding ledger: %v", err)
	}
	orderBook, err := logic.NewOrderBookLogic(db, cfg.Ledger, clock)
	if err != nil {
		logger.Fatal("Failed to initialize order book ledger: %v", err)
	}
	treasury := logic.NewTreasuryLogic(db, cfg.Ledger.AdminAddress)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(fundingLogic, orderBook, treasury, c)

	// 启动定时任务
	manager := task.Start(db, c, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

// setupLogger 根据配置初始化默认日志器
func setupLogger(cfg config.LogConfig) {
	level := logger.ParseLogLevel(cfg.GetLevel())

	if cfg.GetOutput() == "file" {
		l, err := logger.NewWithFileRotation(level, cfg.GetFile())
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(l)
		return
	}

	l, err := logger.New(level)
	if err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	logger.SetDefaultLogger(l)
}
