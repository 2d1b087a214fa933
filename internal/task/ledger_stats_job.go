package task

import (
	"context"
	"time"

	"github.com/elbert/cvs/internal/cache"
	"github.com/elbert/cvs/internal/config"
	"github.com/elbert/cvs/internal/logger"
	"github.com/elbert/cvs/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// 统计缓存键
const cacheKeyLedgerStats = "cvs:stats:ledger"

// LedgerStatsJob 账本统计任务，周期性汇总两个账本的总量指标
// 并写入缓存供看板读取
type LedgerStatsJob struct {
	db     *gorm.DB
	cache  *cache.Cache
	config *config.Config
}

// NewLedgerStatsJob 创建账本统计任务
func NewLedgerStatsJob(db *gorm.DB, c *cache.Cache, cfg *config.Config) *LedgerStatsJob {
	return &LedgerStatsJob{
		db:     db,
		cache:  c,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *LedgerStatsJob) GetName() string {
	return "ledger_stats_updater"
}

// GetSchedule 获取调度配置
func (j *LedgerStatsJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *LedgerStatsJob) Execute() {
	var totalProjects int64
	j.db.Model(&model.Project{}).Count(&totalProjects)

	var activeProjects int64
	j.db.Model(&model.Project{}).Where("is_active = ?", true).Count(&activeProjects)

	var fundedProjects int64
	j.db.Model(&model.Project{}).Where("goal_reached = ?", true).Count(&fundedProjects)

	// 总贡献者数量（去重）
	var totalContributors int64
	j.db.Model(&model.ContributionRecord{}).
		Distinct("contributor").
		Count(&totalContributors)

	var totalPairs int64
	j.db.Model(&model.TradingPair{}).Count(&totalPairs)

	var totalOrders int64
	j.db.Model(&model.Order{}).Count(&totalOrders)

	var openOrders int64
	j.db.Model(&model.Order{}).Where("is_active = ?", true).Count(&openOrders)

	stats := map[string]interface{}{
		"total_projects":     totalProjects,
		"active_projects":    activeProjects,
		"funded_projects":    fundedProjects,
		"total_contributors": totalContributors,
		"total_pairs":        totalPairs,
		"total_orders":       totalOrders,
		"open_orders":        openOrders,
		"updated_at":         time.Now().Unix(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	j.cache.SetJSON(ctx, cacheKeyLedgerStats, stats)

	logger.Info("Ledger stats updated: %d projects (%d active), %d orders (%d open)",
		totalProjects, activeProjects, totalOrders, openOrders)
}
