package task

import (
	"context"
	"sync"
	"time"

	"github.com/elbert/cvs/internal/cache"
	"github.com/elbert/cvs/internal/config"
	"github.com/elbert/cvs/internal/logger"
	"github.com/elbert/cvs/internal/model"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// 事件发布频道
const eventChannel = "cvs.events"

// 每轮最多处理的事件数
const dispatchBatchSize = 100

// EventDispatchJob 事件分发任务。账本在每次状态变更的事务内
// 追加事件流水，本任务把未发布的事件推送出去并标记已发布。
type EventDispatchJob struct {
	db     *gorm.DB
	cache  *cache.Cache
	config *config.Config
}

// NewEventDispatchJob 创建事件分发任务
func NewEventDispatchJob(db *gorm.DB, c *cache.Cache, cfg *config.Config) *EventDispatchJob {
	return &EventDispatchJob{
		db:     db,
		cache:  c,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *EventDispatchJob) GetName() string {
	return "event_dispatcher"
}

// GetSchedule 获取调度配置
func (j *EventDispatchJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *EventDispatchJob) Execute() {
	var events []model.Event
	err := j.db.Where("published = ?", false).
		Order("id ASC").
		Limit(dispatchBatchSize).
		Find(&events).Error
	if err != nil {
		logger.Error("Failed to fetch pending events: %v", err)
		return
	}
	if len(events) == 0 {
		return
	}

	logger.Info("Dispatching %d pending events", len(events))

	pool, err := ants.NewPool(4)
	if err != nil {
		logger.Error("Failed to create dispatch pool: %v", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range events {
		event := events[i]
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			j.dispatch(event)
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit event %d for dispatch: %v", event.Id, err)
		}
	}
	wg.Wait()
}

// dispatch 发布单条事件并标记
func (j *EventDispatchJob) dispatch(event model.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := j.cache.Publish(ctx, eventChannel, []byte(event.Data)); err != nil {
		logger.Error("Failed to publish event %d (%s): %v", event.Id, event.EventType, err)
		return
	}

	logger.Info("Event %d dispatched: %s tx=%s", event.Id, event.EventType, event.TxHash)

	now := time.Now()
	updates := map[string]interface{}{
		"published":    true,
		"published_at": &now,
	}
	if err := j.db.Model(&model.Event{}).Where("id = ?", event.Id).Updates(updates).Error; err != nil {
		logger.Error("Failed to mark event %d as published: %v", event.Id, err)
	}
}
