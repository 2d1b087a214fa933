package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/elbert/cvs/internal/config"
	"github.com/elbert/cvs/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Cache 基于Redis的读视图缓存与事件发布。未启用时所有方法
// 都安全地退化为未命中/空操作。
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Init 根据配置创建缓存，未启用时返回nil
func Init(cfg config.RedisConfig) *Cache {
	if !cfg.Enabled {
		logger.Info("Redis cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis not reachable, cache disabled: %v", err)
		return nil
	}

	logger.Info("Redis cache connected: %s", cfg.Addr)
	return &Cache{
		client: client,
		ttl:    time.Duration(cfg.TTL) * time.Second,
	}
}

// GetJSON 读取缓存并反序列化，未命中返回false
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logger.Warn("Failed to unmarshal cached value for %s: %v", key, err)
		return false
	}
	return true
}

// SetJSON 序列化并写入缓存
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Failed to marshal value for %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Warn("Failed to cache %s: %v", key, err)
	}
}

// Delete 删除缓存键
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("Failed to delete cache keys: %v", err)
	}
}

// Publish 向频道发布消息
func (c *Cache) Publish(ctx context.Context, channel string, payload []byte) error {
	if c == nil {
		return nil
	}
	return c.client.Publish(ctx, channel, payload).Err()
}
