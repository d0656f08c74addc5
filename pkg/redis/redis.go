package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tschnepf/workload-tracker-sub001/config"
)

// Client Redis 客户端封装
// 当前用于分配引擎的分布式互斥锁：每周快照锁 + 全量 Overhead 同步 TTL 锁
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 键控非阻塞互斥锁 ──

const lockPrefix = "wlt:lock:"

// TryLock 尝试获取键控互斥锁（SET NX），立即返回是否成功
// 获取失败不是错误：调用方应视为"稍后重试"
func (c *Client) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, lockPrefix+key, "1", ttl).Result()
}

// Unlock 释放键控互斥锁
func (c *Client) Unlock(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, lockPrefix+key).Err()
}

// ── TTL 窗口互斥锁 ──

const ttlMutexPrefix = "wlt:ttl-mutex:"

// AcquireTTLMutex 以 add-if-absent 语义获取 TTL 窗口锁
// 与 TryLock 不同，该锁不会被主动释放：TTL 窗口内系统全局只允许一次执行
func (c *Client) AcquireTTLMutex(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, ttlMutexPrefix+key, "1", ttl).Result()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
