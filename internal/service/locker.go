package service

import (
	"context"
	"sync"
	"time"
)

// WeekLocker 键控非阻塞互斥锁。
// TryLock 立即返回是否成功，获取失败是正常可重试结果而非错误；
// 生产环境由 pkg/redis.Client 实现（跨进程），测试与 Redis 降级场景
// 使用进程内实现
type WeekLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// TTLMutex add-if-absent 语义的 TTL 窗口锁：获取成功后不主动释放，
// TTL 窗口内同键的再次获取全部失败
type TTLMutex interface {
	AcquireTTLMutex(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// ── 进程内实现（Redis 不可用时的降级路径，仅单进程安全）──

// LocalWeekLocker WeekLocker 的进程内实现
type LocalWeekLocker struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

// NewLocalWeekLocker 创建进程内键控锁
func NewLocalWeekLocker() *LocalWeekLocker {
	return &LocalWeekLocker{expires: make(map[string]time.Time)}
}

// TryLock 尝试获取锁；持有者过期视为未持有
func (l *LocalWeekLocker) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if exp, ok := l.expires[key]; ok && time.Now().Before(exp) {
		return false, nil
	}
	l.expires[key] = time.Now().Add(ttl)
	return true, nil
}

// Unlock 释放锁
func (l *LocalWeekLocker) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.expires, key)
	l.mu.Unlock()
	return nil
}

// AcquireTTLMutex add-if-absent；不提供释放入口，过期自动失效
func (l *LocalWeekLocker) AcquireTTLMutex(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if exp, ok := l.expires["ttl:"+key]; ok && time.Now().Before(exp) {
		return false, nil
	}
	l.expires["ttl:"+key] = time.Now().Add(ttl)
	return true, nil
}
