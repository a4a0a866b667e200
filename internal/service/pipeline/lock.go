package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// lockKeyPrefix Redis 中评估锁的 key 前缀
const lockKeyPrefix = "eval:lock:"

// Locker 单提交评估锁
// 状态 CAS 已能防止同进程重复触发，分布式锁兜底多实例部署的场景
type Locker interface {
	Acquire(ctx context.Context, submissionID int64, ttl time.Duration) (bool, error)
	Release(ctx context.Context, submissionID int64)
}

// RedisLocker 基于 Redis SetNX 的评估锁
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker 创建 Redis 评估锁
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire 尝试获取锁，已被持有时返回 false
func (l *RedisLocker) Acquire(ctx context.Context, submissionID int64, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, lockKey(submissionID), time.Now().Unix(), ttl).Result()
}

// Release 释放锁；失败不影响流程，锁会随 TTL 过期
func (l *RedisLocker) Release(ctx context.Context, submissionID int64) {
	l.client.Del(ctx, lockKey(submissionID))
}

func lockKey(submissionID int64) string {
	return fmt.Sprintf("%s%d", lockKeyPrefix, submissionID)
}

// NoopLocker 未配置 Redis 时的空实现，仅依赖状态 CAS 防重
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, int64, time.Duration) (bool, error) { return true, nil }
func (NoopLocker) Release(context.Context, int64)                             {}
