package lockout

import (
	"context"
	"fmt"
	"time"

	"shift-clock/backend/pkg/clock"
)

// AttemptStore 失败计数的外部存储，由 pkg/redis.Client 实现
// 每个方法在存储端原子执行
type AttemptStore interface {
	PINAttemptLocked(ctx context.Context, key string, now time.Time) (bool, error)
	PINAttemptFailure(ctx context.Context, key string, now time.Time, maxFailures int, lock time.Duration) (int64, error)
	PINAttemptReset(ctx context.Context, key string) error
}

// RedisLimiter 基于 Redis 的实现，多实例部署时共享锁定状态
// 锁定窗口由 key 的 TTL 承载
type RedisLimiter struct {
	store     AttemptStore
	policy    Policy
	clock     clock.Clock
	namespace string
}

// NewRedisLimiter 创建 Redis 限制器，namespace 用于区分终端 PIN 与管理员登录
func NewRedisLimiter(store AttemptStore, namespace string, policy Policy, clk clock.Clock) *RedisLimiter {
	if clk == nil {
		clk = clock.System{}
	}
	return &RedisLimiter{store: store, policy: policy.normalized(), clock: clk, namespace: namespace}
}

func (l *RedisLimiter) key(key string) string {
	return l.namespace + ":" + key
}

// CheckAllowed key 处于锁定期时返回 ErrLocked
func (l *RedisLimiter) CheckAllowed(ctx context.Context, key string) error {
	if blank(key) {
		return nil
	}
	locked, err := l.store.PINAttemptLocked(ctx, l.key(key), l.clock.Now())
	if err != nil {
		return fmt.Errorf("查询锁定状态失败: %w", err)
	}
	if locked {
		return ErrLocked
	}
	return nil
}

// RecordFailure 记录一次失败
func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) error {
	if blank(key) {
		return nil
	}
	if _, err := l.store.PINAttemptFailure(ctx, l.key(key), l.clock.Now(), l.policy.MaxFailures, l.policy.LockDuration); err != nil {
		return fmt.Errorf("记录失败次数失败: %w", err)
	}
	return nil
}

// RecordSuccess 清除 key 的全部状态
func (l *RedisLimiter) RecordSuccess(ctx context.Context, key string) error {
	if blank(key) {
		return nil
	}
	if err := l.store.PINAttemptReset(ctx, l.key(key)); err != nil {
		return fmt.Errorf("清除失败次数失败: %w", err)
	}
	return nil
}
