// Package lockout PIN 连续失败锁定
//
// 同一 key（终端 UUID 或客户端 IP）连续失败达到阈值后锁定一段时间，
// 锁定期从触发锁定的那次失败开始计算；锁定过期后的下一次失败会先清零再计数。
package lockout

import (
	"context"
	"errors"
	"strings"
	"time"
)

// 默认策略
const (
	DefaultMaxFailures  = 5
	DefaultLockDuration = 5 * time.Minute
)

// ErrLocked 连续失败次数过多，暂时锁定
var ErrLocked = errors.New("失败次数过多，请稍后再试")

// Limiter 失败计数与锁定
// 空白 key 的调用一律忽略
type Limiter interface {
	CheckAllowed(ctx context.Context, key string) error
	RecordFailure(ctx context.Context, key string) error
	RecordSuccess(ctx context.Context, key string) error
}

// Policy 锁定策略
type Policy struct {
	MaxFailures  int
	LockDuration time.Duration
}

func (p Policy) normalized() Policy {
	if p.MaxFailures <= 0 {
		p.MaxFailures = DefaultMaxFailures
	}
	if p.LockDuration <= 0 {
		p.LockDuration = DefaultLockDuration
	}
	return p
}

func blank(key string) bool {
	return strings.TrimSpace(key) == ""
}

var (
	_ Limiter = (*MemoryLimiter)(nil)
	_ Limiter = (*RedisLimiter)(nil)
)
