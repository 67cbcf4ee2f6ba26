package lockout

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"shift-clock/backend/pkg/clock"
)

const shardCount = 32

// idleTTL 未触发锁定的失败计数保留时长，与 Redis 实现一致
const idleTTL = 24 * time.Hour

type state struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

// expired 锁定已结束，或未锁定且长时间没有新的失败
func (st *state) expired(now time.Time) bool {
	if !st.lockedUntil.IsZero() {
		return !now.Before(st.lockedUntil)
	}
	return now.Sub(st.lastFailure) >= idleTTL
}

type shard struct {
	mu     sync.Mutex
	states map[string]*state
}

// MemoryLimiter 进程内实现，按 key 分片加锁
type MemoryLimiter struct {
	policy Policy
	clock  clock.Clock
	shards [shardCount]shard
}

// NewMemoryLimiter 创建进程内限制器
func NewMemoryLimiter(policy Policy, clk clock.Clock) *MemoryLimiter {
	if clk == nil {
		clk = clock.System{}
	}
	l := &MemoryLimiter{policy: policy.normalized(), clock: clk}
	for i := range l.shards {
		l.shards[i].states = make(map[string]*state)
	}
	return l
}

func (l *MemoryLimiter) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &l.shards[h.Sum32()%shardCount]
}

// CheckAllowed key 处于锁定期时返回 ErrLocked
func (l *MemoryLimiter) CheckAllowed(_ context.Context, key string) error {
	if blank(key) {
		return nil
	}
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[key]
	if !ok {
		return nil
	}
	if st.expired(l.clock.Now()) {
		delete(s.states, key)
		return nil
	}
	if !st.lockedUntil.IsZero() {
		return ErrLocked
	}
	return nil
}

// RecordFailure 记录一次失败，达到阈值时从本次失败起锁定
func (l *MemoryLimiter) RecordFailure(_ context.Context, key string) error {
	if blank(key) {
		return nil
	}
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := l.clock.Now()
	st, ok := s.states[key]
	if ok && st.expired(now) {
		delete(s.states, key)
		ok = false
	}
	if !ok {
		// 新 key 才会让分片增长，顺带清理同分片的过期状态
		s.sweep(now)
		st = &state{}
		s.states[key] = st
	}

	st.failures++
	st.lastFailure = now
	if st.failures >= l.policy.MaxFailures {
		st.lockedUntil = now.Add(l.policy.LockDuration)
	}
	return nil
}

func (s *shard) sweep(now time.Time) {
	for k, st := range s.states {
		if st.expired(now) {
			delete(s.states, k)
		}
	}
}

// RecordSuccess 清除 key 的全部状态
func (l *MemoryLimiter) RecordSuccess(_ context.Context, key string) error {
	if blank(key) {
		return nil
	}
	s := l.shardFor(key)
	s.mu.Lock()
	delete(s.states, key)
	s.mu.Unlock()
	return nil
}
