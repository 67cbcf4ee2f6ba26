// Package clock 提供可注入的时间源。
// 所有业务时间一律取 UTC，测试中使用 Fixed/Manual 获得确定性结果。
package clock

import (
	"sync"
	"time"
)

// Clock 当前时间提供者
type Clock interface {
	Now() time.Time
}

// System 系统时钟（UTC）
type System struct{}

// Now 返回当前 UTC 时间
func (System) Now() time.Time { return time.Now().UTC() }

// Fixed 固定时间时钟
type Fixed time.Time

// Now 返回固定时间
func (f Fixed) Now() time.Time { return time.Time(f).UTC() }

// Manual 可手动推进的时钟，并发安全
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual 创建从 start 开始的手动时钟
func NewManual(start time.Time) *Manual {
	return &Manual{now: start.UTC()}
}

// Now 返回当前时间
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance 将时钟推进 d
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set 将时钟设置为 t
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t.UTC()
	m.mu.Unlock()
}
