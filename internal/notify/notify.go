// Package notify 打卡事件的提交后通知
//
// 投递为尽力而为、至多一次：订阅者缓冲区满时直接丢弃，失败只记录日志。
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// 事件类型
const (
	EventClockIn     = "clock_in"
	EventClockOut    = "clock_out"
	EventShiftEdited = "shift_edited"
)

// Event 班次状态变化事件
type Event struct {
	Type       string    `json:"type"`
	LocationID string    `json:"location_id,omitempty"`
	ShiftID    string    `json:"shift_id,omitempty"`
	At         time.Time `json:"at"`
	Origin     string    `json:"origin,omitempty"`
}

// Publisher 事件发布方，由业务层在事务提交后调用
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Hub 进程内事件分发
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
	logger *zap.Logger
}

// NewHub 创建事件分发器
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{subs: make(map[int]chan Event), logger: logger}
}

// Subscribe 注册订阅者，返回事件通道与取消函数
// 取消函数可重复调用；Hub 关闭后返回已关闭的通道
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		// Close 可能已关闭该通道
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Close 关闭全部订阅通道，之后的订阅立即结束、发布不再投递
// 用于服务关闭时结束 SSE 长连接
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish 向所有本地订阅者投递，不阻塞
func (h *Hub) Publish(_ context.Context, e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.logger.Debug("订阅者缓冲区已满，丢弃事件",
				zap.Int("subscriber", id),
				zap.String("type", e.Type),
			)
		}
	}
}

// SubscriberCount 当前订阅者数量
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Nop 丢弃所有事件
type Nop struct{}

// Publish 不做任何事
func (Nop) Publish(context.Context, Event) {}
