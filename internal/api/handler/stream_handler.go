package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"shift-clock/backend/internal/notify"
)

// 订阅者缓冲与心跳间隔
const (
	streamBuffer    = 16
	streamHeartbeat = 25 * time.Second
)

// EventSource 事件订阅，由 notify.Hub 实现
type EventSource interface {
	Subscribe(buffer int) (<-chan notify.Event, func())
}

// StreamHandler 管理端实时推送（SSE）
//
// 每个打卡事件推送 open-shifts 与 reports 两个事件，数据固定为 refresh，
// 前端收到后重新拉取对应接口。
type StreamHandler struct {
	events    EventSource
	heartbeat time.Duration
}

// NewStreamHandler 创建 StreamHandler
func NewStreamHandler(events EventSource) *StreamHandler {
	return &StreamHandler{events: events, heartbeat: streamHeartbeat}
}

// Stream 订阅班次变化
// GET /api/v1/admin/stream
func (h *StreamHandler) Stream(c *gin.Context) {
	events, cancel := h.events.Subscribe(streamBuffer)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("connected", "ok")
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case _, ok := <-events:
			if !ok {
				return false
			}
			drain(events)
			c.SSEvent("open-shifts", "refresh")
			c.SSEvent("reports", "refresh")
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Unix())
			return true
		}
	})
}

// drain 合并同一时刻积压的事件，只推送一次
func drain(events <-chan notify.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
